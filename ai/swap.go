package ai

import (
	"log/slog"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("Swap", func(Options) (HeadAI, error) {
		return &SwapAI{}, nil
	})
}

// SwapAI greedily swaps equal-sized initial blocks while each swap's
// cost is outweighed by the similarity it recovers. Useful for the
// puzzle variants whose initial state is a shuffled mosaic.
type SwapAI struct{}

func (a *SwapAI) Solve(img *raster.Image, initial *simulator.State) isl.Program {
	blocks := initial.ActiveBlocks()

	colors := make([]isl.Color, len(blocks))
	for i, b := range blocks {
		colors[i] = b.Color
	}

	// similarity[i][j]: block i's window scored as if painted with
	// block j's color
	similarity := make([][]int64, len(blocks))
	for i, b := range blocks {
		similarity[i] = make([]int64, len(colors))
		for j, c := range colors {
			similarity[i][j] = simulator.CalcPartialOneColorSimilarity(b.P, b.Size, c, img)
		}
	}

	// colorOrigin[i]: which initial block's color currently sits at
	// position i
	colorOrigin := make([]int, len(blocks))
	for i := range colorOrigin {
		colorOrigin[i] = i
	}

	var prog isl.Program
	for iter := 0; iter < 10000; iter++ {
		minDelta := int64(1 << 62)
		bestI, bestJ := 0, 0
		for i := range blocks {
			for j := i + 1; j < len(blocks); j++ {
				if blocks[i].Size != blocks[j].Size {
					continue
				}
				mv := isl.Swap{A: blocks[i].ID, B: blocks[j].ID}
				moveCost := simulator.MoveCostWithoutState(
					mv, int(blocks[i].Area()), img.Width(), img.Height(), initial.CostCoeffVersion)
				simBefore := similarity[i][colorOrigin[i]] + similarity[j][colorOrigin[j]]
				simAfter := similarity[i][colorOrigin[j]] + similarity[j][colorOrigin[i]]
				if delta := simAfter + moveCost - simBefore; delta < minDelta {
					minDelta = delta
					bestI, bestJ = i, j
				}
			}
		}
		if minDelta >= 0 {
			break
		}
		slog.Debug("swap", "iter", iter, "delta", minDelta, "i", bestI, "j", bestJ)
		// the blocks now at positions bestI and bestJ are the initial
		// blocks whose colors sit there
		prog = append(prog, isl.Swap{A: blocks[colorOrigin[bestI]].ID, B: blocks[colorOrigin[bestJ]].ID})
		colorOrigin[bestI], colorOrigin[bestJ] = colorOrigin[bestJ], colorOrigin[bestI]
	}
	return prog
}
