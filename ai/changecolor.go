package ai

import (
	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("ChangeColor", func(Options) (HeadAI, error) {
		return &ChangeColorAI{}, nil
	})
}

// ChangeColorAI recolors every initial block to the average of the
// target pixels it covers, without changing the partition.
type ChangeColorAI struct{}

func (a *ChangeColorAI) Solve(img *raster.Image, initial *simulator.State) isl.Program {
	var prog isl.Program
	for _, block := range initial.ActiveBlocks() {
		prog = append(prog, isl.ColorMove{
			BlockID: block.ID,
			Color:   img.Average(block.P, block.Size),
		})
	}
	return prog
}
