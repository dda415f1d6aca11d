package ai

import (
	"sort"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

// MergeAI collapses a multi-block initial partition into a single
// block so that the cut-based planners can work on it. Other planners
// invoke it directly; it is not registered by name.
type MergeAI struct {
	state *simulator.State
}

func NewMergeAI() *MergeAI {
	return &MergeAI{}
}

func (a *MergeAI) Solve(_ *raster.Image, initial *simulator.State) isl.Program {
	a.state = initial.Clone()
	var ret isl.Program
	for a.activeBlockNum() > 1 {
		// scan bottom-left to top-right for the first mergeable pair
		blocks := a.state.ActiveBlocks()
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].P.X != blocks[j].P.X {
				return blocks[i].P.X < blocks[j].P.X
			}
			return blocks[i].P.Y < blocks[j].P.Y
		})
		var mv isl.Move
		for i := 0; i < len(blocks) && mv == nil; i++ {
			for j := i + 1; j < len(blocks); j++ {
				if simulator.MergeBlock(blocks[i], blocks[j]) != nil {
					mv = isl.Merge{A: blocks[i].ID, B: blocks[j].ID}
					break
				}
			}
		}
		if mv == nil {
			panic("ai: can't find a mergeable block pair")
		}
		ret = append(ret, mv)
		if !simulator.Simulate(a.state, mv) {
			panic("ai: merge move rejected by the simulator")
		}
	}
	ret = append(ret, isl.ColorMove{BlockID: a.MergedBlockID(), Color: isl.White})
	return ret
}

func (a *MergeAI) activeBlockNum() int {
	return len(a.state.ActiveBlocks())
}

// MergedBlockID is the identifier left once everything is merged.
func (a *MergeAI) MergedBlockID() isl.BlockId {
	blocks := a.state.ActiveBlocks()
	if len(blocks) != 1 {
		panic("ai: merge is not finished")
	}
	return blocks[0].ID
}
