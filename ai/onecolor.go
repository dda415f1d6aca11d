package ai

import (
	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("OneColor", func(Options) (HeadAI, error) {
		return &OneColorAI{}, nil
	})
}

// OneColorAI paints the whole canvas with the image's mean color. A
// baseline, and the cheapest valid program after the empty one.
type OneColorAI struct{}

func (a *OneColorAI) Solve(img *raster.Image, _ *simulator.State) isl.Program {
	var sum isl.Color
	for _, row := range img.Pix {
		for _, c := range row {
			sum = sum.Add(c)
		}
	}
	color := sum.Scale(1.0 / float32(img.Area()))
	return isl.Program{
		isl.ColorMove{BlockID: isl.BlockId{0}, Color: color},
	}
}
