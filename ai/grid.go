package ai

import (
	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("Grid", func(Options) (HeadAI, error) {
		return &GridAI{Rows: 4, Cols: 4}, nil
	})
}

// GridAI cuts the canvas into a regular grid and paints every cell
// with its average color. It assumes the single-block initial state.
type GridAI struct {
	Rows, Cols int
}

func (a *GridAI) Solve(img *raster.Image, _ *simulator.State) isl.Program {
	height := img.Height()
	width := img.Width()

	var result isl.Program
	gridHeight := int32(height / a.Rows)
	gridWidth := int32(width / a.Cols)

	blockID := isl.BlockId{0}

	// Cut off one row at a time with a horizontal LCut; child 0 is the
	// row itself, child 1 is the rest of the canvas.
	for i := 1; i <= a.Rows; i++ {
		if i < a.Rows {
			result = append(result, isl.LCut{
				BlockID:     blockID,
				Orientation: isl.Horizontal,
				Line:        gridHeight * int32(i),
			})
		}

		xBlockID := blockID
		if i < a.Rows {
			// the id grows only where a cut happened
			xBlockID = blockID.Child(0)
		}
		for j := 1; j <= a.Cols; j++ {
			if j < a.Cols {
				result = append(result, isl.LCut{
					BlockID:     xBlockID,
					Orientation: isl.Vertical,
					Line:        gridWidth * int32(j),
				})
				xBlockID = xBlockID.Child(0)
			}
			yFrom := gridHeight * int32(i-1)
			xFrom := gridWidth * int32(j-1)
			var sum isl.Color
			for y := yFrom; y < yFrom+gridHeight; y++ {
				for x := xFrom; x < xFrom+gridWidth; x++ {
					sum = sum.Add(img.Pix[y][x])
				}
			}
			result = append(result, isl.ColorMove{
				BlockID: xBlockID,
				Color:   sum.Scale(1.0 / float32(gridHeight*gridWidth)),
			})

			if j < a.Cols {
				xBlockID = xBlockID[:len(xBlockID)-1].Child(1)
			}
		}
		blockID = blockID.Child(1)
	}

	return result
}
