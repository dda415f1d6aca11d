// Package render writes solver results to PNG files through the gg
// canvas. The scoring raster stays pixel-authoritative; rendering only
// converts it (or a block partition overlay) to screen orientation.
package render

import (
	"github.com/gogpu/gg"

	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

// WritePNG saves the canvas exactly as rasterized, flipped back to
// screen orientation (row 0 on top).
func WritePNG(img *raster.Image, path string) error {
	w, h := img.Width(), img.Height()
	dc := gg.NewContext(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[h-y-1]
		for x := 0; x < w; x++ {
			c := row[x]
			dc.SetPixel(x, y, gg.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
		}
	}
	return dc.SavePNG(path)
}

// WriteOverlayPNG saves the canvas with the Active block boundaries
// stroked on top, a debugging view of the final partition.
func WriteOverlayPNG(img *raster.Image, state *simulator.State, path string) error {
	w, h := img.Width(), img.Height()
	dc := gg.NewContext(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[h-y-1]
		for x := 0; x < w; x++ {
			c := row[x]
			dc.SetPixel(x, y, gg.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
		}
	}

	dc.SetRGBA(1, 0, 1, 0.8)
	dc.SetLineWidth(1)
	for _, b := range state.ActiveBlocks() {
		// flip to screen coordinates: the block top edge is at
		// canvas y = P.Y + Size.Y
		sy := float64(h) - float64(b.P.Y+b.Size.Y)
		dc.DrawRectangle(float64(b.P.X), sy, float64(b.Size.X), float64(b.Size.Y))
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return dc.SavePNG(path)
}
