// Package preview shows the target image and the solver's canvas side
// by side in a window. Display only; the program is already written
// out by the time the window opens.
package preview

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/seikichi/icfpc2022/raster"
)

type viewer struct {
	target *ebiten.Image
	result *ebiten.Image
	w, h   int
}

// Show opens a window with the target on the left and the rendered
// result on the right, and blocks until it is closed.
func Show(target, result *raster.Image, title string) error {
	v := &viewer{
		target: toEbitenImage(target),
		result: toEbitenImage(result),
		w:      target.Width(),
		h:      target.Height(),
	}
	ebiten.SetWindowSize(v.w*2, v.h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(v)
}

// Update is part of the ebiten.Game interface. There is nothing to
// advance; the window close button ends the loop.
func (v *viewer) Update() error {
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.DrawImage(v.target, nil)
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(v.w), 0)
	screen.DrawImage(v.result, &op)
}

// Layout returns the fixed side-by-side resolution so ebiten scales
// the display when the window size changes.
func (v *viewer) Layout(w, h int) (int, int) {
	return v.w * 2, v.h
}

func toEbitenImage(img *raster.Image) *ebiten.Image {
	w, h := img.Width(), img.Height()
	std := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[h-y-1]
		for x := 0; x < w; x++ {
			i := std.PixOffset(x, y)
			c := row[x]
			std.Pix[i+0] = channelByte(c.R)
			std.Pix[i+1] = channelByte(c.G)
			std.Pix[i+2] = channelByte(c.B)
			std.Pix[i+3] = channelByte(c.A)
		}
	}
	return ebiten.NewImageFromImage(std)
}

func channelByte(f float32) uint8 {
	v := int(f*255.0 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
