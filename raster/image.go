// package raster implements the dense RGBA image model shared by the
// simulator and the planners. Pixels are stored [y][x] with row 0 at
// the bottom of the canvas; files are flipped on load and save.
package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/seikichi/icfpc2022/isl"
)

type Image struct {
	Pix [][]isl.Color // Pix[y][x], y=0 is the canvas bottom
}

// New returns a w x h image filled with white, the blank-canvas color.
func New(w, h int) *Image {
	pix := make([][]isl.Color, h)
	for y := range pix {
		row := make([]isl.Color, w)
		for x := range row {
			row[x] = isl.White
		}
		pix[y] = row
	}
	return &Image{Pix: pix}
}

func (m *Image) Width() int {
	return len(m.Pix[0])
}

func (m *Image) Height() int {
	return len(m.Pix)
}

func (m *Image) Area() int {
	return m.Width() * m.Height()
}

func (m *Image) Clone() *Image {
	pix := make([][]isl.Color, len(m.Pix))
	for y, row := range m.Pix {
		pix[y] = make([]isl.Color, len(row))
		copy(pix[y], row)
	}
	return &Image{Pix: pix}
}

// Average returns the mean color over the rectangle at p of the given
// size.
func (m *Image) Average(p, size isl.Point) isl.Color {
	var sum isl.Color
	for y := p.Y; y < p.Y+size.Y; y++ {
		for x := p.X; x < p.X+size.X; x++ {
			sum = sum.Add(m.Pix[y][x])
		}
	}
	return sum.Scale(1.0 / float32(size.X*size.Y))
}

// Majority returns the most frequent color over the rectangle.
func (m *Image) Majority(p, size isl.Point) isl.Color {
	counts := map[isl.Color]int{}
	for y := p.Y; y < p.Y+size.Y; y++ {
		for x := p.X; x < p.X+size.X; x++ {
			counts[m.Pix[y][x]]++
		}
	}
	best := isl.Color{}
	bestCount := 0
	for y := p.Y; y < p.Y+size.Y; y++ {
		for x := p.X; x < p.X+size.X; x++ {
			c := m.Pix[y][x]
			if counts[c] > bestCount {
				bestCount = counts[c]
				best = c
			}
		}
	}
	return best
}

// Load decodes an image file into the canvas orientation (row 0 at the
// bottom).
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open image %q: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode image %q: %w", path, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	result := New(w, h)
	for sy := 0; sy < h; sy++ {
		y := h - sy - 1
		for x := 0; x < w; x++ {
			// NRGBA keeps the alpha channel straight, not premultiplied
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+sy)).(color.NRGBA)
			result.Pix[y][x] = isl.Color{
				R: float32(c.R) / 255.0,
				G: float32(c.G) / 255.0,
				B: float32(c.B) / 255.0,
				A: float32(c.A) / 255.0,
			}
		}
	}
	return result, nil
}

var fixtureColors = map[byte]isl.Color{
	'.': isl.White,
	'#': isl.Black,
	'r': {1, 0, 0, 1},
	'g': {0, 1, 0, 1},
	'b': {0, 0, 1, 1},
	'z': {0, 0, 0, 0},
}

// FromStringArray builds a small test image. Rows are given top to
// bottom the way they read on screen; '.'=white '#'=black 'r' 'g' 'b'
// primaries, 'z'=transparent, anything else mid gray.
func FromStringArray(rows []string) *Image {
	h := len(rows)
	w := len(rows[0])
	m := New(w, h)
	for i, row := range rows {
		y := h - i - 1
		for x := 0; x < w; x++ {
			c, ok := fixtureColors[row[x]]
			if !ok {
				c = isl.Color{0.5, 0.5, 0.5, 1}
			}
			m.Pix[y][x] = c
		}
	}
	return m
}

// String renders the image with the FromStringArray alphabet, top row
// first. Non-alphabet colors come out as 'x'.
func (m *Image) String() string {
	var sb strings.Builder
	for y := m.Height() - 1; y >= 0; y-- {
		for x := 0; x < m.Width(); x++ {
			c := m.Pix[y][x]
			ch := byte('x')
			for k, v := range fixtureColors {
				if quantize(c) == quantize(v) {
					ch = k
					break
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func quantize(c isl.Color) [4]int32 {
	r := c.Scale(255)
	return [4]int32{int32(r.R + 0.5), int32(r.G + 0.5), int32(r.B + 0.5), int32(r.A + 0.5)}
}

func (m *Image) Equal(o *Image) bool {
	if m.Width() != o.Width() || m.Height() != o.Height() {
		return false
	}
	for y := range m.Pix {
		for x := range m.Pix[y] {
			if m.Pix[y][x] != o.Pix[y][x] {
				return false
			}
		}
	}
	return true
}
