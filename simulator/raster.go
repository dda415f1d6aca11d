package simulator

import (
	"math"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
)

// rasterizeBlock paints the block into img, clipped to the rectangle
// at p of the given size. Deleted blocks and blocks without a valid
// color paint nothing; Merged blocks still paint, so a merge result
// with InvalidColor leaves its constituents' pixels visible.
func rasterizeBlock(b *SimpleBlock, p, size isl.Point, img *raster.Image) {
	if b.State == Deleted || b.Color.IsInvalid() {
		return
	}
	w := min(int(p.X+size.X), img.Width())
	h := min(int(p.Y+size.Y), img.Height())
	t := max(int(p.Y), int(b.P.Y))
	bottom := min(h, int(b.P.Y+b.Size.Y))
	l := max(int(p.X), int(b.P.X))
	r := min(w, int(b.P.X+b.Size.X))
	for y := t; y < bottom; y++ {
		row := img.Pix[y]
		for x := l; x < r; x++ {
			row[x] = b.Color
		}
	}
}

// RasterizeState renders the whole canvas for the state.
func RasterizeState(s *State, w, h int) *raster.Image {
	img := raster.New(w, h)
	RasterizePartialInto(img, s, isl.Point{0, 0}, isl.Point{int32(w), int32(h)})
	return img
}

// RasterizePartialInto repaints the clipping rectangle of img from the
// state, in canonical ascending id order.
func RasterizePartialInto(img *raster.Image, s *State, p, size isl.Point) {
	for y := max(int(p.Y), 0); y < min(int(p.Y+size.Y), img.Height()); y++ {
		row := img.Pix[y]
		for x := max(int(p.X), 0); x < min(int(p.X+size.X), img.Width()); x++ {
			row[x] = isl.White
		}
	}
	for _, b := range s.SortedBlocks() {
		rasterizeBlock(b, p, size, img)
	}
}

// pixelDistance is the Euclidean norm of the channel differences after
// scaling to 0..255 and rounding each channel. The float32 math here
// is part of the scoring contract.
func pixelDistance(a, b isl.Color) float64 {
	d := a.Sub(b)
	dr := float32(math.Round(float64(d.R) * 255.0))
	dg := float32(math.Round(float64(d.G) * 255.0))
	db := float32(math.Round(float64(d.B) * 255.0))
	da := float32(math.Round(float64(d.A) * 255.0))
	sq := dr*dr + dg*dg + db*db + da*da
	return float64(float32(math.Sqrt(float64(sq))))
}

// CalcStateSimilarity scores the full canvas against the target.
func CalcStateSimilarity(s *State, target *raster.Image) int64 {
	w, h := target.Width(), target.Height()
	return CalcPartialStateSimilarity(isl.Point{0, 0}, isl.Point{int32(w), int32(h)}, s, target)
}

// CalcPartialStateSimilarity scores only the clipping rectangle.
func CalcPartialStateSimilarity(p, size isl.Point, s *State, target *raster.Image) int64 {
	img := raster.New(target.Width(), target.Height())
	for _, b := range s.SortedBlocks() {
		rasterizeBlock(b, p, size, img)
	}
	return CalcPartialImageSimilarity(p, size, img, target)
}

// CalcPartialImageSimilarity scores a rectangle of an already
// rasterized canvas against the target.
func CalcPartialImageSimilarity(p, size isl.Point, img, target *raster.Image) int64 {
	similarity := 0.0
	for y := p.Y; y < p.Y+size.Y; y++ {
		for x := p.X; x < p.X+size.X; x++ {
			similarity += pixelDistance(img.Pix[y][x], target.Pix[y][x])
		}
	}
	return int64(math.Round(similarity * 0.005))
}

// CalcPartialOneColorSimilarity scores a rectangle as if it were
// filled with a single color, clipped to the target extent.
func CalcPartialOneColorSimilarity(p, size isl.Point, color isl.Color, target *raster.Image) int64 {
	similarity := 0.0
	for y := p.Y; y < min(p.Y+size.Y, int32(target.Height())); y++ {
		for x := p.X; x < min(p.X+size.X, int32(target.Width())); x++ {
			similarity += pixelDistance(color, target.Pix[y][x])
		}
	}
	return int64(math.Round(similarity * 0.005))
}

// CalcScore is the total score of a program: the sum of move costs
// over the prefix states plus the final full-canvas similarity.
func CalcScore(prog isl.Program, target *raster.Image, initial *State) (int64, error) {
	w, h := target.Width(), target.Height()
	s := initial.Clone()
	var cost int64
	for i, mv := range prog {
		c, ok := MoveCost(s, mv, w, h)
		if !ok {
			return 0, invalidMove(i+1, mv, s)
		}
		cost += c
		if !Simulate(s, mv) {
			return 0, invalidMove(i+1, mv, s)
		}
	}
	cost += CalcStateSimilarity(s, target)
	return cost, nil
}
