package ai

import (
	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("Cross", func(Options) (HeadAI, error) {
		return &CrossAI{Size: 3}, nil
	})
}

// CrossAI recursively PCuts the canvas at the center down to a fixed
// depth and paints each leaf with its average color. Subtrees that end
// up a single color collapse back into one Color move, and the most
// frequent leaf color is hoisted into a single root fill.
type CrossAI struct {
	Size int
}

func (a *CrossAI) draw(blockID isl.BlockId, img *raster.Image, min, max isl.Point, depth int) []isl.Move {
	if depth >= a.Size {
		var sum isl.Color
		for y := min.Y; y < max.Y; y++ {
			for x := min.X; x < max.X; x++ {
				sum = sum.Add(img.Pix[y][x])
			}
		}
		area := (max.X - min.X) * (max.Y - min.Y)
		return []isl.Move{isl.ColorMove{BlockID: blockID, Color: sum.Scale(1.0 / float32(area))}}
	}

	center := isl.Point{(min.X + max.X) / 2, (min.Y + max.Y) / 2}
	result := []isl.Move{isl.PCut{BlockID: blockID, Point: center}}

	corners := [4][2]isl.Point{
		{{min.X, min.Y}, {center.X, center.Y}},
		{{center.X, min.Y}, {max.X, center.Y}},
		{{center.X, center.Y}, {max.X, max.Y}},
		{{min.X, center.Y}, {center.X, max.Y}},
	}
	for i, c := range corners {
		result = append(result, a.draw(blockID.Child(uint16(i)), img, c[0], c[1], depth+1)...)
	}

	// all four children painted the same color: collapse the cut
	if len(result) == 5 {
		colors := make([]isl.Color, 0, 4)
		for _, mv := range result[1:] {
			if cm, ok := mv.(isl.ColorMove); ok {
				colors = append(colors, cm.Color)
			}
		}
		if len(colors) == 4 && colors[0] == colors[1] && colors[1] == colors[2] && colors[2] == colors[3] {
			return []isl.Move{isl.ColorMove{BlockID: blockID, Color: colors[0]}}
		}
	}

	return result
}

func (a *CrossAI) Solve(img *raster.Image, _ *simulator.State) isl.Program {
	w := int32(img.Width())
	h := int32(img.Height())

	result := a.draw(isl.BlockId{0}, img, isl.Point{0, 0}, isl.Point{w, h}, 0)

	// count leaf colors and hoist the most frequent one to the root
	counts := map[isl.Color]int{}
	for _, mv := range result {
		if cm, ok := mv.(isl.ColorMove); ok {
			counts[cm.Color]++
		}
	}
	var best isl.Color
	bestCount := 0
	for _, mv := range result {
		if cm, ok := mv.(isl.ColorMove); ok && counts[cm.Color] > bestCount {
			best = cm.Color
			bestCount = counts[cm.Color]
		}
	}
	if bestCount > 0 {
		refined := isl.Program{isl.ColorMove{BlockID: isl.BlockId{0}, Color: best}}
		for _, mv := range result {
			if cm, ok := mv.(isl.ColorMove); ok && cm.Color == best {
				continue
			}
			refined = append(refined, mv)
		}
		return refined
	}

	return isl.Program(result)
}
