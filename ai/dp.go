package ai

import (
	"math/rand"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerHead("DP", func(opts Options) (HeadAI, error) {
		return NewDpAI(opts.DpDivideNum, opts.DpColorNum, opts.Rand), nil
	})
}

// DpAI partitions a single block on a divideNum x divideNum grid and
// searches recursive cut/color assignments by dynamic programming over
// grid cells. Multi-block initial states are merged into one block
// first. Blocks narrower or shorter than the grid produce no moves.
type DpAI struct {
	divideNum int
	colorNum  int
	rng       *rand.Rand
}

func NewDpAI(divideNum, colorNum int, rng *rand.Rand) *DpAI {
	return &DpAI{divideNum: divideNum, colorNum: colorNum, rng: rng}
}

func (a *DpAI) Solve(img *raster.Image, initial *simulator.State) isl.Program {
	var ret isl.Program
	cur := initial.Clone()
	var blockID isl.BlockId
	if len(initial.Blocks) != 1 {
		mergeAI := NewMergeAI()
		ret = mergeAI.Solve(img, initial)
		blockID = mergeAI.MergedBlockID()
		var err error
		cur, err = simulator.SimulateAll(ret, initial)
		if err != nil {
			panic("ai: merge program rejected by the simulator")
		}
	} else {
		for _, b := range cur.Blocks {
			blockID = b.ID
		}
	}
	block, ok := cur.Get(blockID)
	if !ok {
		panic("ai: dp target block missing")
	}

	d := a.divideNum
	if int(block.Size.X) < d || int(block.Size.Y) < d {
		return ret
	}

	samples := raster.KMeansColorSampling(img, a.colorNum-1, 20,
		int(block.P.X), int(block.P.Y), int(block.Size.X), int(block.Size.Y), a.rng)
	// slot 0 stands for "the block's current contents"; slot 1 is the
	// block's own color so keeping it stays representable.
	colors := append([]isl.Color{isl.InvalidColor, block.Color}, samples...)

	s := newDpSolver(d, colors, block, img, simulator.RasterizeState(cur, img.Width(), img.Height()), cur.CostCoeffVersion)
	s.calc(0, 0, d, d, 0)

	var prog isl.Program
	s.restore(&prog, 0, 0, d, d, 0, blockID)
	return append(ret, prog...)
}

type dpChild struct {
	x, y, w, h, colorID int
}

type dpEntry struct {
	cost   int64
	moves  []isl.Move
	childs []dpChild
	known  bool
}

type dpSolver struct {
	d            int
	colors       []isl.Color
	block        *simulator.SimpleBlock
	cellW, cellH int32
	target       *raster.Image
	initialImage *raster.Image
	version      uint8
	memo         [][][][][]dpEntry
	simMemo      [][][]simMemoCell
}

type simMemoCell struct {
	value int64
	known bool
}

func newDpSolver(d int, colors []isl.Color, block *simulator.SimpleBlock,
	target, initialImage *raster.Image, version uint8) *dpSolver {
	nc := len(colors)
	memo := make([][][][][]dpEntry, d)
	simMemo := make([][][]simMemoCell, d)
	for x := 0; x < d; x++ {
		memo[x] = make([][][][]dpEntry, d)
		simMemo[x] = make([][]simMemoCell, d)
		for y := 0; y < d; y++ {
			memo[x][y] = make([][][]dpEntry, d+1)
			simMemo[x][y] = make([]simMemoCell, nc)
			for w := 0; w <= d; w++ {
				memo[x][y][w] = make([][]dpEntry, d+1)
				for h := 0; h <= d; h++ {
					memo[x][y][w][h] = make([]dpEntry, nc)
				}
			}
		}
	}
	return &dpSolver{
		d:            d,
		colors:       colors,
		block:        block,
		cellW:        block.Size.X / int32(d),
		cellH:        block.Size.Y / int32(d),
		target:       target,
		initialImage: initialImage,
		version:      version,
		memo:         memo,
		simMemo:      simMemo,
	}
}

// cellRect is the pixel rectangle of the grid cells [x, x+w) x [y, y+h).
// The far edges of the grid absorb the division remainder.
func (s *dpSolver) cellRect(x, y, w, h int) (isl.Point, isl.Point) {
	l := s.block.P.X + int32(x)*s.cellW
	b := s.block.P.Y + int32(y)*s.cellH
	r := s.block.P.X + int32(x+w)*s.cellW
	if x+w == s.d {
		r = s.block.P.X + s.block.Size.X
	}
	t := s.block.P.Y + int32(y+h)*s.cellH
	if y+h == s.d {
		t = s.block.P.Y + s.block.Size.Y
	}
	return isl.Point{l, b}, isl.Point{r - l, t - b}
}

// gridPoint is the pixel coordinate of grid corner (x, y).
func (s *dpSolver) gridPoint(x, y int) isl.Point {
	return isl.Point{
		s.block.P.X + int32(x)*s.cellW,
		s.block.P.Y + int32(y)*s.cellH,
	}
}

func (s *dpSolver) moveCost(mv isl.Move, x, y, w, h int) int64 {
	_, size := s.cellRect(x, y, w, h)
	return simulator.MoveCostWithoutState(mv, int(size.X*size.Y),
		s.target.Width(), s.target.Height(), s.version)
}

// calc returns the best cost + similarity for the sub-grid (x,y,w,h)
// assuming its pixels currently show colors[colorID] (or, for slot 0,
// the block's original contents).
func (s *dpSolver) calc(x, y, w, h, colorID int) int64 {
	if s.memo[x][y][w][h][colorID].known {
		return s.memo[x][y][w][h][colorID].cost
	}

	best := dpEntry{cost: s.calcSimilarity(x, y, w, h, colorID), known: true}

	for c := range s.colors {
		var prefix []isl.Move
		var prefixCost int64
		if c != colorID {
			if s.colors[c].IsInvalid() {
				continue
			}
			colorMv := isl.ColorMove{Color: s.colors[c]}
			prefix = []isl.Move{colorMv}
			prefixCost = s.moveCost(colorMv, x, y, w, h)

			if total := prefixCost + s.calcSimilarity(x, y, w, h, c); total < best.cost {
				best = dpEntry{cost: total, moves: prefix, known: true}
			}
		}

		for lw := 1; lw < w; lw++ {
			for lh := 1; lh < h; lh++ {
				cut := isl.PCut{Point: s.gridPoint(x+lw, y+lh)}
				total := prefixCost + s.moveCost(cut, x, y, w, h)
				childs := []dpChild{
					{x, y, lw, lh, c},
					{x + lw, y, w - lw, lh, c},
					{x + lw, y + lh, w - lw, h - lh, c},
					{x, y + lh, lw, h - lh, c},
				}
				for _, ch := range childs {
					total += s.calc(ch.x, ch.y, ch.w, ch.h, ch.colorID)
				}
				if total < best.cost {
					best = dpEntry{cost: total, moves: appendMove(prefix, cut), childs: childs, known: true}
				}
			}
		}

		for lw := 1; lw < w; lw++ {
			cut := isl.LCut{Orientation: isl.Vertical, Line: s.gridPoint(x+lw, y).X}
			total := prefixCost + s.moveCost(cut, x, y, w, h)
			childs := []dpChild{
				{x, y, lw, h, c},
				{x + lw, y, w - lw, h, c},
			}
			for _, ch := range childs {
				total += s.calc(ch.x, ch.y, ch.w, ch.h, ch.colorID)
			}
			if total < best.cost {
				best = dpEntry{cost: total, moves: appendMove(prefix, cut), childs: childs, known: true}
			}
		}

		for lh := 1; lh < h; lh++ {
			cut := isl.LCut{Orientation: isl.Horizontal, Line: s.gridPoint(x, y+lh).Y}
			total := prefixCost + s.moveCost(cut, x, y, w, h)
			childs := []dpChild{
				{x, y, w, lh, c},
				{x, y + lh, w, h - lh, c},
			}
			for _, ch := range childs {
				total += s.calc(ch.x, ch.y, ch.w, ch.h, ch.colorID)
			}
			if total < best.cost {
				best = dpEntry{cost: total, moves: appendMove(prefix, cut), childs: childs, known: true}
			}
		}
	}

	s.memo[x][y][w][h][colorID] = best
	return best.cost
}

func appendMove(prefix []isl.Move, mv isl.Move) []isl.Move {
	moves := make([]isl.Move, 0, len(prefix)+1)
	moves = append(moves, prefix...)
	return append(moves, mv)
}

// calcSimilarity sums the per-unit-cell similarity of the sub-grid
// against the target, assuming fill color colors[colorID]. Slot 0
// compares the original rasterized contents instead.
func (s *dpSolver) calcSimilarity(x, y, w, h, colorID int) int64 {
	var ret int64
	for dx := 0; dx < w; dx++ {
		for dy := 0; dy < h; dy++ {
			nx, ny := x+dx, y+dy
			if cell := s.simMemo[nx][ny][colorID]; cell.known {
				ret += cell.value
				continue
			}
			p, size := s.cellRect(nx, ny, 1, 1)
			var v int64
			if s.colors[colorID].IsInvalid() {
				v = simulator.CalcPartialImageSimilarity(p, size, s.initialImage, s.target)
			} else {
				v = simulator.CalcPartialOneColorSimilarity(p, size, s.colors[colorID], s.target)
			}
			s.simMemo[nx][ny][colorID] = simMemoCell{value: v, known: true}
			ret += v
		}
	}
	return ret
}

// restore walks the memo emitting the stored moves, rewriting their
// placeholder ids to the running block id prefix.
func (s *dpSolver) restore(prog *isl.Program, x, y, w, h, colorID int, blockID isl.BlockId) {
	e := s.memo[x][y][w][h][colorID]
	if !e.known {
		panic("ai: dp memo miss during reconstruction")
	}
	for _, mv := range e.moves {
		*prog = append(*prog, isl.WithBlockID(mv, blockID))
	}
	for i, ch := range e.childs {
		s.restore(prog, ch.x, ch.y, ch.w, ch.h, ch.colorID, blockID.Child(uint16(i)))
	}
}
