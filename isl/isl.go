// package isl implements the data model for the Instruction Sequence
// Language: block identifiers, the five move kinds and their text form.
package isl

import (
	"fmt"
	"math"
	"strings"
)

// Color is an RGBA color with each channel in [0, 1].
type Color struct {
	R, G, B, A float32
}

// InvalidColor marks blocks whose color is undefined, e.g. the result
// of a merge before it has been painted.
var InvalidColor = Color{-1, -1, -1, -1}

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
)

func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

func (c Color) Sub(o Color) Color {
	return Color{c.R - o.R, c.G - o.G, c.B - o.B, c.A - o.A}
}

func (c Color) Scale(f float32) Color {
	return Color{c.R * f, c.G * f, c.B * f, c.A * f}
}

func (c Color) LengthSq() float32 {
	return c.R*c.R + c.G*c.G + c.B*c.B + c.A*c.A
}

func (c Color) IsInvalid() bool {
	return c.R < 0
}

func round255(f float32) int32 {
	return int32(math.Round(float64(f) * 255.0))
}

func (c Color) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", round255(c.R), round255(c.G), round255(c.B), round255(c.A))
}

// Point is a pixel coordinate or size. The canvas origin is the bottom
// left corner; Y grows upward.
type Point struct {
	X, Y int32
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

func (p Point) String() string {
	return fmt.Sprintf("[%d, %d]", p.X, p.Y)
}

// BlockId identifies a block as the path from its root ancestor: a cut
// appends the child index, a merge starts a fresh single-element id.
// The empty id is a placeholder for moves whose target is not yet known.
type BlockId []uint16

func (b BlockId) Child(i uint16) BlockId {
	c := make(BlockId, len(b)+1)
	copy(c, b)
	c[len(b)] = i
	return c
}

func (b BlockId) Clone() BlockId {
	c := make(BlockId, len(b))
	copy(c, b)
	return c
}

func (b BlockId) Equal(o BlockId) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether b is a strict prefix of target, i.e.
// whether target was produced by cutting b (possibly repeatedly).
func (b BlockId) IsAncestorOf(target BlockId) bool {
	if len(b) >= len(target) {
		return false
	}
	for i := range b {
		if b[i] != target[i] {
			return false
		}
	}
	return true
}

// Compare orders ids lexicographically. Rasterization relies on this
// order so that a merge result paints after its constituents.
func (b BlockId) Compare(o BlockId) int {
	n := min(len(b), len(o))
	for i := 0; i < n; i++ {
		if b[i] != o[i] {
			if b[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(b) < len(o):
		return -1
	case len(b) > len(o):
		return 1
	}
	return 0
}

// Key returns a form usable as a map key.
func (b BlockId) Key() string {
	var sb strings.Builder
	for i, x := range b {
		if i != 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%d", x)
	}
	return sb.String()
}

func (b BlockId) String() string {
	return "[" + b.Key() + "]"
}

// Orientation selects the axis of an LCut.
type Orientation uint8

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "[X]"
	}
	return "[Y]"
}

// Move is one ISL instruction. The concrete types are PCut, LCut,
// ColorMove, Swap and Merge.
type Move interface {
	fmt.Stringer
	isMove()
}

// PCut splits a block four ways at an interior point. Children are
// numbered counterclockwise from the bottom left: BL, BR, TR, TL.
type PCut struct {
	BlockID BlockId
	Point   Point
}

// LCut splits a block in two at an absolute coordinate line.
// Child 0 is the left (resp. bottom) part.
type LCut struct {
	BlockID     BlockId
	Orientation Orientation
	Line        int32
}

// ColorMove paints a block with a solid color.
type ColorMove struct {
	BlockID BlockId
	Color   Color
}

// Swap exchanges the positions of two equally sized blocks.
type Swap struct {
	A, B BlockId
}

// Merge replaces two adjacent blocks by their union under a fresh id.
type Merge struct {
	A, B BlockId
}

func (PCut) isMove()      {}
func (LCut) isMove()      {}
func (ColorMove) isMove() {}
func (Swap) isMove()      {}
func (Merge) isMove()     {}

func (m PCut) String() string {
	return fmt.Sprintf("cut %s %s", m.BlockID, m.Point)
}

func (m LCut) String() string {
	return fmt.Sprintf("cut %s %s [%d]", m.BlockID, m.Orientation, m.Line)
}

func (m ColorMove) String() string {
	return fmt.Sprintf("color %s %s", m.BlockID, m.Color)
}

func (m Swap) String() string {
	return fmt.Sprintf("swap %s %s", m.A, m.B)
}

func (m Merge) String() string {
	return fmt.Sprintf("merge %s %s", m.A, m.B)
}

// WithBlockID returns a copy of m retargeted at id. Swap and Merge
// have no single target and panic.
func WithBlockID(m Move, id BlockId) Move {
	switch mv := m.(type) {
	case PCut:
		mv.BlockID = id.Clone()
		return mv
	case LCut:
		mv.BlockID = id.Clone()
		return mv
	case ColorMove:
		mv.BlockID = id.Clone()
		return mv
	}
	panic(fmt.Sprintf("isl: can't retarget %T", m))
}

// Program is an ordered move sequence, executed left to right.
type Program []Move

func (p Program) String() string {
	var sb strings.Builder
	for _, m := range p {
		sb.WriteString(m.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (p Program) Clone() Program {
	q := make(Program, len(p))
	copy(q, p)
	return q
}

// RemoveRedundantColorMoves drops every ColorMove that is later
// overwritten by another ColorMove on the same block.
func (p Program) RemoveRedundantColorMoves() Program {
	colored := map[string]struct{}{}
	ret := make(Program, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		if c, ok := p[i].(ColorMove); ok {
			key := c.BlockID.Key()
			if _, seen := colored[key]; seen {
				continue
			}
			colored[key] = struct{}{}
		}
		ret = append(ret, p[i])
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}
