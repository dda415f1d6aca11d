// package simulator implements the authoritative execution model for
// ISL programs: block bookkeeping, move costs, rasterization and
// similarity scoring. Planners treat it as the single source of truth
// for program validity.
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/seikichi/icfpc2022/isl"
)

// BlockState is the lifecycle state of a block. Only Active blocks
// participate in moves; Deleted and Merged blocks stay in the state for
// id bookkeeping and rendering order.
type BlockState uint8

const (
	Active BlockState = iota
	Deleted
	Merged
)

func (s BlockState) IsActive() bool {
	return s == Active
}

// SimpleBlock is an axis-aligned rectangle with a color and a
// lifecycle state. P is the bottom-left corner.
type SimpleBlock struct {
	ID    isl.BlockId
	P     isl.Point
	Size  isl.Point
	Color isl.Color
	State BlockState
}

func NewSimpleBlock(id isl.BlockId, p, size isl.Point, color isl.Color) *SimpleBlock {
	return &SimpleBlock{ID: id, P: p, Size: size, Color: color, State: Active}
}

func (b *SimpleBlock) Area() int32 {
	return b.Size.X * b.Size.Y
}

func (b *SimpleBlock) clone() *SimpleBlock {
	c := *b
	return &c
}

// State maps block ids to blocks. NextGlobalID numbers merge results;
// CostCoeffVersion selects one of the two base-cost tables.
type State struct {
	Blocks           map[string]*SimpleBlock
	NextGlobalID     uint16
	CostCoeffVersion uint8
}

// InitialState is the default single white block covering the canvas,
// with identifier [0].
func InitialState(w, h int32, costCoeffVersion uint8) *State {
	s := &State{
		Blocks:           map[string]*SimpleBlock{},
		NextGlobalID:     1,
		CostCoeffVersion: costCoeffVersion,
	}
	id := isl.BlockId{0}
	s.Blocks[id.Key()] = NewSimpleBlock(id, isl.Point{0, 0}, isl.Point{w, h}, isl.White)
	return s
}

func (s *State) Clone() *State {
	c := &State{
		Blocks:           make(map[string]*SimpleBlock, len(s.Blocks)),
		NextGlobalID:     s.NextGlobalID,
		CostCoeffVersion: s.CostCoeffVersion,
	}
	for k, b := range s.Blocks {
		c.Blocks[k] = b.clone()
	}
	return c
}

func (s *State) Get(id isl.BlockId) (*SimpleBlock, bool) {
	b, ok := s.Blocks[id.Key()]
	return b, ok
}

func (s *State) put(b *SimpleBlock) {
	s.Blocks[b.ID.Key()] = b
}

// BlockOnlyState extracts a State holding a single block, used when a
// planner works on one block in isolation.
func (s *State) BlockOnlyState(id isl.BlockId) *State {
	b, ok := s.Get(id)
	if !ok {
		panic(fmt.Sprintf("simulator: no block %v", id))
	}
	c := &State{
		Blocks:           map[string]*SimpleBlock{},
		NextGlobalID:     s.NextGlobalID,
		CostCoeffVersion: s.CostCoeffVersion,
	}
	c.put(b.clone())
	return c
}

// SortedBlocks returns all blocks in ascending id order, the canonical
// rasterization order: a merge result has a larger root component than
// its constituents and therefore paints after them.
func (s *State) SortedBlocks() []*SimpleBlock {
	blocks := make([]*SimpleBlock, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].ID.Compare(blocks[j].ID) < 0
	})
	return blocks
}

// ActiveBlocks returns the Active blocks in ascending id order.
func (s *State) ActiveBlocks() []*SimpleBlock {
	var blocks []*SimpleBlock
	for _, b := range s.SortedBlocks() {
		if b.State.IsActive() {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// SampleActiveBlock picks a uniformly random Active block.
func (s *State) SampleActiveBlock(rng *rand.Rand) isl.BlockId {
	blocks := s.ActiveBlocks()
	return blocks[rng.Intn(len(blocks))].ID
}

// MergeBlock computes the union block of two mergeable blocks, or nil
// when they do not share a full edge. The result carries InvalidColor:
// its true contents are whatever the constituents rendered.
func MergeBlock(a, b *SimpleBlock) *SimpleBlock {
	b1, b2 := a, b
	if b1.P.X > b2.P.X || b1.P.Y > b2.P.Y {
		b1, b2 = b2, b1
	}
	var size isl.Point
	if b1.P.X == b2.P.X {
		if b1.Size.X != b2.Size.X || b1.P.Y+b1.Size.Y != b2.P.Y {
			return nil
		}
		size = isl.Point{b1.Size.X, b1.Size.Y + b2.Size.Y}
	} else {
		if b1.P.Y != b2.P.Y || b1.Size.Y != b2.Size.Y || b1.P.X+b1.Size.X != b2.P.X {
			return nil
		}
		size = isl.Point{b1.Size.X + b2.Size.X, b1.Size.Y}
	}
	return NewSimpleBlock(nil, b1.P, size, isl.InvalidColor)
}

// Simulate applies one move to the state. It reports false, leaving
// the state untouched, when a precondition fails.
func Simulate(s *State, mv isl.Move) bool {
	switch m := mv.(type) {
	case isl.PCut:
		block, ok := s.Get(m.BlockID)
		if !ok || !block.State.IsActive() {
			return false
		}
		offset := m.Point.Sub(block.P)
		if offset.X <= 0 || offset.X >= block.Size.X || offset.Y <= 0 || offset.Y >= block.Size.Y {
			return false
		}
		dx := [4]int32{0, offset.X, offset.X, 0}
		dy := [4]int32{0, 0, offset.Y, offset.Y}
		nw := [4]int32{offset.X, block.Size.X - offset.X, block.Size.X - offset.X, offset.X}
		nh := [4]int32{offset.Y, offset.Y, block.Size.Y - offset.Y, block.Size.Y - offset.Y}
		for i := 0; i < 4; i++ {
			id := m.BlockID.Child(uint16(i))
			p := isl.Point{block.P.X + dx[i], block.P.Y + dy[i]}
			s.put(NewSimpleBlock(id, p, isl.Point{nw[i], nh[i]}, block.Color))
		}
		block.State = Deleted
		return true

	case isl.LCut:
		block, ok := s.Get(m.BlockID)
		if !ok || !block.State.IsActive() {
			return false
		}
		var offset int32
		if m.Orientation == isl.Horizontal {
			offset = m.Line - block.P.Y
			if offset <= 0 || offset >= block.Size.Y {
				return false
			}
			bottom := NewSimpleBlock(m.BlockID.Child(0), block.P, isl.Point{block.Size.X, offset}, block.Color)
			top := NewSimpleBlock(m.BlockID.Child(1),
				isl.Point{block.P.X, block.P.Y + offset},
				isl.Point{block.Size.X, block.Size.Y - offset}, block.Color)
			s.put(bottom)
			s.put(top)
		} else {
			offset = m.Line - block.P.X
			if offset <= 0 || offset >= block.Size.X {
				return false
			}
			left := NewSimpleBlock(m.BlockID.Child(0), block.P, isl.Point{offset, block.Size.Y}, block.Color)
			right := NewSimpleBlock(m.BlockID.Child(1),
				isl.Point{block.P.X + offset, block.P.Y},
				isl.Point{block.Size.X - offset, block.Size.Y}, block.Color)
			s.put(left)
			s.put(right)
		}
		block.State = Deleted
		return true

	case isl.ColorMove:
		block, ok := s.Get(m.BlockID)
		if !ok || !block.State.IsActive() {
			return false
		}
		block.Color = m.Color
		return true

	case isl.Swap:
		a, ok := s.Get(m.A)
		if !ok || !a.State.IsActive() {
			return false
		}
		b, ok := s.Get(m.B)
		if !ok || !b.State.IsActive() {
			return false
		}
		if a.Size != b.Size {
			return false
		}
		a.P, b.P = b.P, a.P
		return true

	case isl.Merge:
		a, ok := s.Get(m.A)
		if !ok || !a.State.IsActive() {
			return false
		}
		b, ok := s.Get(m.B)
		if !ok || !b.State.IsActive() {
			return false
		}
		merged := MergeBlock(a, b)
		if merged == nil {
			return false
		}
		merged.ID = isl.BlockId{s.NextGlobalID}
		s.put(merged)
		s.NextGlobalID++
		a.State = Merged
		b.State = Merged
		return true
	}
	return false
}

// InvalidMoveError reports a simulator precondition violation. Line
// numbers are 1-based.
type InvalidMoveError struct {
	Line  int
	Move  isl.Move
	Block *SimpleBlock
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("line %d: %s is invalid", e.Line, e.Move)
}

func invalidMove(line int, mv isl.Move, s *State) *InvalidMoveError {
	e := &InvalidMoveError{Line: line, Move: mv}
	switch m := mv.(type) {
	case isl.PCut:
		e.Block, _ = s.Get(m.BlockID)
	case isl.LCut:
		e.Block, _ = s.Get(m.BlockID)
	case isl.ColorMove:
		e.Block, _ = s.Get(m.BlockID)
	}
	return e
}

// SimulatePartial applies the moves in order, mutating the state.
func SimulatePartial(s *State, moves []isl.Move) error {
	for i, mv := range moves {
		if !Simulate(s, mv) {
			return invalidMove(i+1, mv, s)
		}
	}
	return nil
}

// SimulateAll executes a whole program from a copy of the initial
// state and returns the resulting state.
func SimulateAll(prog isl.Program, initial *State) (*State, error) {
	s := initial.Clone()
	if err := SimulatePartial(s, prog); err != nil {
		return nil, err
	}
	return s, nil
}

// costCoeffTable rows are cost-coefficient versions; columns are
// PCut, LCut, Color, Swap, Merge.
var costCoeffTable = [2][5]float32{
	{10.0, 7.0, 5.0, 3.0, 1.0},
	{3.0, 2.0, 5.0, 3.0, 1.0},
}

func moveKind(mv isl.Move) int {
	switch mv.(type) {
	case isl.PCut:
		return 0
	case isl.LCut:
		return 1
	case isl.ColorMove:
		return 2
	case isl.Swap:
		return 3
	case isl.Merge:
		return 4
	}
	panic(fmt.Sprintf("simulator: unknown move %T", mv))
}

// MoveCost prices a move against the current state on a w x h canvas.
// It reports false when the targeted block does not exist.
func MoveCost(s *State, mv isl.Move, w, h int) (int64, bool) {
	var area int32
	switch m := mv.(type) {
	case isl.PCut:
		b, ok := s.Get(m.BlockID)
		if !ok {
			return 0, false
		}
		area = b.Area()
	case isl.LCut:
		b, ok := s.Get(m.BlockID)
		if !ok {
			return 0, false
		}
		area = b.Area()
	case isl.ColorMove:
		b, ok := s.Get(m.BlockID)
		if !ok {
			return 0, false
		}
		area = b.Area()
	case isl.Swap:
		b, ok := s.Get(m.A)
		if !ok {
			return 0, false
		}
		area = b.Area()
	case isl.Merge:
		a, ok := s.Get(m.A)
		if !ok {
			return 0, false
		}
		b, ok := s.Get(m.B)
		if !ok {
			return 0, false
		}
		area = max(a.Area(), b.Area())
	}
	return MoveCostWithoutState(mv, int(area), w, h, s.CostCoeffVersion), true
}

// MoveCostWithoutState prices a move given the target area directly.
func MoveCostWithoutState(mv isl.Move, targetArea, w, h int, costCoeffVersion uint8) int64 {
	if targetArea <= 0 || w <= 0 || h <= 0 {
		panic("simulator: non-positive area in move cost")
	}
	base := costCoeffTable[costCoeffVersion][moveKind(mv)]
	return int64(math.Round(float64(base * float32(w*h) / float32(targetArea))))
}
