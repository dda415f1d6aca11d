package simulator

import (
	"math"
	"testing"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
)

func mustSimulate(t *testing.T, s *State, moves ...isl.Move) {
	t.Helper()
	for _, mv := range moves {
		if !Simulate(s, mv) {
			t.Fatalf("Simulate(%v) failed", mv)
		}
	}
}

func TestSimulatePCut(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{1, 0, 0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: isl.Color{0, 1, 0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 3}, Color: isl.Color{0, 0, 1, 1}},
	)

	expected := raster.FromStringArray([]string{
		"bbggg",
		"bbggg",
		"rr...",
	})
	if actual := RasterizeState(s, 5, 3); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulatePCutTwice(t *testing.T) {
	s := InitialState(8, 8, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.PCut{BlockID: isl.BlockId{0, 1}, Point: isl.Point{6, 2}},
		isl.ColorMove{BlockID: isl.BlockId{0, 1, 0}, Color: isl.Color{0, 1, 0, 1}},
	)

	expected := raster.FromStringArray([]string{
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....gg..",
		"....gg..",
	})
	if actual := RasterizeState(s, 8, 8); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateLCutTwice(t *testing.T) {
	s := InitialState(8, 8, 0)
	mustSimulate(t, s,
		isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Horizontal, Line: 4},
		isl.LCut{BlockID: isl.BlockId{0, 1}, Orientation: isl.Horizontal, Line: 6},
		isl.ColorMove{BlockID: isl.BlockId{0, 1, 0}, Color: isl.Color{0, 1, 0, 1}},
	)

	expected := raster.FromStringArray([]string{
		"........",
		"........",
		"gggggggg",
		"gggggggg",
		"........",
		"........",
		"........",
		"........",
	})
	if actual := RasterizeState(s, 8, 8); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateSwap(t *testing.T) {
	s := InitialState(4, 3, 0)
	mustSimulate(t, s,
		isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 2},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{1, 0, 0, 1}},
		isl.Swap{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}},
	)

	expected := raster.FromStringArray([]string{
		"..rr",
		"..rr",
		"..rr",
	})
	if actual := RasterizeState(s, 4, 3); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateMergeVertically(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 1}},
		isl.Merge{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 3}},
		isl.ColorMove{BlockID: isl.BlockId{1}, Color: isl.Color{1, 0, 0, 1}},
	)

	expected := raster.FromStringArray([]string{
		"rr...",
		"rr...",
		"rr...",
	})
	if actual := RasterizeState(s, 5, 3); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateMergeHorizontally(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 1}},
		isl.Merge{A: isl.BlockId{0, 2}, B: isl.BlockId{0, 3}},
		isl.ColorMove{BlockID: isl.BlockId{1}, Color: isl.Color{1, 0, 0, 1}},
	)

	expected := raster.FromStringArray([]string{
		"rrrrr",
		"rrrrr",
		".....",
	})
	if actual := RasterizeState(s, 5, 3); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateMergeComplex(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: isl.Color{1, 0, 0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 3}, Color: isl.Color{0, 1, 0, 1}},
		isl.Merge{A: isl.BlockId{0, 2}, B: isl.BlockId{0, 3}},
		isl.LCut{BlockID: isl.BlockId{1}, Orientation: isl.Horizontal, Line: 2},
		isl.ColorMove{BlockID: isl.BlockId{1, 1}, Color: isl.Color{0, 0, 1, 1}},
	)

	// The merge result keeps InvalidColor, so the merged constituents
	// show through until a later Color paints over them.
	expected := raster.FromStringArray([]string{
		"bbbbb",
		"ggrrr",
		".....",
	})
	if actual := RasterizeState(s, 5, 3); !actual.Equal(expected) {
		t.Errorf("Got:\n%swant:\n%s", actual, expected)
	}
}

func TestSimulateInvalidMoves(t *testing.T) {
	cases := []struct {
		name string
		mv   isl.Move
	}{
		{"pcut missing block", isl.PCut{BlockID: isl.BlockId{9}, Point: isl.Point{2, 2}}},
		{"pcut on corner", isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{0, 0}}},
		{"pcut outside", isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{5, 2}}},
		{"lcut on edge", isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 0}},
		{"lcut outside", isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Horizontal, Line: 3}},
	}
	for _, tc := range cases {
		s := InitialState(5, 3, 0)
		if Simulate(s, tc.mv) {
			t.Errorf("%s: Simulate succeeded, want failure", tc.name)
		}
	}
}

func TestSimulateSwapDifferentSizes(t *testing.T) {
	s := InitialState(5, 3, 0)
	// children are 2 and 3 columns wide
	mustSimulate(t, s, isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 2})
	if Simulate(s, isl.Swap{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}}) {
		t.Errorf("swapping differently sized blocks succeeded, want failure")
	}
}

func mustGet(t *testing.T, s *State, id isl.BlockId) *SimpleBlock {
	t.Helper()
	b, ok := s.Get(id)
	if !ok {
		t.Fatalf("no block %v", id)
	}
	return b
}

func TestSimulateMergeNotAdjacent(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s, isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 1}})
	// diagonal children share only a corner
	if Simulate(s, isl.Merge{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 2}}) {
		t.Errorf("merging diagonal blocks succeeded, want failure")
	}
}

func TestPCutMergeRoundTrip(t *testing.T) {
	s := InitialState(8, 8, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{3, 5}},
		isl.Merge{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}},
		isl.Merge{A: isl.BlockId{0, 2}, B: isl.BlockId{0, 3}},
		isl.Merge{A: isl.BlockId{1}, B: isl.BlockId{2}},
	)
	b := mustGet(t, s, isl.BlockId{3})
	if b.P != (isl.Point{0, 0}) || b.Size != (isl.Point{8, 8}) {
		t.Errorf("Got block at %v size %v, want the original rectangle", b.P, b.Size)
	}
	if !b.Color.IsInvalid() {
		t.Errorf("Got color %v, want InvalidColor", b.Color)
	}
}

func TestSimulateDeterminism(t *testing.T) {
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{3, 5}},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: isl.Color{1, 0, 0, 1}},
		isl.Merge{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{1}, Color: isl.Color{0, 1, 0, 1}},
	}
	initial := InitialState(8, 8, 0)
	s1, err := SimulateAll(prog, initial)
	if err != nil {
		t.Fatalf("SimulateAll: %v", err)
	}
	s2, err := SimulateAll(prog, initial)
	if err != nil {
		t.Fatalf("SimulateAll: %v", err)
	}
	if s1.NextGlobalID != s2.NextGlobalID || len(s1.Blocks) != len(s2.Blocks) {
		t.Fatalf("States differ: %d/%d blocks", len(s1.Blocks), len(s2.Blocks))
	}
	for k, b1 := range s1.Blocks {
		b2, ok := s2.Blocks[k]
		if !ok || b1.P != b2.P || b1.Size != b2.Size || b1.Color != b2.Color || b1.State != b2.State {
			t.Errorf("Block %s differs: %+v vs %+v", k, b1, b2)
		}
	}
}

func TestCalcStateSimilarity(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s,
		isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 2},
		isl.ColorMove{BlockID: isl.BlockId{0, 1}, Color: isl.Color{1, 0, 0, 1}},
	)
	// canvas:
	// ..rrr
	// ..rrr
	// ..rrr
	target := raster.FromStringArray([]string{
		"..rr.",
		"..r.r",
		".rrrr",
	})

	// 3 mismatched pixels, each red vs white
	pixelDiff := 3.0 * math.Sqrt(255.0*255.0+255.0*255.0)
	expected := int64(math.Round(pixelDiff * 0.005))

	if actual := CalcStateSimilarity(s, target); actual != expected {
		t.Errorf("Got %d, want %d", actual, expected)
	}
}

func TestMoveCost(t *testing.T) {
	s := InitialState(5, 3, 0)
	mustSimulate(t, s, isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 2})
	mv := isl.ColorMove{BlockID: isl.BlockId{0, 1}, Color: isl.Color{}}
	actual, ok := MoveCost(s, mv, 5, 3)
	if !ok {
		t.Fatalf("MoveCost failed")
	}
	expected := int64(math.Round(5.0 * (5.0 * 3.0) / (3.0 * 3.0)))
	if actual != expected {
		t.Errorf("Got %d, want %d", actual, expected)
	}
}

func TestMoveCostVersions(t *testing.T) {
	cases := []struct {
		mv      isl.Move
		version uint8
		want    int64
	}{
		{isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{1, 1}}, 0, 10},
		{isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{1, 1}}, 1, 3},
		{isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 1}, 0, 7},
		{isl.LCut{BlockID: isl.BlockId{0}, Orientation: isl.Vertical, Line: 1}, 1, 2},
		{isl.ColorMove{BlockID: isl.BlockId{0}}, 0, 5},
		{isl.ColorMove{BlockID: isl.BlockId{0}}, 1, 5},
		{isl.Swap{A: isl.BlockId{0}, B: isl.BlockId{0}}, 0, 3},
		{isl.Merge{A: isl.BlockId{0}, B: isl.BlockId{0}}, 1, 1},
	}
	for i, tc := range cases {
		// full-canvas target block, so cost equals the base coefficient
		got := MoveCostWithoutState(tc.mv, 400*400, 400, 400, tc.version)
		if got != tc.want {
			t.Errorf("%d: Got %d, want %d", i, got, tc.want)
		}
	}
}

func TestCalcScoreDecomposition(t *testing.T) {
	target := raster.FromStringArray([]string{
		"rrgg",
		"rrgg",
		"bbbb",
		"bbbb",
	})
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 2}},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{1, 0, 0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 1}, Color: isl.Color{0, 1, 0, 1}},
	}
	initial := InitialState(4, 4, 0)

	score, err := CalcScore(prog, target, initial)
	if err != nil {
		t.Fatalf("CalcScore: %v", err)
	}

	s := initial.Clone()
	var moveSum int64
	for _, mv := range prog {
		c, ok := MoveCost(s, mv, 4, 4)
		if !ok {
			t.Fatalf("MoveCost(%v) failed", mv)
		}
		moveSum += c
		if !Simulate(s, mv) {
			t.Fatalf("Simulate(%v) failed", mv)
		}
	}
	if want := moveSum + CalcStateSimilarity(s, target); score != want {
		t.Errorf("Got %d, want %d", score, want)
	}
}

func TestCalcScoreInvalidProgram(t *testing.T) {
	target := raster.New(4, 4)
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 2}},
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{1, 1}}, // [0] is Deleted by the first cut
	}
	_, err := CalcScore(prog, target, InitialState(4, 4, 0))
	if err == nil {
		t.Fatalf("CalcScore succeeded, want invalid-move error")
	}
	var ime *InvalidMoveError
	if !asInvalidMove(err, &ime) {
		t.Fatalf("Got %T, want *InvalidMoveError", err)
	}
	if ime.Line != 2 {
		t.Errorf("Got line %d, want 2", ime.Line)
	}
}

func asInvalidMove(err error, target **InvalidMoveError) bool {
	if e, ok := err.(*InvalidMoveError); ok {
		*target = e
		return true
	}
	return false
}

func TestPartialSimilarityMatchesFull(t *testing.T) {
	target := raster.FromStringArray([]string{
		"rrgg",
		"r#gg",
		"bb..",
		"bbz.",
	})
	s := InitialState(4, 4, 0)
	mustSimulate(t, s,
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{2, 2}},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{0, 0, 1, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 3}, Color: isl.Color{1, 0, 0, 1}},
	)

	full := CalcStateSimilarity(s, target)
	var sum int64
	quads := []isl.Point{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	for _, q := range quads {
		sum += CalcPartialStateSimilarity(q, isl.Point{2, 2}, s, target)
	}
	if diff := full - sum; diff < -2 || diff > 2 {
		t.Errorf("Got quadrant sum %d vs full %d, want within +-2", sum, full)
	}
}
