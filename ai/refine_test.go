package ai

import (
	"math/rand"
	"testing"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/simulator"
)

func TestRefineHillClimbNeverWorsens(t *testing.T) {
	img := checkerboard8x8()
	initial := simulator.InitialState(8, 8, 0)

	grid := GridAI{Rows: 2, Cols: 2}
	start := grid.Solve(img, initial)
	startScore, err := simulator.CalcScore(start, img, initial)
	if err != nil {
		t.Fatalf("CalcScore(start): %v", err)
	}

	a := &RefineAI{
		NIters:             1000,
		Algorithm:          HillClimbing,
		InitialTemperature: 5.0,
		DpDivideMax:        4,
		rng:                rand.New(rand.NewSource(11)),
	}
	refined := a.Solve(img, initial, start)

	refinedScore, err := simulator.CalcScore(refined, img, initial)
	if err != nil {
		t.Fatalf("CalcScore(refined): %v", err)
	}
	if refinedScore > startScore {
		t.Errorf("Got %d, want at most the starting score %d", refinedScore, startScore)
	}
}

func TestRefineAnnealingReturnsValidProgram(t *testing.T) {
	img := checkerboard8x8()
	initial := simulator.InitialState(8, 8, 0)

	grid := GridAI{Rows: 2, Cols: 2}
	start := grid.Solve(img, initial)

	a := &RefineAI{
		NIters:             500,
		Algorithm:          Annealing,
		InitialTemperature: 5.0,
		DpDivideMax:        4,
		rng:                rand.New(rand.NewSource(3)),
	}
	refined := a.Solve(img, initial, start)

	if _, err := simulator.SimulateAll(refined, initial); err != nil {
		t.Fatalf("refined program doesn't execute: %v", err)
	}
}

func TestRefineIncrementalScoringAgreesWithFull(t *testing.T) {
	// the refiner trusts its incremental rescoring; spot-check the
	// decomposition it relies on for a block-shaped rectangle
	img := checkerboard8x8()
	initial := simulator.InitialState(8, 8, 0)
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{1, 0, 0, 1}},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: isl.Color{0, 0, 0, 1}},
	}
	state, moveSum, err := executeWithCost(prog, initial, img)
	if err != nil {
		t.Fatalf("executeWithCost: %v", err)
	}
	canvas := simulator.RasterizeState(state, 8, 8)
	curScore := moveSum + simulator.CalcPartialImageSimilarity(isl.Point{0, 0}, isl.Point{8, 8}, canvas, img)

	// recolor [0.2]; the affected rectangle is that block
	candidate := prog.Clone()
	candidate[2] = isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: isl.Color{0, 1, 0, 1}}
	block, _ := state.Get(isl.BlockId{0, 2})
	newState, newMoveSum, err := executeWithCost(candidate, initial, img)
	if err != nil {
		t.Fatalf("executeWithCost(candidate): %v", err)
	}
	oldRectSim := simulator.CalcPartialImageSimilarity(block.P, block.Size, canvas, img)
	newRectSim := simulator.CalcPartialStateSimilarity(block.P, block.Size, newState, img)
	incremental := newMoveSum + newRectSim + (curScore - oldRectSim - moveSum)

	direct, err := simulator.CalcScore(candidate, img, initial)
	if err != nil {
		t.Fatalf("CalcScore: %v", err)
	}
	if diff := incremental - direct; diff < -2 || diff > 2 {
		t.Errorf("Got incremental %d vs direct %d, want within +-2", incremental, direct)
	}
}

func TestRemoveDescendantMoves(t *testing.T) {
	red := isl.Color{1, 0, 0, 1}
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.ColorMove{BlockID: isl.BlockId{0, 1}, Color: red},
		isl.LCut{BlockID: isl.BlockId{0, 1}, Orientation: isl.Vertical, Line: 6},
		isl.ColorMove{BlockID: isl.BlockId{0, 1, 0}, Color: red},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: red},
	}
	got, ok := removeDescendantMoves(prog, isl.BlockId{0, 1})
	if !ok {
		t.Fatalf("removeDescendantMoves failed")
	}
	// moves on [0.1] itself stay; only strict descendants go
	want := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.ColorMove{BlockID: isl.BlockId{0, 1}, Color: red},
		isl.LCut{BlockID: isl.BlockId{0, 1}, Orientation: isl.Vertical, Line: 6},
		isl.ColorMove{BlockID: isl.BlockId{0, 2}, Color: red},
	}
	if len(got) != len(want) {
		t.Fatalf("Got %d moves, want %d:\n%s", len(got), len(want), got)
	}
	for i := range want {
		if got[i].String() != want[i].String() {
			t.Errorf("%d: Got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemoveDescendantMovesRejectsSwapAndMerge(t *testing.T) {
	prog := isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.Swap{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}},
	}
	if _, ok := removeDescendantMoves(prog, isl.BlockId{0}); ok {
		t.Errorf("subtree with a Swap accepted, want rejection")
	}

	prog = isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.Merge{A: isl.BlockId{0, 0}, B: isl.BlockId{0, 1}},
	}
	if _, ok := removeDescendantMoves(prog, isl.BlockId{0}); ok {
		t.Errorf("subtree with a Merge accepted, want rejection")
	}
}
