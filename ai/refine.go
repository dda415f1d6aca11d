package ai

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
	"github.com/seikichi/icfpc2022/trace"
)

func init() {
	registerChained("Refine", func(opts Options) (ChainedAI, error) {
		algorithm, err := ParseAlgorithm(opts.RefineAlgorithm)
		if err != nil {
			return nil, err
		}
		return &RefineAI{
			NIters:             opts.RefineIters,
			Algorithm:          algorithm,
			InitialTemperature: opts.RefineInitialTemperature,
			DpDivideMax:        opts.RefineDpDivideMax,
			rng:                opts.Rand,
			trace:              opts.Trace,
		}, nil
	})
}

// OptimizeAlgorithm selects how the refiner accepts candidates.
type OptimizeAlgorithm int

const (
	HillClimbing OptimizeAlgorithm = iota
	Annealing
)

func ParseAlgorithm(name string) (OptimizeAlgorithm, error) {
	switch name {
	case "hill", "hillclimbing":
		return HillClimbing, nil
	case "annealing":
		return Annealing, nil
	}
	return 0, fmt.Errorf("%q is not an optimize algorithm", name)
}

// RefineAI improves an existing program by randomized neighborhood
// moves. Rescoring is incremental: only the rectangle touched by a
// candidate is rerasterized and rescored; the full-canvas similarity
// is recomputed on acceptance to keep rounding drift out.
type RefineAI struct {
	NIters             int
	Algorithm          OptimizeAlgorithm
	InitialTemperature float64
	DpDivideMax        int
	rng                *rand.Rand
	trace              *trace.Recorder
}

// executeWithCost runs the program from the initial state, summing
// move costs along the way.
func executeWithCost(prog isl.Program, initial *simulator.State, img *raster.Image) (*simulator.State, int64, error) {
	w, h := img.Width(), img.Height()
	s := initial.Clone()
	var moveSum int64
	for i, mv := range prog {
		c, ok := simulator.MoveCost(s, mv, w, h)
		if !ok || !simulator.Simulate(s, mv) {
			return nil, 0, fmt.Errorf("invalid move %d: %s", i+1, mv)
		}
		moveSum += c
	}
	return s, moveSum, nil
}

func (a *RefineAI) Solve(img *raster.Image, initial *simulator.State, initialProgram isl.Program) isl.Program {
	w, h := img.Width(), img.Height()
	full := isl.Point{int32(w), int32(h)}
	origin := isl.Point{0, 0}

	current := initialProgram.Clone()
	curState, curMoveSum, err := executeWithCost(current, initial, img)
	if err != nil {
		slog.Debug("refine: initial program is invalid, nothing to do", "err", err)
		return initialProgram
	}
	canvas := simulator.RasterizeState(curState, w, h)
	curScore := curMoveSum + simulator.CalcPartialImageSimilarity(origin, full, canvas, img)

	best := current.Clone()
	bestScore := curScore

	for iter := 0; iter < a.NIters; iter++ {
		if len(current) == 0 {
			break
		}
		progress := float64(iter) / float64(a.NIters)
		temperature := a.InitialTemperature * (1.0 - progress) * math.Exp2(-progress)

		candidate, rectP, rectSize, desc, ok := a.makeNeighbor(current, img, initial, curState)
		if !ok {
			continue
		}
		newState, newMoveSum, err := executeWithCost(candidate, initial, img)
		if err != nil {
			continue
		}

		oldRectSim := simulator.CalcPartialImageSimilarity(rectP, rectSize, canvas, img)
		newRectSim := simulator.CalcPartialStateSimilarity(rectP, rectSize, newState, img)
		newScore := newMoveSum + newRectSim + (curScore - oldRectSim - curMoveSum)

		accept := newScore < curScore
		if !accept && a.Algorithm == Annealing {
			delta := float64(newScore - curScore)
			accept = a.rng.Float64() < math.Exp(-delta/temperature)
		}
		if !accept {
			continue
		}

		slog.Debug("refine accept", "iter", iter, "score", newScore, "move", desc)
		current = candidate
		curState = newState
		curMoveSum = newMoveSum
		// repaint only the touched rectangle, then rescore the whole
		// canvas so incremental rounding can't accumulate
		simulator.RasterizePartialInto(canvas, curState, rectP, rectSize)
		curScore = curMoveSum + simulator.CalcPartialImageSimilarity(origin, full, canvas, img)
		a.trace.Accept(iter, curScore)

		if curScore < bestScore {
			bestScore = curScore
			best = current.Clone()
			a.trace.Snapshot(iter, bestScore, canvas)
		}
	}

	slog.Debug("refine done", "best", bestScore)
	return best
}

// makeNeighbor builds one candidate program and reports the canvas
// rectangle it can affect.
func (a *RefineAI) makeNeighbor(current isl.Program, img *raster.Image,
	initial, endState *simulator.State) (isl.Program, isl.Point, isl.Point, string, bool) {
	fail := func() (isl.Program, isl.Point, isl.Point, string, bool) {
		return nil, isl.Point{}, isl.Point{}, "", false
	}

	if a.rng.Intn(100) == 0 {
		id := endState.SampleActiveBlock(a.rng)
		block, _ := endState.Get(id)
		candidate, ok := a.synthesizeBlock(current.Clone(), id, img, initial)
		if !ok {
			return fail()
		}
		return candidate, block.P, block.Size, fmt.Sprintf("divide %v by DP", id), true
	}

	t := a.rng.Intn(len(current))
	switch mv := current[t].(type) {
	case isl.PCut:
		block, ok := a.blockBefore(current, t, mv.BlockID, initial)
		if !ok {
			return fail()
		}
		if a.rng.Intn(8) > 0 {
			dx := int32(a.rng.Intn(11) - 5)
			dy := int32(a.rng.Intn(11) - 5)
			if dx == 0 || dy == 0 {
				return fail()
			}
			candidate := current.Clone()
			candidate[t] = isl.PCut{BlockID: mv.BlockID, Point: isl.Point{mv.Point.X + dx, mv.Point.Y + dy}}
			return candidate, block.P, block.Size, fmt.Sprintf("move PCut by (%d, %d)", dx, dy), true
		}
		candidate, ok := a.removeAndResynthesize(current, t, mv.BlockID, img, initial)
		if !ok {
			return fail()
		}
		return candidate, block.P, block.Size, fmt.Sprintf("remove PCut %v and divide by DP", mv.BlockID), true

	case isl.LCut:
		block, ok := a.blockBefore(current, t, mv.BlockID, initial)
		if !ok {
			return fail()
		}
		if a.rng.Intn(8) > 0 {
			d := int32(a.rng.Intn(11) - 5)
			if d == 0 {
				return fail()
			}
			candidate := current.Clone()
			candidate[t] = isl.LCut{BlockID: mv.BlockID, Orientation: mv.Orientation, Line: mv.Line + d}
			return candidate, block.P, block.Size, fmt.Sprintf("move LCut by %d", d), true
		}
		candidate, ok := a.removeAndResynthesize(current, t, mv.BlockID, img, initial)
		if !ok {
			return fail()
		}
		return candidate, block.P, block.Size, fmt.Sprintf("remove LCut %v and divide by DP", mv.BlockID), true

	case isl.ColorMove:
		block, ok := a.blockBefore(current, t, mv.BlockID, initial)
		if !ok {
			return fail()
		}
		if a.rng.Intn(5) < 4 {
			var color isl.Color
			if a.rng.Intn(2) == 0 {
				x := block.P.X + int32(a.rng.Intn(int(block.Size.X)))
				y := block.P.Y + int32(a.rng.Intn(int(block.Size.Y)))
				color = img.Pix[y][x]
			} else {
				color = img.Average(block.P, block.Size)
			}
			diff := color.Sub(mv.Color).Scale(255)
			if math.Sqrt(float64(diff.LengthSq())) < 1.5 {
				return fail()
			}
			candidate := current.Clone()
			candidate[t] = isl.ColorMove{BlockID: mv.BlockID, Color: color}
			return candidate, block.P, block.Size, fmt.Sprintf("change Color of %v", mv.BlockID), true
		}
		candidate := make(isl.Program, 0, len(current)-1)
		candidate = append(candidate, current[:t]...)
		candidate = append(candidate, current[t+1:]...)
		return candidate, block.P, block.Size, fmt.Sprintf("remove Color of %v", mv.BlockID), true
	}

	// Swap and Merge break the parent-child locality assumption and
	// are left alone.
	return fail()
}

// blockBefore is the target block as it exists just before move t.
func (a *RefineAI) blockBefore(current isl.Program, t int, id isl.BlockId, initial *simulator.State) (*simulator.SimpleBlock, bool) {
	s := initial.Clone()
	if err := simulator.SimulatePartial(s, current[:t]); err != nil {
		return nil, false
	}
	block, ok := s.Get(id)
	if !ok || !block.State.IsActive() {
		return nil, false
	}
	return block, true
}

// removeAndResynthesize drops move t together with every move on a
// descendant of id, then lets the DP repartition the reunited block.
func (a *RefineAI) removeAndResynthesize(current isl.Program, t int, id isl.BlockId,
	img *raster.Image, initial *simulator.State) (isl.Program, bool) {
	candidate := make(isl.Program, 0, len(current)-1)
	candidate = append(candidate, current[:t]...)
	candidate = append(candidate, current[t+1:]...)
	candidate, ok := removeDescendantMoves(candidate, id)
	if !ok {
		return nil, false
	}
	return a.synthesizeBlock(candidate, id, img, initial)
}

// synthesizeBlock appends DP-generated moves for the block with random
// grid and palette sizes, collapsing any now-redundant Color moves.
func (a *RefineAI) synthesizeBlock(prog isl.Program, id isl.BlockId,
	img *raster.Image, initial *simulator.State) (isl.Program, bool) {
	endState, err := simulator.SimulateAll(prog, initial)
	if err != nil {
		return nil, false
	}
	if block, ok := endState.Get(id); !ok || !block.State.IsActive() {
		return nil, false
	}
	d := 4 + a.rng.Intn(max(a.DpDivideMax, 4)-3)
	k := 3 + a.rng.Intn(6)
	dpAI := NewDpAI(d, k, a.rng)
	sub := dpAI.Solve(img, endState.BlockOnlyState(id))
	prog = append(prog, sub...)
	return prog.RemoveRedundantColorMoves(), true
}

// removeDescendantMoves filters out every move targeting a descendant
// of id. A Swap or Merge inside the subtree makes the removal unsound,
// failing the candidate.
func removeDescendantMoves(prog isl.Program, id isl.BlockId) (isl.Program, bool) {
	ret := make(isl.Program, 0, len(prog))
	for _, mv := range prog {
		switch m := mv.(type) {
		case isl.PCut:
			if id.IsAncestorOf(m.BlockID) {
				continue
			}
		case isl.LCut:
			if id.IsAncestorOf(m.BlockID) {
				continue
			}
		case isl.ColorMove:
			if id.IsAncestorOf(m.BlockID) {
				continue
			}
		case isl.Swap:
			if id.IsAncestorOf(m.A) || id.IsAncestorOf(m.B) {
				return nil, false
			}
		case isl.Merge:
			if id.IsAncestorOf(m.A) || id.IsAncestorOf(m.B) {
				return nil, false
			}
		}
		ret = append(ret, mv)
	}
	return ret, true
}
