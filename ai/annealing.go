package ai

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func init() {
	registerChained("Annealing", func(opts Options) (ChainedAI, error) {
		return &AnnealingAI{TimeLimit: opts.AnnealingTimeLimit, rng: opts.Rand}, nil
	})
}

// AnnealingAI jitters cut positions by a fixed step under a wall-clock
// budget, accepting worse candidates with the usual Metropolis
// probability. The budget is checked every 100 iterations.
type AnnealingAI struct {
	TimeLimit time.Duration
	rng       *rand.Rand
}

const annealingDelta = 5

func (a *AnnealingAI) Solve(img *raster.Image, initial *simulator.State, initialProgram isl.Program) isl.Program {
	solution := initialProgram.Clone()
	currentScore, err := simulator.CalcScore(solution, img, initial)
	if err != nil {
		slog.Debug("annealing: initial program is invalid, nothing to do", "err", err)
		return initialProgram
	}
	startAt := time.Now()

	bestSolution := solution.Clone()
	bestScore := currentScore

	initialTemperature := 100.0
	temperature := initialTemperature

	for iter := 1; ; iter++ {
		if iter%100 == 0 {
			elapsed := time.Since(startAt)
			if elapsed >= a.TimeLimit {
				slog.Debug("annealing done", "iter", iter, "best", bestScore)
				return bestSolution
			}
			progress := elapsed.Seconds() / a.TimeLimit.Seconds()
			temperature = initialTemperature * (1.0 - progress) * math.Exp2(-progress)
		}

		var candidates []int
		for i, mv := range solution {
			switch mv.(type) {
			case isl.PCut, isl.LCut:
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return solution
		}
		chosen := candidates[a.rng.Intn(len(candidates))]
		old := solution[chosen]

		state, err := simulator.SimulateAll(solution, initial)
		if err != nil {
			return bestSolution
		}

		modified, ok := a.jitterCut(old, state)
		if !ok {
			continue
		}
		solution[chosen] = modified

		newScore, err := simulator.CalcScore(solution, img, initial)
		if err != nil {
			solution[chosen] = old
			continue
		}

		accept := newScore < currentScore
		if !accept {
			delta := float64(newScore - currentScore)
			accept = a.rng.Float64() < math.Exp(-delta/temperature)
		}
		if accept {
			currentScore = newScore
		} else {
			solution[chosen] = old
		}

		if currentScore < bestScore {
			bestScore = currentScore
			bestSolution = solution.Clone()
		}
	}
}

// jitterCut moves a cut by annealingDelta while keeping it strictly
// inside its block.
func (a *AnnealingAI) jitterCut(mv isl.Move, state *simulator.State) (isl.Move, bool) {
	switch m := mv.(type) {
	case isl.LCut:
		block, ok := state.Get(m.BlockID)
		if !ok {
			return nil, false
		}
		var offset, maxOffset int32
		if m.Orientation == isl.Horizontal {
			offset = m.Line - block.P.Y
			maxOffset = block.Size.Y - 1
		} else {
			offset = m.Line - block.P.X
			maxOffset = block.Size.X - 1
		}
		hasNext := false
		var next int32
		if offset+annealingDelta <= maxOffset {
			next = m.Line + annealingDelta
			hasNext = true
		}
		if offset-annealingDelta >= 1 && (!hasNext || a.rng.Float64() < 0.5) {
			next = m.Line - annealingDelta
			hasNext = true
		}
		if !hasNext {
			return nil, false
		}
		return isl.LCut{BlockID: m.BlockID, Orientation: m.Orientation, Line: next}, true

	case isl.PCut:
		block, ok := state.Get(m.BlockID)
		if !ok {
			return nil, false
		}
		dx := [8]int32{-1, -1, -1, 0, 0, 1, 1, 1}
		dy := [8]int32{-1, 0, 1, -1, 1, -1, 0, 1}
		nCandidates := 0
		hasNext := false
		var next isl.Point
		for i := 0; i < 8; i++ {
			p := isl.Point{m.Point.X + dx[i]*annealingDelta, m.Point.Y + dy[i]*annealingDelta}
			if p.X <= block.P.X || p.X >= block.P.X+block.Size.X ||
				p.Y <= block.P.Y || p.Y >= block.P.Y+block.Size.Y {
				continue
			}
			nCandidates++
			// reservoir-sample one of the in-bounds directions
			if a.rng.Float64() <= 1.0/float64(nCandidates) {
				next = p
				hasNext = true
			}
		}
		if !hasNext {
			return nil, false
		}
		return isl.PCut{BlockID: m.BlockID, Point: next}, true
	}
	return nil, false
}
