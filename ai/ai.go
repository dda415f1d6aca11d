// Package ai implements and registers the planners that produce and
// refine ISL programs. Planners are referenced by name in the
// comma-separated --ai list: the first entry is a HeadAI, the rest are
// ChainedAIs applied in order.
package ai

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
	"github.com/seikichi/icfpc2022/trace"
)

// HeadAI produces a program from scratch.
type HeadAI interface {
	Solve(img *raster.Image, initial *simulator.State) isl.Program
}

// ChainedAI transforms the program produced by the previous stage.
type ChainedAI interface {
	Solve(img *raster.Image, initial *simulator.State, prog isl.Program) isl.Program
}

// Options carries the planner parameters from the CLI. Rand must be an
// already-seeded source; planners own it for the whole pipeline run.
type Options struct {
	DpDivideNum              int
	DpColorNum               int
	RefineIters              int
	RefineAlgorithm          string
	RefineInitialTemperature float64
	RefineDpDivideMax        int
	AnnealingTimeLimit       time.Duration
	Rand                     *rand.Rand
	Trace                    *trace.Recorder
}

// Global registries of planners, keyed by the name used in --ai.
var (
	headAIs    = map[string]func(Options) (HeadAI, error){}
	chainedAIs = map[string]func(Options) (ChainedAI, error){}
)

func registerHead(name string, f func(Options) (HeadAI, error)) {
	if _, ok := headAIs[name]; ok {
		panic(fmt.Sprintf("Can't re-register HeadAI %q.", name))
	}
	headAIs[name] = f
}

func registerChained(name string, f func(Options) (ChainedAI, error)) {
	if _, ok := chainedAIs[name]; ok {
		panic(fmt.Sprintf("Can't re-register ChainedAI %q.", name))
	}
	chainedAIs[name] = f
}

// ParseList resolves a planner list like "DP,Refine" into a head
// planner and its chained stages.
func ParseList(list string, opts Options) (HeadAI, []ChainedAI, error) {
	parts := strings.Split(list, ",")
	headFactory, ok := headAIs[parts[0]]
	if !ok {
		return nil, nil, fmt.Errorf("%q is not a HeadAI", parts[0])
	}
	head, err := headFactory(opts)
	if err != nil {
		return nil, nil, err
	}
	var chained []ChainedAI
	for _, name := range parts[1:] {
		factory, ok := chainedAIs[name]
		if !ok {
			return nil, nil, fmt.Errorf("%q is not a ChainedAI", name)
		}
		c, err := factory(opts)
		if err != nil {
			return nil, nil, err
		}
		chained = append(chained, c)
	}
	return head, chained, nil
}
