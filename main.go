package main

import (
	"flag"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"github.com/seikichi/icfpc2022/ai"
	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/preview"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/render"
	"github.com/seikichi/icfpc2022/simulator"
	"github.com/seikichi/icfpc2022/trace"
)

var (
	aiList     = flag.String("ai", "", "Comma separated list of AIs, e.g. 'Cross,Refine'.")
	inputPath  = flag.String("input", "", "Path to the problem image.")
	outputDir  = flag.String("output-dir", "", "Directory to write the ISL and PNG into.")
	runID      = flag.String("run-id", "", "Identifier of this run for batch drivers.")
	refineIters = flag.Int("refine-iters", 30000, "Iteration budget of the Refine stage.")
	refineAlgorithm = flag.String("refine-algorithm", "annealing",
		"Acceptance rule for Refine: hill, hillclimbing or annealing.")
	refineInitialTemperature = flag.Float64("refine-initial-temperature", 5.0,
		"Initial annealing temperature of the Refine stage.")
	refineDpDivideMax = flag.Int("refine-dp-divide-max", 10,
		"Largest DP grid used when Refine re-synthesizes a block.")
	annealingSeconds = flag.Int("annealing-seconds", 10, "Wall clock budget of the Annealing stage.")
	dpDivideNum      = flag.Int("dp-divide-num", 8, "Grid size of the DP head planner.")
	dpColorNum       = flag.Int("dp-color-num", 10, "Palette size of the DP head planner.")
	seed             = flag.Int64("seed", 0, "RNG seed; 0 derives one from the clock.")
	traceDir         = flag.String("trace-dir", "", "Directory for refinement trace artifacts (optional).")
	show             = flag.Bool("show", false, "Show the target and the result in a window when done.")
	quiet            = flag.Bool("q", false, "Disable debug logs.")
)

func main() {
	flag.Parse()

	level := slog.LevelDebug
	if *quiet {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	if info, err := os.Stat(*outputDir); err != nil || !info.IsDir() {
		log.Fatalf("%q is not a directory", *outputDir)
	}

	img, err := raster.Load(*inputPath)
	if err != nil {
		log.Fatalf("Invalid input image: %v", err)
	}

	problemID := strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))
	configPath := filepath.Join(filepath.Dir(*inputPath), problemID+".initial.json")
	initialState, err := simulator.LoadInitialState(configPath, img)
	if err != nil {
		log.Fatalf("Invalid initial configuration: %v", err)
	}

	seedValue := *seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	var recorder *trace.Recorder
	if *traceDir != "" {
		recorder, err = trace.NewRecorder(*traceDir, problemID)
		if err != nil {
			log.Fatalf("Couldn't open trace recorder: %v", err)
		}
		defer recorder.Close()
	}

	opts := ai.Options{
		DpDivideNum:              *dpDivideNum,
		DpColorNum:               *dpColorNum,
		RefineIters:              *refineIters,
		RefineAlgorithm:          *refineAlgorithm,
		RefineInitialTemperature: *refineInitialTemperature,
		RefineDpDivideMax:        *refineDpDivideMax,
		AnnealingTimeLimit:       time.Duration(*annealingSeconds) * time.Second,
		Rand:                     rng,
		Trace:                    recorder,
	}
	head, chained, err := ai.ParseList(*aiList, opts)
	if err != nil {
		log.Fatalf("Couldn't parse --ai: %v", err)
	}

	slog.Info("solving", "problem", problemID, "ai", *aiList, "run-id", *runID, "seed", seedValue)

	var scoreHistory []int64
	program := head.Solve(img, initialState)
	scoreHistory = append(scoreHistory, mustScore(program, img, initialState))
	for _, c := range chained {
		program = c.Solve(img, initialState, program)
		scoreHistory = append(scoreHistory, mustScore(program, img, initialState))
	}

	for i, score := range scoreHistory {
		slog.Info("score history", "stage", i, "score", score)
	}

	state, err := simulator.SimulateAll(program, initialState)
	if err != nil {
		log.Fatalf("Final program doesn't execute: %v", err)
	}
	output := simulator.RasterizeState(state, img.Width(), img.Height())

	islPath := filepath.Join(*outputDir, problemID+".isl")
	slog.Info("writing ISL", "path", islPath)
	if err := os.WriteFile(islPath, []byte(program.String()), 0644); err != nil {
		log.Fatalf("Couldn't write ISL: %v", err)
	}

	pngPath := filepath.Join(*outputDir, problemID+".png")
	slog.Info("writing PNG", "path", pngPath)
	if err := render.WritePNG(output, pngPath); err != nil {
		log.Fatalf("Couldn't write PNG: %v", err)
	}

	if recorder != nil {
		overlayPath := filepath.Join(*traceDir, problemID+".overlay.png")
		if err := render.WriteOverlayPNG(output, state, overlayPath); err != nil {
			log.Fatalf("Couldn't write overlay PNG: %v", err)
		}
	}

	if *show {
		if err := preview.Show(img, output, "icfpc2022 "+problemID); err != nil {
			log.Fatal(err)
		}
	}
}

func mustScore(program isl.Program, img *raster.Image, initial *simulator.State) int64 {
	score, err := simulator.CalcScore(program, img, initial)
	if err != nil {
		log.Fatalf("Planner produced an invalid program: %v", err)
	}
	return score
}
