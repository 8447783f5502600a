// Command dmpcsim runs one distributed-MPC multi-agent trajectory
// simulation from a JSON configuration document (spec.md §6) and writes
// its trajectory/goal/reallocation-log outputs.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/assign"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/config"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/sim"
)

func main() {
	app := &cli.App{
		Name:      "dmpcsim",
		Usage:     "run a distributed-MPC multi-agent trajectory simulation",
		UsageText: "dmpcsim <config.json>",
		Commands: []*cli.Command{
			benchCommand(),
		},
		Action: runSimulation,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSimulation(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one argument: path to configuration document", 1)
	}
	path := c.Args().Get(0)

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("dmpcsim: building logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	doc, err := config.Load(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(doc.Test, "random") {
		rng := rand.New(rand.NewSource(doc.Seed))
		bounds := config.RandomPlacementBounds{
			Min: vec3FromSlice(doc.PMin),
			Max: vec3FromSlice(doc.PMax),
		}
		randomized, err := config.GenerateRandom(*doc, bounds, doc.RMin*2, rng)
		if err != nil {
			return err
		}
		*doc = randomized
	}

	run, err := doc.Build()
	if err != nil {
		return err
	}
	sugar.Debugw("bezier segment boundaries", "t", run.Basis.SegmentBreaks())

	var reallocator *assign.Reallocator
	if run.ReallocationEnabled {
		var log io.Writer
		if run.ReallocationLogPath != "" {
			logFile, err := os.Create(run.ReallocationLogPath)
			if err != nil {
				return fmt.Errorf("dmpcsim: creating reallocation log: %w", err)
			}
			defer logFile.Close()
			log = logFile
		}
		// k* = round(T_pred / h), with h the horizon's step (PredictionDt):
		// the single lookahead step the predictive cost matrix samples each
		// agent's horizon at.
		kStar := int(math.Round(run.PredictionHorizon / run.PredictionDt))
		reallocator, err = assign.NewReallocator(run.ReallocationPeriod, run.ReallocationMode, kStar, run.PredictionDt, log)
		if err != nil {
			return fmt.Errorf("dmpcsim: building reallocator: %w", err)
		}
	}

	gen := newGenerator(run)
	rng := rand.New(rand.NewSource(run.Seed))
	noise := &sim.RandNoise{Rng: rng}

	simulator := sim.NewSimulator(gen, reallocator, run.Scenario, noise, run.StdPosition, run.StdVelocity, run.CollisionCheck, run.GoalTolerance, sugar)

	report, err := simulator.Run(context.Background())
	if err != nil {
		return fmt.Errorf("dmpcsim: %w", err)
	}

	if err := writeOutputs(run, report); err != nil {
		return err
	}

	sim.WriteReport(os.Stdout, report.Audit)
	return nil
}

func vec3FromSlice(a [3]float64) core.Vec3 {
	return core.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
