package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/config"
)

// benchScales is the agent-count sweep the scalability harness runs (spec
// §7 supplemental: "reports replan frequency" — adapted from the teacher's
// tools/run_benchmarks/main.go CSV-emitting harness, kept a thin consumer
// of the core interfaces per spec.md's framing of experiment harnesses as
// external).
var benchScales = []int{4, 8, 16, 32, 64, 128}

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "measure replan frequency across a sweep of agent counts",
		UsageText: "dmpcsim bench <base-config.json>",
		Action:    runBench,
	}
}

func runBench(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one argument: path to a base configuration document", 1)
	}
	base, err := config.Load(c.Args().Get(0))
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"n", "ticks", "wall_seconds", "ticks_per_second"}); err != nil {
		return err
	}

	for _, n := range benchScales {
		doc := *base
		doc.N, doc.Ncmd = n, n
		bounds := config.RandomPlacementBounds{
			Min: vec3FromSlice(doc.PMin),
			Max: vec3FromSlice(doc.PMax),
		}
		doc, err := config.GenerateRandom(doc, bounds, doc.RMin*2, rand.New(rand.NewSource(doc.Seed+int64(n))))
		if err != nil {
			fmt.Fprintf(os.Stderr, "bench: n=%d: %v\n", n, err)
			continue
		}

		run, err := doc.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "bench: n=%d: %v\n", n, err)
			continue
		}
		gen := newGenerator(run)

		const ticks = 20
		start := time.Now()
		for i := 0; i < ticks; i++ {
			if _, err := gen.Replan(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "bench: n=%d: tick %d: %v\n", n, i, err)
				break
			}
		}
		elapsed := time.Since(start).Seconds()

		if err := w.Write([]string{
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%d", ticks),
			fmt.Sprintf("%f", elapsed),
			fmt.Sprintf("%f", float64(ticks)/elapsed),
		}); err != nil {
			return err
		}
		w.Flush()
	}
	return nil
}
