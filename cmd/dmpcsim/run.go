package main

import (
	"fmt"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/config"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/planner"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/sim"
)

// newGenerator wires a Run's scenario, solver and dynamics model into a
// Generator ready to tick.
func newGenerator(run *config.Run) *planner.Generator {
	return planner.NewGenerator(run.Scenario, run.Solver, run.Dynamics)
}

// writeOutputs writes the trajectory and goal files the configuration
// document names (spec §6: output_trajectories_paths, output_goals_paths —
// lists, to support writing the same result to multiple paths).
func writeOutputs(run *config.Run, report *sim.Report) error {
	data := sim.TrajectoryData{
		N:          len(run.Scenario.Agents),
		Ncmd:       run.Scenario.NCmd,
		Limits:     run.Scenario.Limits,
		InitialPos: initialPositions(report.Result),
		Goals:      initialGoals(run),
		Paths:      commandedPaths(report.Result, run.Scenario.NCmd),
	}

	for _, path := range run.OutputTrajectoriesPaths {
		if err := sim.WriteTrajectoryFile(path, data); err != nil {
			return fmt.Errorf("dmpcsim: writing trajectory file %s: %w", path, err)
		}
	}
	for _, path := range run.OutputGoalsPaths {
		if err := sim.WriteGoalFile(path, report.GoalHistory); err != nil {
			return fmt.Errorf("dmpcsim: writing goal file %s: %w", path, err)
		}
	}
	return nil
}

// initialPositions returns every body's starting position (spec §6: "a 3×N
// block of initial positions"), read off the first recorded sample of each
// agent's trajectory.
func initialPositions(result *core.Result) []core.Vec3 {
	out := make([]core.Vec3, len(result.Trajectories))
	for i, samples := range result.Trajectories {
		out[i] = samples[0].Pos // Simulator.Run records every body once before the first tick
	}
	return out
}

// initialGoals returns each commanded agent's goal position at t=0 (spec
// §6: "a 3×Ncmd block of goals").
func initialGoals(run *config.Run) []core.Vec3 {
	out := make([]core.Vec3, run.Scenario.NCmd)
	for i, a := range run.Scenario.CommandedAgents() {
		out[i] = run.Scenario.Goals[a.GoalIndex].At(0)
	}
	return out
}

// commandedPaths extracts the executed position history of the first ncmd
// agents from a Result (spec §6: "Ncmd blocks each of shape 3 × K_total").
func commandedPaths(result *core.Result, ncmd int) [][]core.Vec3 {
	paths := make([][]core.Vec3, ncmd)
	for i := 0; i < ncmd; i++ {
		samples := result.Trajectories[i]
		path := make([]core.Vec3, len(samples))
		for k, s := range samples {
			path[k] = s.Pos
		}
		paths[i] = path
	}
	return paths
}
