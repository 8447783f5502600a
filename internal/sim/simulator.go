// Package sim drives a built Run to completion: the replan/dynamics tick
// loop, process noise injection, periodic reallocation, and the post-run
// audits and trajectory/goal file output spec.md §6 and §8 describe.
// Grounded on the teacher's own internal/sim/simulator.go shape (a config
// struct, a metrics/report struct, Run(ctx) (*Report, error)), repurposed
// from MAPF-HET task execution to DMPC replanning.
package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/assign"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/planner"
)

// NoiseSource draws one process-noise perturbation, isolated behind an
// interface so tests can inject a deterministic source instead of a real
// *rand.Rand (spec §8 round-trip/idempotence properties rely on
// reproducibility).
type NoiseSource interface {
	Sample(stdPosition, stdVelocity float64) (dPos, dVel core.Vec3)
}

// Report is the outcome of a completed Run: the executed trajectories, the
// goal-position history for file output, and the post-run audit findings.
type Report struct {
	Result *core.Result
	Audit  AuditReport

	GoalHistory [][]core.Vec3 // index by commanded agent, then tick
}

// Simulator owns one run: a Generator already wired to a scenario, an
// optional Reallocator, the noise source and audit thresholds.
type Simulator struct {
	Generator   *planner.Generator
	Reallocator *assign.Reallocator // nil disables reallocation
	Scenario    *core.Scenario

	Noise       NoiseSource
	StdPosition float64
	StdVelocity float64

	CollisionCheckEllipse core.EllipseParams
	GoalTolerance         float64

	Logger *zap.SugaredLogger

	loggedFallback map[int]bool
}

// NewSimulator wires a Simulator. logger may be nil, in which case a no-op
// logger is used.
func NewSimulator(gen *planner.Generator, realloc *assign.Reallocator, scenario *core.Scenario, noise NoiseSource, stdPos, stdVel float64, checkEllipse core.EllipseParams, goalTol float64, logger *zap.SugaredLogger) *Simulator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Simulator{
		Generator:             gen,
		Reallocator:           realloc,
		Scenario:              scenario,
		Noise:                 noise,
		StdPosition:           stdPos,
		StdVelocity:           stdVel,
		CollisionCheckEllipse: checkEllipse,
		GoalTolerance:         goalTol,
		Logger:                logger,
		loggedFallback:        make(map[int]bool),
	}
}

// Run executes the tick loop until the scenario's Duration elapses (spec
// §4.8, §5): a replan tick (optional reallocation, then Generator.Replan)
// fires every m dynamics ticks, where m = h/Ts; between replans each
// dynamics tick applies the held commanded-acceleration sample, injects
// process noise into the post-dynamics state, and records a trajectory
// sample. It then runs the post-run audits (spec §8) and returns everything
// needed to write result files.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	n := len(s.Scenario.Agents)
	result := core.NewResult(n)
	var history []snapshot
	goalHistory := make([][]core.Vec3, s.Scenario.NCmd)
	accelHistory := make([][]core.Vec3, s.Scenario.NCmd)

	record := func(t float64) {
		states := s.Generator.States()
		result.RecordTick(t, states)

		positions := make([]core.Vec3, n)
		for i, st := range states {
			positions[i] = st.Pos
		}
		history = append(history, snapshot{Time: t, Positions: positions})

		commanded := s.Scenario.CommandedAgents()
		for i, a := range commanded {
			goal := s.Scenario.Goals[a.GoalIndex]
			goalHistory[i] = append(goalHistory[i], goal.At(t))
			if goal.Reached(states[i].Pos, t, s.GoalTolerance) {
				result.MarkReached(i, t)
			}
		}
	}

	record(s.Generator.Time())
	m := s.Generator.MicroSteps()

	for s.Generator.Time() < s.Scenario.Duration {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.Reallocator != nil {
			changed, assignment, err := s.Reallocator.MaybeReallocate(s.Generator.Time(), s.Scenario.CommandedAgents(), s.Generator.Goals())
			if err != nil {
				return nil, fmt.Errorf("sim: reallocation: %w", err)
			}
			for _, i := range changed {
				s.Generator.SetGoalPoint(i, assignment[i])
			}
		}

		tick, err := s.Generator.Replan(ctx)
		if err != nil {
			return nil, fmt.Errorf("sim: tick: %w", err)
		}
		s.logFallbacks(tick.Fallback)

		for count := 0; count < m && s.Generator.Time() < s.Scenario.Duration; count++ {
			commands := s.Generator.AdvanceDynamics(count)
			for i, a := range s.Scenario.CommandedAgents() {
				_ = a
				accelHistory[i] = append(accelHistory[i], commands[i])
			}

			if s.Noise != nil {
				for i := range s.Scenario.CommandedAgents() {
					dPos, dVel := s.Noise.Sample(s.StdPosition, s.StdVelocity)
					s.Generator.PerturbState(i, dPos, dVel)
				}
			}

			record(s.Generator.Time())
		}
	}

	result.ComputeMakespan()
	result.FinalAssignment = s.Generator.Assignment()[:s.Scenario.NCmd]

	fallbackCounts := make([]int, s.Scenario.NCmd)
	for i, a := range s.Scenario.CommandedAgents() {
		fallbackCounts[i] = a.QPFellBack
	}

	audit := AuditReport{
		Collisions:      RunCollisionAudit(history, s.CollisionCheckEllipse),
		GoalMisses:      s.finalGoalMisses(history),
		QPFallbacks:     fallbackCounts,
		AccelViolations: RunAccelAudit(accelHistory, s.Scenario.Limits),
	}

	return &Report{Result: result, Audit: audit, GoalHistory: goalHistory}, nil
}

func (s *Simulator) finalGoalMisses(history []snapshot) []GoalMiss {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]
	commanded := s.Scenario.CommandedAgents()
	positions := last.Positions[:len(commanded)]
	return RunGoalAuditAt(commanded, s.Scenario.Goals, positions, last.Time, s.GoalTolerance)
}

func (s *Simulator) logFallbacks(fallback []int) {
	for _, i := range fallback {
		if s.loggedFallback[i] {
			continue
		}
		s.loggedFallback[i] = true
		s.Logger.Warnw("agent fell back to holding its previous horizon", "agent", i)
	}
}
