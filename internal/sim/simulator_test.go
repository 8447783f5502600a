package sim

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/avoid"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/dynamics"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/planner"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

type zeroNoise struct{}

func (zeroNoise) Sample(stdPosition, stdVelocity float64) (core.Vec3, core.Vec3) {
	return core.Vec3{}, core.Vec3{}
}

func buildTestRun(t *testing.T) (*planner.Generator, *core.Scenario) {
	t.Helper()
	cfg := core.BezierConfig{Degree: 4, NumSegments: 2, Dim: 3, ContinuityDegree: 2, SegmentDuration: 1.0}
	basis, err := core.NewBasis(cfg, 6, 0.2)
	if err != nil {
		t.Fatalf("NewBasis: %v", err)
	}

	a0 := core.NewAgent(0, core.State{Pos: core.Vec3{X: 0, Y: 0, Z: 1}})
	a1 := core.NewAgent(1, core.State{Pos: core.Vec3{X: 10, Y: 10, Z: 1}})
	g0 := core.NewStaticGoal(core.Vec3{X: 5, Y: 0, Z: 1})
	g1 := core.NewStaticGoal(core.Vec3{X: 10, Y: 0, Z: 1})

	sc := &core.Scenario{
		Agents:  []*core.Agent{a0, a1},
		NCmd:    2,
		Goals:   []*core.Goal{g0, g1},
		Ellipse: core.EllipseParams{Order: 2, RMin: 0.3, CZ: 1},
		Bezier:  cfg,
		KHor:    6,
		H:       0.2,
		Ts:      0.1,
		Avoider: core.AvoiderOnDemand,
		Cost:    core.CostFree,
		Limits:  core.UnboundedLimits(),
		Duration: 0.3,
	}

	asm := qp.NewAssembler(basis, qp.Weights{GoalFree: 10, GoalObstacle: 10, GoalRepel: 10, Acc: 0.1, SlackBase: 1000, LinSlack: 1}, core.UnboundedLimits())
	solver := planner.NewAgentSolver(asm, avoid.NewOnDemand(0.1))
	dyn, err := dynamics.NewModel(dynamics.AxisParams{Zeta: 1, Tau: 0.3}, dynamics.AxisParams{Zeta: 1, Tau: 0.4}, sc.Ts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return planner.NewGenerator(sc, solver, dyn), sc
}

func TestSimulatorRunProducesReport(t *testing.T) {
	gen, sc := buildTestRun(t)
	checkEllipse := core.EllipseParams{Order: 2, RMin: 0.3, CZ: 1}
	simulator := NewSimulator(gen, nil, sc, zeroNoise{}, 0, 0, checkEllipse, 0.2, nil)

	report, err := simulator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Result == nil {
		t.Fatal("expected non-nil Result")
	}
	if len(report.Result.Trajectories[0]) < 2 {
		t.Errorf("expected multiple recorded ticks, got %d", len(report.Result.Trajectories[0]))
	}
	if len(report.GoalHistory) != sc.NCmd {
		t.Errorf("len(GoalHistory) = %d, want %d", len(report.GoalHistory), sc.NCmd)
	}
}

func TestSimulatorRunStopsAtDuration(t *testing.T) {
	gen, sc := buildTestRun(t)
	checkEllipse := core.EllipseParams{Order: 2, RMin: 0.3, CZ: 1}
	simulator := NewSimulator(gen, nil, sc, zeroNoise{}, 0, 0, checkEllipse, 0.2, nil)

	if _, err := simulator.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.Time() < sc.Duration {
		t.Errorf("gen.Time() = %f, want >= %f", gen.Time(), sc.Duration)
	}
}
