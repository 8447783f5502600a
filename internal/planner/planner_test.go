package planner

import (
	"context"
	"math"
	"testing"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/avoid"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/dynamics"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

func testScenario(t *testing.T) (*core.Scenario, *core.Basis) {
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
	}
	return sc, basis
}

func testSolver(basis *core.Basis) *AgentSolver {
	asm := qp.NewAssembler(basis, qp.Weights{GoalFree: 10, GoalObstacle: 10, GoalRepel: 10, Acc: 0.1, SlackBase: 1000}, core.UnboundedLimits())
	return NewAgentSolver(asm, avoid.NewOnDemand(0.1))
}

func TestAgentSolverMovesTowardGoal(t *testing.T) {
	sc, basis := testScenario(t)
	solver := testSolver(basis)

	horizon, accel, err := solver.Solve(0, sc.Agents, sc.Goals[0].At(0), sc.Cost, sc.Ellipse, sc.ObstacleEllipse)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(horizon) != basis.KHor {
		t.Fatalf("horizon length = %d, want %d", len(horizon), basis.KHor)
	}
	if len(accel) != basis.KHor {
		t.Fatalf("accel length = %d, want %d", len(accel), basis.KHor)
	}
	startDist := core.Dist2(sc.Agents[0].State.Pos, sc.Goals[0].At(0))
	endDist := core.Dist2(horizon[len(horizon)-1], sc.Goals[0].At(0))
	if endDist >= startDist {
		t.Errorf("horizon end distance %f should be less than start distance %f", endDist, startDist)
	}
}

func TestGeneratorReplanPublishesHorizonAndAccelWithoutAdvancingTime(t *testing.T) {
	sc, basis := testScenario(t)
	solver := testSolver(basis)
	dyn, err := dynamics.NewModel(dynamics.AxisParams{Zeta: 1, Tau: 0.3}, dynamics.AxisParams{Zeta: 1, Tau: 0.4}, sc.Ts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	gen := NewGenerator(sc, solver, dyn)

	report, err := gen.Replan(context.Background())
	if err != nil {
		t.Fatalf("Replan: %v", err)
	}
	if report.Time != 0 {
		t.Errorf("report.Time = %f, want 0", report.Time)
	}
	if gen.Time() != 0 {
		t.Errorf("gen.Time() = %f, want 0 (Replan must not advance simulated time)", gen.Time())
	}

	states := gen.States()
	if states[0].Pos != (core.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Error("agent 0's true state must not change from Replan alone")
	}
	if len(sc.Agents[0].Horizon) != basis.KHor {
		t.Errorf("agent 0 horizon length = %d, want %d", len(sc.Agents[0].Horizon), basis.KHor)
	}
}

func TestGeneratorAdvanceDynamicsMovesStateAndTime(t *testing.T) {
	sc, basis := testScenario(t)
	solver := testSolver(basis)
	dyn, err := dynamics.NewModel(dynamics.AxisParams{Zeta: 1, Tau: 0.3}, dynamics.AxisParams{Zeta: 1, Tau: 0.4}, sc.Ts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	gen := NewGenerator(sc, solver, dyn)

	if _, err := gen.Replan(context.Background()); err != nil {
		t.Fatalf("Replan: %v", err)
	}

	gen.AdvanceDynamics(0)
	if gen.Time() != sc.Ts {
		t.Errorf("gen.Time() = %f, want %f", gen.Time(), sc.Ts)
	}

	states := gen.States()
	if states[0].Pos == (core.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Error("agent 0 should have moved after one dynamics tick")
	}
}

func TestGeneratorMicroSteps(t *testing.T) {
	sc, basis := testScenario(t)
	solver := testSolver(basis)
	dyn, err := dynamics.NewModel(dynamics.AxisParams{Zeta: 1, Tau: 0.3}, dynamics.AxisParams{Zeta: 1, Tau: 0.4}, sc.Ts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	gen := NewGenerator(sc, solver, dyn)

	want := int(math.Round(sc.H / sc.Ts))
	if got := gen.MicroSteps(); got != want {
		t.Errorf("MicroSteps() = %d, want %d", got, want)
	}
}

func TestGeneratorSetGoalPointAndAssignment(t *testing.T) {
	sc, basis := testScenario(t)
	solver := testSolver(basis)
	dyn, err := dynamics.NewModel(dynamics.AxisParams{Zeta: 1, Tau: 0.3}, dynamics.AxisParams{Zeta: 1, Tau: 0.4}, sc.Ts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	gen := NewGenerator(sc, solver, dyn)

	gen.SetGoalPoint(0, 1)
	a := gen.Assignment()
	if a[0] != 1 {
		t.Errorf("Assignment()[0] = %d, want 1", a[0])
	}
}
