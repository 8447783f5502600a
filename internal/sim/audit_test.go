package sim

import (
	"bytes"
	"testing"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

func TestRunCollisionAuditFindsViolation(t *testing.T) {
	ellipse := core.EllipseParams{Order: 2, RMin: 1.0, CZ: 1}
	history := []snapshot{
		{Time: 0, Positions: []core.Vec3{{X: 0, Y: 0}, {X: 5, Y: 0}}},
		{Time: 1, Positions: []core.Vec3{{X: 0, Y: 0}, {X: 0.5, Y: 0}}}, // violates rmin=1
	}

	violations := RunCollisionAudit(history, ellipse)
	if len(violations) != 1 {
		t.Fatalf("len(violations) = %d, want 1", len(violations))
	}
	if violations[0].Time != 1 {
		t.Errorf("violation time = %f, want 1", violations[0].Time)
	}
}

func TestRunCollisionAuditCleanRun(t *testing.T) {
	ellipse := core.EllipseParams{Order: 2, RMin: 1.0, CZ: 1}
	history := []snapshot{
		{Time: 0, Positions: []core.Vec3{{X: 0, Y: 0}, {X: 5, Y: 0}}},
		{Time: 1, Positions: []core.Vec3{{X: 0, Y: 0}, {X: 4, Y: 0}}},
	}
	if v := RunCollisionAudit(history, ellipse); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}
}

func TestRunGoalAuditAtFindsMiss(t *testing.T) {
	a0 := core.NewAgent(0, core.State{Pos: core.Vec3{X: 0, Y: 0}})
	goals := []*core.Goal{core.NewStaticGoal(core.Vec3{X: 10, Y: 0})}
	commanded := []*core.Agent{a0}
	positions := []core.Vec3{{X: 0, Y: 0}}

	misses := RunGoalAuditAt(commanded, goals, positions, 0, 0.1)
	if len(misses) != 1 {
		t.Fatalf("len(misses) = %d, want 1", len(misses))
	}
}

func TestRunGoalAuditAtNoMissWhenClose(t *testing.T) {
	a0 := core.NewAgent(0, core.State{Pos: core.Vec3{X: 9.95, Y: 0}})
	goals := []*core.Goal{core.NewStaticGoal(core.Vec3{X: 10, Y: 0})}
	commanded := []*core.Agent{a0}
	positions := []core.Vec3{{X: 9.95, Y: 0}}

	if misses := RunGoalAuditAt(commanded, goals, positions, 0, 0.1); len(misses) != 0 {
		t.Errorf("expected no misses, got %v", misses)
	}
}

func TestRunAccelAuditFindsOutOfBoundsSample(t *testing.T) {
	limits := core.Limits{AMin: core.Vec3{X: -1, Y: -1, Z: -1}, AMax: core.Vec3{X: 1, Y: 1, Z: 1}}
	history := [][]core.Vec3{
		{{X: 0.5}, {X: 2}}, // second sample exceeds amax
	}

	violations := RunAccelAudit(history, limits)
	if len(violations) != 1 {
		t.Fatalf("len(violations) = %d, want 1", len(violations))
	}
	if violations[0].Index != 1 {
		t.Errorf("violation index = %d, want 1", violations[0].Index)
	}
}

func TestRunAccelAuditCleanRun(t *testing.T) {
	limits := core.UnboundedLimits()
	history := [][]core.Vec3{{{X: 1e6}, {X: -1e6}}}
	if v := RunAccelAudit(history, limits); len(v) != 0 {
		t.Errorf("expected no violations under unbounded limits, got %v", v)
	}
}

func TestWriteReportFormatsFindings(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, AuditReport{
		Collisions:  []CollisionViolation{{I: 0, J: 1, Time: 1, Distance: 0.5}},
		GoalMisses:  []GoalMiss{{Agent: 0, Distance: 2}},
		QPFallbacks: []int{3, 0},
	})
	out := buf.String()
	if out == "" {
		t.Fatal("expected non-empty report")
	}
}
