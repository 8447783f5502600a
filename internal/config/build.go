package config

import (
	"fmt"
	"strings"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/assign"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/avoid"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/dynamics"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/planner"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

// Run bundles every object a loaded Document resolves into: the scenario
// plus the collaborators the simulator (internal/sim) drives it with. This
// mirrors the way the teacher's own test-instance builders hand back a
// ready-to-run struct rather than a pile of loose return values.
type Run struct {
	Scenario *core.Scenario
	Basis    *core.Basis
	Dynamics *dynamics.Model
	Solver   *planner.AgentSolver
	Avoider  avoid.Avoider

	ReallocationEnabled bool
	ReallocationPeriod  float64
	ReallocationMode    assign.Mode
	PredictionHorizon   float64 // seconds
	PredictionDt        float64

	StdPosition float64
	StdVelocity float64
	Seed        int64

	CollisionCheck core.EllipseParams
	GoalTolerance  float64

	SimulationDuration      float64
	OutputTrajectoriesPaths []string
	OutputGoalsPaths        []string
	ReallocationLogPath     string
}

// Build validates d and resolves it into a runnable Run (spec §6: "the
// loaded document is validated, then turned into the in-memory objects the
// rest of the system consumes"; spec §3 invariants on geometry/timing).
func (d *Document) Build() (*Run, error) {
	if err := d.validate(); err != nil {
		return nil, &Error{Stage: "validate", Path: "", Err: err}
	}

	bezier := core.BezierConfig{
		Degree:           d.Degree,
		NumSegments:      d.NumSegments,
		Dim:              d.Dim,
		ContinuityDegree: d.DegPoly,
		SegmentDuration:  d.TSegment,
	}
	basis, err := core.NewBasis(bezier, d.KHor, d.H)
	if err != nil {
		return nil, fmt.Errorf("config: building basis: %w", err)
	}

	agents := make([]*core.Agent, d.N)
	goals := make([]*core.Goal, d.Ncmd)
	for i := 0; i < d.N; i++ {
		pos := vec3(d.Po[i])
		if i < d.Ncmd {
			a := core.NewAgent(core.AgentID(i), core.State{Pos: pos})
			a.GoalIndex = i
			agents[i] = a
		} else {
			agents[i] = core.NewObstacle(core.AgentID(i), pos)
		}
	}
	for i := 0; i < d.Ncmd; i++ {
		goals[i] = buildGoal(d, vec3(d.Pf[i]))
	}

	limits := core.Limits{
		PMin: vec3(d.PMin), PMax: vec3(d.PMax),
		AMin: vec3(d.AMin), AMax: vec3(d.AMax),
	}

	scenario := &core.Scenario{
		Agents:          agents,
		NCmd:            d.Ncmd,
		Goals:           goals,
		Ellipse:         core.EllipseParams{Order: d.Order, RMin: d.RMin, CZ: d.HeightScaling},
		ObstacleEllipse: core.EllipseParams{Order: d.OrderObs, RMin: d.RMinObs, CZ: d.HeightScalingObs},
		Bezier:          bezier,
		Limits:          limits,
		KHor:            d.KHor,
		H:               d.H,
		Ts:              d.Ts,
		Avoider:         avoiderFromString(d.CollisionMethod),
		Cost:            core.CostFree,
		Duration:        d.SimulationDuration,
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	dyn, err := dynamics.NewModel(
		dynamics.AxisParams{Zeta: d.ZetaXY, Tau: d.TauXY},
		dynamics.AxisParams{Zeta: d.ZetaZ, Tau: d.TauZ},
		d.Ts,
	)
	if err != nil {
		return nil, fmt.Errorf("config: building dynamics model: %w", err)
	}

	weights := qp.Weights{
		GoalFree:       d.SFree,
		GoalObstacle:   d.SObs,
		GoalRepel:      d.SRepel,
		SmoothFree:     d.SpdF,
		SmoothObstacle: d.SpdO,
		SmoothRepel:    d.SpdR,
		Acc:            d.AccCost,
		SlackBase:      d.QuadColl,
		LinSlack:       d.LinColl,
	}
	asm := qp.NewAssembler(basis, weights, limits)

	var avoider avoid.Avoider
	switch scenario.Avoider {
	case core.AvoiderBVC:
		avoider = avoid.NewBVC(bvcAlpha)
	default:
		avoider = avoid.NewOnDemand(d.RMin * onDemandMarginFactor)
	}
	solver := planner.NewAgentSolver(asm, avoider)

	mode := assign.ModeReactive
	if d.UsePredictive {
		mode = assign.ModePredictive
	}

	return &Run{
		Scenario: scenario,
		Basis:    basis,
		Dynamics: dyn,
		Solver:   solver,
		Avoider:  avoider,

		ReallocationEnabled: d.ReallocationEnabled,
		ReallocationPeriod:  d.ReallocationPeriod,
		ReallocationMode:    mode,
		PredictionHorizon:   d.PredictionHorizon,
		PredictionDt:        d.H,

		StdPosition: d.StdPosition,
		StdVelocity: d.StdVelocity,
		Seed:        d.Seed,

		CollisionCheck: core.EllipseParams{
			Order: d.CollisionCheckOrder,
			RMin:  d.CollisionCheckRMin,
			CZ:    d.CollisionCheckHeightScaling,
		},
		GoalTolerance: d.GoalTolerance,

		SimulationDuration:      d.SimulationDuration,
		OutputTrajectoriesPaths: d.OutputTrajectoriesPaths,
		OutputGoalsPaths:        d.OutputGoalsPaths,
		ReallocationLogPath:     d.ReallocationLogPath,
	}, nil
}

// bvcAlpha is the BVC avoider's dilation factor around r_min (spec §4.4b
// default alpha=3; absent a dedicated config key, every scenario gets the
// spec's default).
const bvcAlpha = 3.0

// onDemandMarginFactor sizes the On-Demand avoider's consideration margin
// relative to r_min absent a dedicated config key (spec §6 names no such
// key; §4.4a only requires the margin be positive).
const onDemandMarginFactor = 0.5

func buildGoal(d *Document, pf core.Vec3) *core.Goal {
	switch {
	case strings.EqualFold(d.MotionType, "circular"):
		return core.NewCircularGoal(pf, d.GoalCircularRadius, d.GoalCircularOmega, 0)
	case strings.EqualFold(d.MotionType, "translation"):
		return core.NewTranslatingGoal(pf, vec3(d.GoalTranslationVel))
	default:
		return core.NewStaticGoal(pf)
	}
}

func avoiderFromString(s string) core.CollisionAvoider {
	if strings.EqualFold(s, "BVC") {
		return core.AvoiderBVC
	}
	return core.AvoiderOnDemand
}

func vec3(a [3]float64) core.Vec3 {
	return core.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// validate checks the structural preconditions Build relies on before it
// starts constructing objects (spec §6 config validation).
func (d *Document) validate() error {
	if d.N <= 0 {
		return fmt.Errorf("N must be > 0, got %d", d.N)
	}
	if d.Ncmd <= 0 || d.Ncmd > d.N {
		return fmt.Errorf("Ncmd=%d must be in (0, %d]", d.Ncmd, d.N)
	}
	if len(d.Po) != d.N {
		return fmt.Errorf("po has %d entries, want N=%d", len(d.Po), d.N)
	}
	if len(d.Pf) != d.Ncmd {
		return fmt.Errorf("pf has %d entries, want Ncmd=%d", len(d.Pf), d.Ncmd)
	}
	if d.KHor <= 0 {
		return fmt.Errorf("k_hor must be > 0, got %d", d.KHor)
	}
	if d.H <= 0 || d.Ts <= 0 {
		return fmt.Errorf("h=%f and ts=%f must both be > 0", d.H, d.Ts)
	}
	if !enumOK(d.Solver, "qpoases") {
		return fmt.Errorf("solver %q not recognized, want one of {qpoases}", d.Solver)
	}
	if !enumOK(d.CollisionMethod, "ONDemand", "BVC") {
		return fmt.Errorf("collision_method %q not recognized, want one of {ONDemand, BVC}", d.CollisionMethod)
	}
	if !enumOK(d.Test, "default", "random") {
		return fmt.Errorf("test %q not recognized, want one of {default, random}", d.Test)
	}
	if !enumOK(d.MotionType, "static", "translation", "circular") {
		return fmt.Errorf("motion_type %q not recognized, want one of {static, translation, circular}", d.MotionType)
	}
	return nil
}

// enumOK reports whether v case-insensitively matches one of allowed, or is
// empty (an unset field defers to its built-in default rather than erroring).
func enumOK(v string, allowed ...string) bool {
	if v == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
