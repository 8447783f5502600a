package core

import "fmt"

// CollisionAvoider names the closed set of collision-avoidance constraint
// builders (spec §4.4, REDESIGN FLAGS: tagged variant in place of dynamic
// dispatch).
type CollisionAvoider int

const (
	AvoiderOnDemand CollisionAvoider = iota // reactive: linearize only active violations
	AvoiderBVC                              // proactive: Buffered Voronoi Cell half-planes
)

func (a CollisionAvoider) String() string {
	switch a {
	case AvoiderOnDemand:
		return "on_demand"
	case AvoiderBVC:
		return "bvc"
	default:
		return "unknown"
	}
}

// CostMode names the closed set of QP cost compositions (spec §4.3: "modes
// selected by a scalar threshold on the minimum ellipsoidal distance to
// neighbors along the previous horizon"). Each mode carries its own
// tracking weight (s_free/s_obs/s_repel) and smoothing weight
// (spd_f/spd_o/spd_r).
type CostMode int

const (
	CostFree     CostMode = iota // no neighbor within consideration range
	CostObstacle                 // a neighbor is within range but not yet violating
	CostRepel                    // a neighbor is currently inside the safety margin
)

func (m CostMode) String() string {
	switch m {
	case CostFree:
		return "free"
	case CostObstacle:
		return "obstacle"
	case CostRepel:
		return "repel"
	default:
		return "unknown"
	}
}

// Scenario is a complete DMPC problem instance: the agent/goal population,
// shared ellipsoidal geometry, trajectory parameterization and the
// reallocation/avoider configuration governing the whole run. It plays the
// role the teacher's Instance played for a MAPF-HET problem, adapted from
// (Workspace, Robots, Tasks, Deadline) to (Bezier/Ellipse config, Agents,
// Goals, Duration).
type Scenario struct {
	// Agents holds all N bodies; the first NCmd are commanded (solved,
	// reassignable) and the remainder are static uncommanded obstacles
	// (spec §6: "N total bodies, Ncmd commanded subset").
	Agents []*Agent
	NCmd   int
	Goals  []*Goal // length NCmd

	Ellipse         EllipseParams // commanded-body footprint
	ObstacleEllipse EllipseParams // uncommanded-body footprint
	Bezier          BezierConfig
	Limits          Limits // box constraints on position/acceleration (spec §4.3, §6)

	KHor int     // horizon length in steps, see Basis.KHor
	H    float64 // prediction step, seconds
	Ts   float64 // simulation/control step, seconds

	Avoider CollisionAvoider
	Cost    CostMode

	Duration float64 // hard simulation cutoff (seconds)
}

// CommandedAgents returns the slice of agents this scenario solves for and
// reassigns (the first NCmd entries of Agents).
func (s *Scenario) CommandedAgents() []*Agent {
	return s.Agents[:s.NCmd]
}

// NewScenario creates an empty scenario with identity goal assignment once
// agents/goals are populated by the caller, and no box constraints until
// the caller sets Limits explicitly.
func NewScenario() *Scenario {
	return &Scenario{Limits: UnboundedLimits()}
}

// Validate checks structural consistency (spec §3 invariants, §6 config
// validation): equal agent/goal counts, a feasible ellipsoidal geometry, a
// positive horizon and simulation step, and a bijective initial assignment.
func (s *Scenario) Validate() error {
	if len(s.Agents) == 0 {
		return fmt.Errorf("scenario: no agents")
	}
	if s.NCmd <= 0 || s.NCmd > len(s.Agents) {
		return fmt.Errorf("scenario: ncmd=%d must be in (0, %d]", s.NCmd, len(s.Agents))
	}
	if s.NCmd != len(s.Goals) {
		return fmt.Errorf("scenario: %d commanded agents but %d goals", s.NCmd, len(s.Goals))
	}
	if s.Ellipse.RMin <= 0 {
		return fmt.Errorf("scenario: ellipse r_min must be > 0, got %f", s.Ellipse.RMin)
	}
	if s.NCmd < len(s.Agents) && s.ObstacleEllipse.RMin <= 0 {
		return fmt.Errorf("scenario: obstacle ellipse r_min must be > 0, got %f", s.ObstacleEllipse.RMin)
	}
	if s.H <= 0 || s.Ts <= 0 {
		return fmt.Errorf("scenario: h=%f and ts=%f must both be > 0", s.H, s.Ts)
	}
	assignment := IdentityAssignment(s.NCmd)
	for i, a := range s.CommandedAgents() {
		assignment[i] = a.GoalIndex
	}
	return assignment.Validate()
}

// GoalByIndex returns the goal assigned to commanded-agent index i.
func (s *Scenario) GoalByIndex(i int) *Goal {
	return s.Goals[s.Agents[i].GoalIndex]
}
