package core

// AgentID is a unique agent identifier.
type AgentID int

// Horizon is the K-step forecast of one agent's positions produced by the
// last QP solve (spec §3, "Predicted horizon"). Index 0 is the first
// prediction step after the current tick.
type Horizon []Vec3

// Clone returns a deep copy of the horizon.
func (h Horizon) Clone() Horizon {
	if h == nil {
		return nil
	}
	out := make(Horizon, len(h))
	copy(out, h)
	return out
}

// Agent is a commanded second-order body being steered toward an assigned
// goal. All agents are homogeneous: same dynamics, same ellipsoidal
// footprint (spec §1, Non-goals: no heterogeneous agents).
type Agent struct {
	ID        AgentID
	State     State
	GoalIndex int // index into the scenario's goal slice; mutated by the Reallocator via the Generator

	// Commanded is false for uncommanded bodies: static obstacles that take
	// part in collision avoidance but are never solved, reassigned, or
	// advanced by dynamics (spec §6: N total bodies, Ncmd commanded subset).
	Commanded bool

	// Horizon holds the previous replan's predicted positions, used both as
	// the avoider's linearization point and as the next replan's initial
	// guess. Nil until the first replan publishes one (a failed solve
	// publishes the held fallback horizon).
	Horizon Horizon

	// QPFellBack counts replans where the QP solver failed and the agent
	// fell back to holding its previous horizon with zero acceleration
	// (spec §4.5, §7.3).
	QPFellBack int
}

// NewAgent creates a commanded agent at the given initial state, identity
// goal index and no predicted horizon.
func NewAgent(id AgentID, start State) *Agent {
	return &Agent{ID: id, State: start, GoalIndex: int(id), Commanded: true}
}

// NewObstacle creates an uncommanded static body at the given position: no
// velocity, no goal, excluded from solving and reallocation.
func NewObstacle(id AgentID, pos Vec3) *Agent {
	return &Agent{ID: id, State: State{Pos: pos}, GoalIndex: -1, Commanded: false}
}
