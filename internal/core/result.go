package core

import "math"

// Sample is one recorded tick of the simulated trajectory for a single
// agent (spec §6: trajectory output files are per-tick position/velocity
// records).
type Sample struct {
	Time float64
	State
}

// Result accumulates the outcome of a full simulation run: each agent's
// executed trajectory, when (if ever) it reached its goal, and the final
// assignment in force at the end of the run. It plays the role the
// teacher's Solution played for a MAPF-HET run, adapted from
// (Assignment, Paths, Schedule, Makespan, Feasible) to the continuous,
// per-tick record a DMPC run produces.
type Result struct {
	FinalAssignment Assignment
	Trajectories    [][]Sample // index by agent
	ReachedAt       []float64  // index by agent; math.Inf(1) if never reached
	Makespan        float64
	Feasible        bool
}

// NewResult allocates a Result for n agents.
func NewResult(n int) *Result {
	r := &Result{
		FinalAssignment: IdentityAssignment(n),
		Trajectories:    make([][]Sample, n),
		ReachedAt:       make([]float64, n),
	}
	for i := range r.ReachedAt {
		r.ReachedAt[i] = math.Inf(1)
	}
	return r
}

// RecordTick appends one sample per agent at simulated time t.
func (r *Result) RecordTick(t float64, states []State) {
	for i, s := range states {
		r.Trajectories[i] = append(r.Trajectories[i], Sample{Time: t, State: s})
	}
}

// MarkReached records the first time agent i satisfies its goal, idempotently.
func (r *Result) MarkReached(i int, t float64) {
	if t < r.ReachedAt[i] {
		r.ReachedAt[i] = t
	}
}

// ComputeMakespan sets and returns the time the last agent reached its goal.
// Feasible is false if any agent never reached (spec §7: a run that never
// converges is not a success, but its trajectories are still reported).
func (r *Result) ComputeMakespan() float64 {
	makespan := 0.0
	feasible := true
	for _, t := range r.ReachedAt {
		if math.IsInf(t, 1) {
			feasible = false
			continue
		}
		if t > makespan {
			makespan = t
		}
	}
	r.Makespan = makespan
	r.Feasible = feasible
	return makespan
}

// MeetDeadline reports whether every agent reached its goal by deadline.
func (r *Result) MeetDeadline(deadline float64) bool {
	for _, t := range r.ReachedAt {
		if t > deadline {
			return false
		}
	}
	return true
}
