package assign

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// Mode selects which cost matrix MaybeReallocate builds (spec §4.7).
type Mode int

const (
	ModeReactive   Mode = iota // current agent/goal positions only
	ModePredictive             // horizon-sampled, anticipates goal motion
)

func (m Mode) String() string {
	if m == ModePredictive {
		return "predictive"
	}
	return "reactive"
}

// Reallocator decides, once per Period, whether the current agent-goal
// assignment should change, and if so computes the new optimal one. Each
// call to MaybeReallocate runs through Idle (period not yet elapsed) ->
// Sample (build the cost matrix) -> Solve (Hungarian algorithm) -> either
// back to Idle (no change) or Commit (publish the new assignment and log
// it) -> Idle (spec §4.7).
// assignment should change, and if so computes the new optimal one.
type Reallocator struct {
	Period         float64
	Mode           Mode
	HorizonSamples int
	HorizonDt      float64

	lastTime float64
	nextID   int
	csv      *csv.Writer
}

// NewReallocator builds a Reallocator. lastTime is initialized to -Period so
// the very first tick at t=0 is eligible to reallocate (spec §4.7 Open
// Question: whether t=0 counts as a reallocation opportunity — resolved
// here in favor of yes, matching the Generator's cold-start convention of
// treating tick 0 like any other). log may be nil to disable CSV logging.
func NewReallocator(period float64, mode Mode, horizonSamples int, horizonDt float64, log io.Writer) (*Reallocator, error) {
	if period <= 0 {
		return nil, fmt.Errorf("assign: period must be > 0, got %f", period)
	}
	r := &Reallocator{
		Period:         period,
		Mode:           mode,
		HorizonSamples: horizonSamples,
		HorizonDt:      horizonDt,
		lastTime:       -period,
	}
	if log != nil {
		r.csv = csv.NewWriter(log)
		header := []string{"timestamp", "reallocation_id", "agent_id", "old_goal", "new_goal", "distance", "method"}
		if err := r.csv.Write(header); err != nil {
			return nil, fmt.Errorf("assign: writing CSV header: %w", err)
		}
		r.csv.Flush()
	}
	return r, nil
}

// MaybeReallocate runs one tick of the state machine at simulated time t. It
// returns the agent indices whose goal changed (empty if none, including
// when the period hasn't elapsed) and the committed assignment.
func (r *Reallocator) MaybeReallocate(t float64, agents []*core.Agent, goals []*core.Goal) ([]int, core.Assignment, error) {
	// stateIdle
	if t-r.lastTime < r.Period {
		return nil, currentAssignment(agents), nil
	}
	r.lastTime = t

	// stateSample
	var cost [][]float64
	switch r.Mode {
	case ModePredictive:
		cost = PredictiveCostMatrix(agents, goals, t, r.HorizonDt, r.HorizonSamples)
	default:
		cost = ReactiveCostMatrix(agents, goals, t)
	}

	// stateSolve
	assignment, _, err := Hungarian(cost)
	if err != nil {
		return nil, currentAssignment(agents), fmt.Errorf("assign: %w", err)
	}

	old := currentAssignment(agents)
	changed := old.Diff(assignment)
	if len(changed) == 0 {
		return nil, old, nil // back to stateIdle: nothing to commit
	}

	// stateCommit: every agent whose target changed shares one reallocation_id
	// for this event (spec §6: "one row per changed assignment at each event").
	id := r.nextID
	r.nextID++
	for _, i := range changed {
		if err := r.logCommit(t, id, i, old[i], assignment[i], cost[i][assignment[i]]); err != nil {
			return nil, old, err
		}
	}

	return changed, assignment, nil
}

func currentAssignment(agents []*core.Agent) core.Assignment {
	a := make(core.Assignment, len(agents))
	for i, ag := range agents {
		a[i] = ag.GoalIndex
	}
	return a
}

func (r *Reallocator) logCommit(t float64, id, agent, prevGoal, newGoal int, distance float64) error {
	if r.csv == nil {
		return nil
	}
	row := []string{
		fmt.Sprintf("%f", t),
		fmt.Sprintf("%d", id),
		fmt.Sprintf("%d", agent),
		fmt.Sprintf("%d", prevGoal),
		fmt.Sprintf("%d", newGoal),
		fmt.Sprintf("%f", distance),
		r.Mode.String(),
	}
	if err := r.csv.Write(row); err != nil {
		return fmt.Errorf("assign: writing CSV row: %w", err)
	}
	r.csv.Flush()
	return r.csv.Error()
}
