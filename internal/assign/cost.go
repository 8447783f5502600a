package assign

import "github.com/elektrokombinacija/dmpc-bvc-research/internal/core"

// ReactiveCostMatrix scores agent i against goal j by straight-line distance
// from the agent's current position to the goal's position at time t (spec
// §4.7: reactive reallocation cost).
func ReactiveCostMatrix(agents []*core.Agent, goals []*core.Goal, t float64) [][]float64 {
	cost := make([][]float64, len(agents))
	for i, a := range agents {
		row := make([]float64, len(goals))
		for j, g := range goals {
			row[j] = core.Dist2(a.State.Pos, g.At(t))
		}
		cost[i] = row
	}
	return cost
}

// PredictiveCostMatrix scores agent i against goal j by sampling the
// agent's predicted horizon at a single lookahead step kStar (clamped to
// the last column if the horizon is shorter than that), against each
// goal's closed-form position at that same future time (spec §4.7:
// "sample each agent's predicted horizon at lookahead step k* = round(
// T_pred/Ts) (clamped to last column if horizon shorter). Cost matrix
// C[i][j] = ||P_i(:,k*) - g_j||").
func PredictiveCostMatrix(agents []*core.Agent, goals []*core.Goal, t, dt float64, kStar int) [][]float64 {
	cost := make([][]float64, len(agents))
	future := t + float64(kStar)*dt
	for i, a := range agents {
		p := agentReferenceAt(a, kStar)
		row := make([]float64, len(goals))
		for j, g := range goals {
			row[j] = core.Dist2(p, g.At(future))
		}
		cost[i] = row
	}
	return cost
}

// agentReferenceAt returns the agent's predicted position at horizon step
// kStar, clamped to the last available column, or its current position
// held constant if it has no predicted horizon yet.
func agentReferenceAt(a *core.Agent, kStar int) core.Vec3 {
	if len(a.Horizon) == 0 {
		return a.State.Pos
	}
	k := kStar
	if k >= len(a.Horizon) {
		k = len(a.Horizon) - 1
	}
	if k < 0 {
		k = 0
	}
	return a.Horizon[k]
}
