// Package avoid builds the linearized collision-avoidance rows each
// agent's QP is assembled with (spec §4.4): the On-Demand (reactive) and
// Buffered Voronoi Cell (proactive) variants share the same Taylor
// linearization from internal/core but differ in when a neighbor earns a
// row and how conservatively that row is drawn.
package avoid

import (
	"math"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

// Avoider builds the collision rows for agent idx against every other agent
// in agents, given the shared Bézier basis and the two ellipsoidal geometry
// profiles: ellipse for commanded neighbors, ellipseObs for uncommanded
// obstacle bodies (spec §4.4a/§4.4b, §6 "Collision geometry").
type Avoider interface {
	BuildRows(idx int, agents []*core.Agent, basis *core.Basis, ellipse, ellipseObs core.EllipseParams) ([]qp.Row, error)
}

// neighborEllipse selects the ellipsoidal footprint to use for a given
// neighbor: its own profile if commanded, the shared obstacle profile
// otherwise.
func neighborEllipse(neighbor *core.Agent, commanded, obstacle core.EllipseParams) core.EllipseParams {
	if neighbor.Commanded {
		return commanded
	}
	return obstacle
}

// referenceHorizon returns the K predicted positions used as the
// linearization point for an agent: its previous solve's horizon if one
// exists, or its current position held constant otherwise (spec §4.4,
// cold-start case before any QP has been solved).
func referenceHorizon(agent *core.Agent, kHor int) core.Horizon {
	if len(agent.Horizon) == kHor {
		return agent.Horizon
	}
	out := make(core.Horizon, kHor)
	for i := range out {
		out[i] = agent.State.Pos
	}
	return out
}

// axisRow builds the full decision-vector row (length basis.Cfg.DecisionDim())
// representing g·P_i(k) for a single horizon step k, i.e. the sum over axes
// of g's component times the single-axis position basis row at k, placed in
// that axis's block of the agent's decision vector.
func axisRow(basis *core.Basis, k int, g core.Vec3) []float64 {
	numCtrl := basis.NumCtrlPerAxis()
	row := make([]float64, 3*numCtrl)
	posRow := basis.PosRow(k)
	comps := [3]float64{g.X, g.Y, g.Z}
	for a := 0; a < 3; a++ {
		for j, v := range posRow {
			row[a*numCtrl+j] = comps[a] * v
		}
	}
	return row
}

func dot(g core.Vec3, p core.Vec3) float64 {
	return g.X*p.X + g.Y*p.Y + g.Z*p.Z
}

// offsetScale returns d^(q-1), the factor the first-order Taylor expansion
// of the q-norm constraint ||E^-1(p_i-p_j)||_q >= RMin applies to (RMin-d)
// on top of the gradient term g·p_i(k) (spec §4.4a: "b = -d^(q-1)*(r_min-d)
// - g·P_i(k)"). For q=2 this is just d itself; both avoiders share it so
// On-Demand and BVC linearize identically.
func offsetScale(e core.EllipseParams, d float64) float64 {
	q := float64(e.Order)
	if e.Order <= 0 {
		q = 2
	}
	return math.Pow(d, q-1)
}
