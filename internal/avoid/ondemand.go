package avoid

import (
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

// OnDemand is the reactive collision avoider (spec §4.4a): it only
// contributes a row for a (neighbor, horizon step) pair whose linearized
// separation is already inside the consideration margin, leaving distant
// neighbors entirely unconstrained. A step already inside RMin itself is
// treated as recoverable via slack rather than hard-infeasible.
type OnDemand struct {
	// ConsiderationMargin extends RMin outward: pairs with linearized
	// distance in [RMin, RMin+ConsiderationMargin) get a hard row, pairs
	// beyond that get none at all (spec §4.4a: "only active violations").
	ConsiderationMargin float64
}

// NewOnDemand returns an OnDemand avoider with the given consideration
// margin (must be > 0 for the avoider to engage before a collision is
// already underway).
func NewOnDemand(margin float64) *OnDemand {
	return &OnDemand{ConsiderationMargin: margin}
}

// BuildRows implements Avoider.
func (o *OnDemand) BuildRows(idx int, agents []*core.Agent, basis *core.Basis, ellipse, ellipseObs core.EllipseParams) ([]qp.Row, error) {
	kHor := basis.KHor
	self := agents[idx]
	selfRef := referenceHorizon(self, kHor)

	var rows []qp.Row
	for j, other := range agents {
		if j == idx {
			continue
		}
		pairEllipse := neighborEllipse(other, ellipse, ellipseObs)
		otherRef := referenceHorizon(other, kHor)

		for k := 0; k < kHor; k++ {
			pi := selfRef[k]
			pj := otherRef[k]
			d, g := pairEllipse.LinearizationTerms(pi, pj)

			if d >= pairEllipse.RMin+o.ConsiderationMargin {
				continue // far enough: no row needed this step
			}

			mode := qp.ModeObstacle
			if d < pairEllipse.RMin {
				mode = qp.ModeRepel
			}

			// linearized constraint: g·p_i(k) >= d^(q-1)*(RMin - d) + g·pi
			// in A·z <= B form: (-g)·p_i(k) <= -(d^(q-1)*(RMin - d) + g·pi)
			c := offsetScale(pairEllipse, d)*(pairEllipse.RMin-d) + dot(g, pi)
			row := axisRow(basis, k, g)
			for i := range row {
				row[i] = -row[i]
			}
			rows = append(rows, qp.Row{A: row, B: -c, Mode: mode})
		}
	}
	return rows, nil
}
