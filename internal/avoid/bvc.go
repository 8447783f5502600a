package avoid

import (
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

// bvcDilation is the standard Buffered Voronoi Cell safety dilation factor
// (spec §4.4b: "dilation factor α=3").
const bvcDilation = 3.0

// BVC is the proactive collision avoider (spec §4.4b): it draws the same
// linearized half-plane On-Demand does for every (neighbor, horizon step)
// pair, but triggers at a wider threshold — Alpha*RMin instead of RMin plus
// a small margin — so a constraint is already in place well before a
// violation is imminent. Scanning the whole previous horizon rather than
// just the current position lets each plane lead the predicted relative
// motion instead of freezing a single bisector for the whole horizon.
type BVC struct {
	// Alpha dilates RMin into the consideration threshold: a (neighbor,
	// step) pair with linearized distance below Alpha*RMin earns a row
	// (spec §4.4b default alpha=3). Alpha <= 0 falls back to bvcDilation.
	Alpha float64
}

// NewBVC returns a BVC avoider with the given dilation factor (<=0 uses the
// spec default of 3).
func NewBVC(alpha float64) *BVC {
	return &BVC{Alpha: alpha}
}

func (b *BVC) alpha() float64 {
	if b.Alpha <= 0 {
		return bvcDilation
	}
	return b.Alpha
}

// BuildRows implements Avoider.
func (b *BVC) BuildRows(idx int, agents []*core.Agent, basis *core.Basis, ellipse, ellipseObs core.EllipseParams) ([]qp.Row, error) {
	kHor := basis.KHor
	self := agents[idx]
	selfRef := referenceHorizon(self, kHor)
	alpha := b.alpha()

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

			if d >= alpha*pairEllipse.RMin {
				continue // clear of the dilated cell: no plane needed this step
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
