// Package core defines the domain model for distributed MPC trajectory
// generation: agent state, goals, ellipsoidal separation geometry, and the
// Bézier basis shared by the QP assembler and the collision avoiders.
package core

import "math"

// Vec3 is a point or vector in three-dimensional space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a scaled by s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Norm2 returns the Euclidean (2-)norm of a.
func (a Vec3) Norm2() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Dist2 returns the Euclidean distance between a and b.
func Dist2(a, b Vec3) float64 {
	return a.Sub(b).Norm2()
}

// State is the second-order state of one agent: position and velocity.
type State struct {
	Pos Vec3
	Vel Vec3
}

// Limits is the box constraint set on sampled position and acceleration
// that every agent's QP must satisfy as a hard inequality (spec §4.3,
// §6 "limits { pmin, pmax, amin, amax }", §8: both are invariants, not
// merely audited after the fact). A component left at +/-Inf is treated
// as unconstrained on that axis.
type Limits struct {
	PMin, PMax Vec3
	AMin, AMax Vec3
}

// UnboundedLimits returns a Limits with every bound at +/-Inf, i.e. no box
// constraints at all.
func UnboundedLimits() Limits {
	inf := math.Inf(1)
	unb := Vec3{inf, inf, inf}
	neg := Vec3{-inf, -inf, -inf}
	return Limits{PMin: neg, PMax: unb, AMin: neg, AMax: unb}
}

// EllipseParams describes the anisotropic ellipsoidal footprint used for
// all collision-distance computations (spec §3, "Ellipse").
type EllipseParams struct {
	Order int     // q, the q-norm order (2, 4, 6, ...)
	RMin  float64 // minimum separation in the scaled (ellipsoidal) metric
	CZ    float64 // vertical stretch factor c_z >= 1; c_x = c_y = 1
}

// scale returns the per-axis anisotropy vector E = diag(1, 1, c_z).
func (e EllipseParams) scale() Vec3 {
	cz := e.CZ
	if cz <= 0 {
		cz = 1
	}
	return Vec3{1, 1, cz}
}

// EllipsoidalDistance returns ||E^-1 (a - b)||_q, the universal separation
// metric used throughout the collision-avoidance logic.
func (e EllipseParams) EllipsoidalDistance(a, b Vec3) float64 {
	d := a.Sub(b)
	s := e.scale()
	ex, ey, ez := d.X/s.X, d.Y/s.Y, d.Z/s.Z
	q := float64(e.Order)
	if e.Order <= 0 {
		q = 2
	}
	sum := math.Pow(math.Abs(ex), q) + math.Pow(math.Abs(ey), q) + math.Pow(math.Abs(ez), q)
	return math.Pow(sum, 1/q)
}

// LinearizationTerms returns the first-order Taylor expansion ingredients
// both avoiders use to turn d_ij(k) >= RMin into a half-plane about a
// reference pair (pi, pj):
//
//	e = E^-1 (pi - pj), d = ||e||_q, g = (E^-2 (pi - pj))^(q-1) component-wise
func (e EllipseParams) LinearizationTerms(pi, pj Vec3) (d float64, g Vec3) {
	diff := pi.Sub(pj)
	s := e.scale()
	q := float64(e.Order)
	if e.Order <= 0 {
		q = 2
	}

	ex, ey, ez := diff.X/s.X, diff.Y/s.Y, diff.Z/s.Z
	sum := math.Pow(math.Abs(ex), q) + math.Pow(math.Abs(ey), q) + math.Pow(math.Abs(ez), q)
	d = math.Pow(sum, 1/q)

	pow := func(v, scl float64) float64 {
		base := v / (scl * scl)
		if q-1 == 1 {
			return base
		}
		sign := 1.0
		if base < 0 {
			sign = -1
		}
		return sign * math.Pow(math.Abs(base), q-1)
	}
	g = Vec3{
		X: pow(diff.X, s.X),
		Y: pow(diff.Y, s.Y),
		Z: pow(diff.Z, s.Z),
	}
	return d, g
}
