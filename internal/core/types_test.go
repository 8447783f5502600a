package core

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -1, 0.5}

	if got := a.Add(b); got != (Vec3{5, 1, 3.5}) {
		t.Errorf("Add = %v, want {5 1 3.5}", got)
	}
	if got := a.Sub(b); got != (Vec3{-3, 3, 2.5}) {
		t.Errorf("Sub = %v, want {-3 3 2.5}", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want {2 4 6}", got)
	}
}

func TestDist2(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if got := Dist2(a, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("Dist2 = %f, want 5", got)
	}
}

func TestEllipsoidalDistanceIsotropicMatchesEuclidean(t *testing.T) {
	e := EllipseParams{Order: 2, RMin: 1, CZ: 1}
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if got := e.EllipsoidalDistance(a, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("EllipsoidalDistance = %f, want 5", got)
	}
}

func TestEllipsoidalDistanceVerticalStretch(t *testing.T) {
	e := EllipseParams{Order: 2, RMin: 1, CZ: 2}
	a := Vec3{0, 0, 0}
	b := Vec3{0, 0, 4}
	// scaled z separation is 4/2 = 2
	if got := e.EllipsoidalDistance(a, b); math.Abs(got-2) > 1e-9 {
		t.Errorf("EllipsoidalDistance = %f, want 2", got)
	}
}

func TestEllipsoidalDistanceSymmetric(t *testing.T) {
	e := EllipseParams{Order: 4, RMin: 1, CZ: 1.5}
	a := Vec3{1, -2, 0.3}
	b := Vec3{-4, 5, 1.1}
	if math.Abs(e.EllipsoidalDistance(a, b)-e.EllipsoidalDistance(b, a)) > 1e-9 {
		t.Error("EllipsoidalDistance is not symmetric")
	}
}

func TestLinearizationTermsMatchDirectDistance(t *testing.T) {
	e := EllipseParams{Order: 2, RMin: 0.5, CZ: 1}
	pi := Vec3{2, 1, 0}
	pj := Vec3{0, 0, 0}
	d, g := e.LinearizationTerms(pi, pj)
	want := e.EllipsoidalDistance(pi, pj)
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("d = %f, want %f", d, want)
	}
	if g == (Vec3{}) {
		t.Error("gradient should be nonzero for distinct points")
	}
}

func TestEllipseParamsDefaultsOrderAndCZ(t *testing.T) {
	e := EllipseParams{RMin: 1}
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if got := e.EllipsoidalDistance(a, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("EllipsoidalDistance with zero Order/CZ = %f, want 5 (defaults to q=2, c_z=1)", got)
	}
}
