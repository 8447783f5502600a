package qp

import (
	"math"
	"testing"
)

func nearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolveUnconstrainedEquality(t *testing.T) {
	// minimize 0.5x1^2 + 0.5x2^2 s.t. x1+x2=1 -> x1=x2=0.5
	p := NewProblem(2, 2)
	p.H[0][0] = 1
	p.H[1][1] = 1
	p.AddEq([]float64{1, 1}, 1)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !nearlyEqual(sol.Z[0], 0.5, 1e-9) || !nearlyEqual(sol.Z[1], 0.5, 1e-9) {
		t.Errorf("Z = %v, want [0.5 0.5]", sol.Z)
	}
}

func TestSolveActivatesBound(t *testing.T) {
	// minimize 0.5x1^2 + 0.5(x2+5)^2 + 0.5x3^2 s.t. x1+x2+x3=1, x2>=0.
	// Unconstrained optimum has x2=-3 (infeasible); bound forces x2=0 and
	// redistributes equally onto x1,x3.
	p := NewProblem(3, 3)
	p.H[0][0] = 1
	p.H[1][1] = 1
	p.H[2][2] = 1
	p.F[1] = 5
	p.AddEq([]float64{1, 1, 1}, 1)
	p.Bounded = []int{1}

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := []float64{0.5, 0, 0.5}
	for i := range want {
		if !nearlyEqual(sol.Z[i], want[i], 1e-6) {
			t.Errorf("Z[%d] = %f, want %f (Z=%v)", i, sol.Z[i], want[i], sol.Z)
		}
	}
}

func TestSolveRejectsInconsistentDims(t *testing.T) {
	p := NewProblem(2, 2)
	p.Aeq = [][]float64{{1, 1, 1}}
	p.Beq = []float64{1}
	if _, err := Solve(p); err == nil {
		t.Error("expected dimension validation error")
	}
}

func TestResidualZeroAtExactSolution(t *testing.T) {
	p := NewProblem(2, 2)
	p.H[0][0] = 1
	p.H[1][1] = 1
	p.AddEq([]float64{1, 1}, 1)
	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if r := p.Residual(sol.Z); r > 1e-9 {
		t.Errorf("Residual = %f, want ~0", r)
	}
}
