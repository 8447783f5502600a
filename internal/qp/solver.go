package qp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SolverName identifies this backend in logs and config (spec §6: solver
// selection is a named field). The name mirrors the qpOASES active-set
// backend this formulation is written against; the implementation below is
// self-contained, not a cgo binding.
const SolverName = "qpoases"

const (
	maxActiveSetIterations = 200
	boundTol               = 1e-8
)

// Solution is the result of one QP solve.
type Solution struct {
	Z          []float64
	Iterations int
}

// Finite reports whether every entry of the solution vector is a finite
// number; a solver bug or ill-conditioned KKT system can otherwise produce
// NaN/Inf that would silently corrupt the extracted horizon (spec §7.3).
func (s Solution) Finite() bool {
	for _, v := range s.Z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Solve runs a primal active-set method over Problem's non-negativity
// bounds (spec §4.3/§4.4a: the only inequalities this formulation produces
// are slack lower bounds, so equality-constrained subproblems plus a
// bound working set fully characterize the optimum). p.Aeq/p.Beq are
// re-solved once per working-set change via the standard KKT system
//
//	[H   Aeqᵀ] [z]        [-f ]
//	[Aeq  0  ] [λ]   =    [Beq]
//
// restricted to the currently free variables.
func Solve(p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	n := p.Dim()
	H := toDense(p.H)
	f := mat.NewVecDense(n, append([]float64(nil), p.F...))
	Aeq := toDense(p.Aeq)
	beq := mat.NewVecDense(len(p.Beq), append([]float64(nil), p.Beq...))

	fixed := make(map[int]bool, len(p.Bounded))
	for _, i := range p.Bounded {
		fixed[i] = true // start every slack pinned at its lower bound
	}

	z := make([]float64, n)
	var lambda *mat.VecDense

	for iter := 0; iter < maxActiveSetIterations; iter++ {
		free := freeIndices(n, fixed)

		zFree, lam, err := solveEqualityQP(H, f, Aeq, beq, free)
		if err != nil {
			return Solution{}, fmt.Errorf("qp: iteration %d: %w", iter, err)
		}
		lambda = lam

		for i := range z {
			z[i] = 0
		}
		for idx, fi := range free {
			z[fi] = zFree.AtVec(idx)
		}

		// Primal feasibility: did a free bounded variable go negative?
		worst := -boundTol
		worstIdx := -1
		for _, i := range p.Bounded {
			if fixed[i] {
				continue
			}
			if z[i] < worst {
				worst = z[i]
				worstIdx = i
			}
		}
		if worstIdx >= 0 {
			fixed[worstIdx] = true
			continue
		}

		// Dual feasibility: does any fixed bound want to release?
		mu := stationarityResidual(H, f, Aeq, z, lambda)
		worstMu := -boundTol
		releaseIdx := -1
		for _, i := range p.Bounded {
			if !fixed[i] {
				continue
			}
			if mu[i] < worstMu {
				worstMu = mu[i]
				releaseIdx = i
			}
		}
		if releaseIdx >= 0 {
			fixed[releaseIdx] = false
			continue
		}

		return Solution{Z: z, Iterations: iter + 1}, nil
	}
	return Solution{}, fmt.Errorf("qp: active-set method did not converge in %d iterations", maxActiveSetIterations)
}

// solveEqualityQP solves the equality-only QP restricted to the given free
// variable indices (all others implicitly zero), returning the free-variable
// solution and the equality multipliers.
func solveEqualityQP(H *mat.Dense, f *mat.VecDense, Aeq *mat.Dense, beq *mat.VecDense, free []int) (*mat.VecDense, *mat.VecDense, error) {
	nf := len(free)
	meq, _ := Aeq.Dims()

	Hred := selectSub(H, free, free)
	Ared := selectCols(Aeq, free)
	fred := mat.NewVecDense(nf, nil)
	for i, idx := range free {
		fred.SetVec(i, f.AtVec(idx))
	}

	size := nf + meq
	kkt := mat.NewDense(size, size, nil)
	kkt.Slice(0, nf, 0, nf).(*mat.Dense).Copy(Hred)
	if meq > 0 {
		var AredT mat.Dense
		AredT.CloneFrom(Ared.T())
		kkt.Slice(0, nf, nf, size).(*mat.Dense).Copy(&AredT)
		kkt.Slice(nf, size, 0, nf).(*mat.Dense).Copy(Ared)
	}

	rhs := mat.NewDense(size, 1, nil)
	for i := 0; i < nf; i++ {
		rhs.Set(i, 0, -fred.AtVec(i))
	}
	for i := 0; i < meq; i++ {
		rhs.Set(nf+i, 0, beq.AtVec(i))
	}

	var soln mat.Dense
	if err := soln.Solve(kkt, rhs); err != nil {
		return nil, nil, fmt.Errorf("KKT system singular: %w", err)
	}

	zFree := mat.NewVecDense(nf, nil)
	for i := 0; i < nf; i++ {
		zFree.SetVec(i, soln.At(i, 0))
	}
	lambda := mat.NewVecDense(meq, nil)
	for i := 0; i < meq; i++ {
		lambda.SetVec(i, soln.At(nf+i, 0))
	}
	return zFree, lambda, nil
}

// stationarityResidual returns mu = Hz + f + Aeqᵀλ evaluated at the full
// (reconstructed) z; for a fixed bound i, mu[i] is its Lagrange multiplier.
func stationarityResidual(H *mat.Dense, f *mat.VecDense, Aeq *mat.Dense, z []float64, lambda *mat.VecDense) []float64 {
	n := len(z)
	zVec := mat.NewVecDense(n, z)
	var hz mat.VecDense
	hz.MulVec(H, zVec)

	var atLambda mat.VecDense
	if lambda.Len() > 0 {
		atLambda.MulVec(Aeq.T(), lambda)
	} else {
		atLambda = *mat.NewVecDense(n, nil)
	}

	mu := make([]float64, n)
	for i := 0; i < n; i++ {
		mu[i] = hz.AtVec(i) + f.AtVec(i) + atLambda.AtVec(i)
	}
	return mu
}

func freeIndices(n int, fixed map[int]bool) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !fixed[i] {
			out = append(out, i)
		}
	}
	return out
}

func toDense(rows [][]float64) *mat.Dense {
	n := len(rows)
	if n == 0 {
		return mat.NewDense(0, 0, nil)
	}
	m := len(rows[0])
	out := mat.NewDense(n, m, nil)
	for i, row := range rows {
		for j, v := range row {
			out.Set(i, j, v)
		}
	}
	return out
}

func selectSub(m *mat.Dense, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.At(r, c))
		}
	}
	return out
}

func selectCols(m *mat.Dense, cols []int) *mat.Dense {
	rows, _ := m.Dims()
	out := mat.NewDense(rows, len(cols), nil)
	for i := 0; i < rows; i++ {
		for j, c := range cols {
			out.Set(i, j, m.At(i, c))
		}
	}
	return out
}

// FallbackZero returns the n-length zero vector. Nothing in this module
// calls it: planner.AgentSolver handles a failed solve by holding the
// previous horizon with a zero acceleration sequence.
func FallbackZero(n int) []float64 {
	return make([]float64, n)
}

// Residual reports max|Aeq z - beq| for diagnostic logging.
func (p *Problem) Residual(z []float64) float64 {
	worst := 0.0
	for i, row := range p.Aeq {
		sum := 0.0
		for j, a := range row {
			sum += a * z[j]
		}
		if d := math.Abs(sum - p.Beq[i]); d > worst {
			worst = d
		}
	}
	return worst
}
