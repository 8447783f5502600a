package qp

import (
	"fmt"
	"math"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// Weights holds the per-term cost coefficients that compose the QP
// objective (spec §4.3). Goal tracking and input smoothness each carry a
// distinct weight per core.CostMode (s_free/s_obs/s_repel and
// spd_f/spd_o/spd_r); Acc and the slack penalties are mode-independent.
type Weights struct {
	GoalFree, GoalObstacle, GoalRepel       float64
	SmoothFree, SmoothObstacle, SmoothRepel float64
	Acc       float64
	SlackBase float64 // quad_coll: default quadratic penalty for ModeRepel rows that don't set their own weight
	LinSlack  float64 // lin_coll: linear penalty applied to every ModeRepel row's slack (spec §4.3)
}

// goalWeight returns the tracking weight for mode (s_free/s_obs/s_repel).
func (w Weights) goalWeight(mode core.CostMode) float64 {
	switch mode {
	case core.CostObstacle:
		return w.GoalObstacle
	case core.CostRepel:
		return w.GoalRepel
	default:
		return w.GoalFree
	}
}

// smoothWeight returns the input-smoothness weight for mode
// (spd_f/spd_o/spd_r).
func (w Weights) smoothWeight(mode core.CostMode) float64 {
	switch mode {
	case core.CostObstacle:
		return w.SmoothObstacle
	case core.CostRepel:
		return w.SmoothRepel
	default:
		return w.SmoothFree
	}
}

// Assembler builds one agent's QP from its Bézier basis, goal and the
// linearized collision rows an avoider contributed (spec §4.3, §4.4).
type Assembler struct {
	Basis   *core.Basis
	Weights Weights
	Limits  core.Limits
}

// NewAssembler constructs an Assembler over a fixed (shared) Bézier basis
// and box constraint set.
func NewAssembler(basis *core.Basis, w Weights, limits core.Limits) *Assembler {
	return &Assembler{Basis: basis, Weights: w, Limits: limits}
}

// Build assembles the full QP for one agent. rows are the linearized
// collision constraints contributed by the active avoider (internal/avoid);
// ModeFree rows are ignored, ModeObstacle rows become hard (unpenalized
// slack) constraints, ModeRepel rows become penalized-slack constraints
// (spec §4.3: "soft (slack-penalized) collision constraints").
func (asm *Assembler) Build(agent *core.Agent, goal core.Vec3, mode core.CostMode, rows []Row) (*Problem, error) {
	basis := asm.Basis
	decisionDim := basis.Cfg.DecisionDim()
	boxRows := boxConstraintRows(basis, asm.Limits)

	numSlack := 0
	for _, r := range rows {
		if r.Mode != ModeFree {
			numSlack++
		}
		if r.Mode == ModeRepel {
			numSlack++ // second, penalized slack that lets the row be violated
		}
	}
	numSlack += len(boxRows)

	n := decisionDim + numSlack
	p := NewProblem(n, decisionDim)

	addQuadraticForm(p, basis.PosMat, goalVector(goal, basis.KHor), asm.Weights.goalWeight(mode))
	addQuadraticForm(p, basis.AccMat, nil, asm.Weights.Acc)
	if w := asm.Weights.smoothWeight(mode); w > 0 {
		addQuadraticForm(p, basis.AccMat, nil, w)
	}

	addRows(p.AddEq, basis.ContEq, nil)
	initA, initB := basis.InitialConditionRows(agent.State)
	addRows(p.AddEq, initA, initB)

	slackIdx := decisionDim
	for _, r := range rows {
		if r.Mode == ModeFree {
			continue
		}
		if len(r.A) != decisionDim {
			return nil, fmt.Errorf("qp: collision row has %d coefficients, want %d", len(r.A), decisionDim)
		}
		row := make([]float64, n)
		copy(row, r.A)
		row[slackIdx] = 1
		p.Bounded = append(p.Bounded, slackIdx)
		slackIdx++

		if r.Mode == ModeRepel {
			// A·z + s - e = B with s, e >= 0 relaxes the row to A·z <= B + e;
			// the violation e is what the slack penalty is charged on.
			w := r.SlackWeight
			if w <= 0 {
				w = asm.Weights.SlackBase
			}
			row[slackIdx] = -1
			p.Bounded = append(p.Bounded, slackIdx)
			p.H[slackIdx][slackIdx] += 2 * w
			p.F[slackIdx] += asm.Weights.LinSlack
			slackIdx++
		}
		p.AddEq(row, r.B)
	}

	// Box inequalities (spec §4.3: "per-step position/acceleration within
	// [p_min,p_max]/[a_min,a_max], via Phi_pos/Phi_acc"). Each bound becomes
	// a hard equality-plus-nonnegative-slack row, the same elastic-free
	// encoding used for the collision rows above but with no cost term:
	// these are genuine box constraints, not soft preferences.
	for _, r := range boxRows {
		row := make([]float64, n)
		copy(row, r.A)
		row[slackIdx] = 1
		p.AddEq(row, r.B)
		p.Bounded = append(p.Bounded, slackIdx)
		slackIdx++
	}

	return p, nil
}

// boxConstraintRows turns the assembler's position/acceleration Limits into
// the elastic-equality row form the solver's active-set bounds machinery
// consumes: a·z + s = b, s >= 0 <=> a·z <= b. Infinite bounds are skipped
// (spec §6: pmin/pmax/amin/amax may leave an axis unconstrained).
func boxConstraintRows(basis *core.Basis, limits core.Limits) []Row {
	var rows []Row
	kHor := basis.KHor
	for axis := 0; axis < 3; axis++ {
		pMin, pMax := axisComponent(limits.PMin, axis), axisComponent(limits.PMax, axis)
		aMin, aMax := axisComponent(limits.AMin, axis), axisComponent(limits.AMax, axis)
		for k := 0; k < kHor; k++ {
			rows = append(rows, boxRowsForSample(basis.PosRow(k), basis.NumCtrlPerAxis(), axis, k, pMin, pMax)...)
			rows = append(rows, boxRowsForSample(basis.AccRow(k), basis.NumCtrlPerAxis(), axis, k, aMin, aMax)...)
		}
	}
	return rows
}

// boxRowsForSample builds up to two rows (upper, lower) bounding one
// sampled scalar quantity (position or acceleration) at horizon step k on
// one axis, placing singleAxis (length NumCtrlPerAxis) into that axis's
// block of the full decision vector.
func boxRowsForSample(singleAxis []float64, numCtrl, axis, k int, min, max float64) []Row {
	var rows []Row
	full := make([]float64, 3*numCtrl)
	copy(full[axis*numCtrl:(axis+1)*numCtrl], singleAxis)

	if !math.IsInf(max, 0) {
		rows = append(rows, Row{A: full, B: max})
	}
	if !math.IsInf(min, 0) {
		neg := make([]float64, len(full))
		for i, v := range full {
			neg[i] = -v
		}
		rows = append(rows, Row{A: neg, B: -min})
	}
	return rows
}

func axisComponent(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// goalVector repeats the goal position axis-major across K horizon steps,
// matching core.Basis's sample-vector layout.
func goalVector(goal core.Vec3, k int) []float64 {
	out := make([]float64, 3*k)
	comp := [3]float64{goal.X, goal.Y, goal.Z}
	for a := 0; a < 3; a++ {
		for i := 0; i < k; i++ {
			out[a*k+i] = comp[a]
		}
	}
	return out
}

// denseMatrix is the minimal read interface addQuadraticForm needs, so it
// accepts both *mat.Dense and the equality-block matrices built in core.
type denseMatrix interface {
	Dims() (int, int)
	At(i, j int) float64
}

// addQuadraticForm accumulates w*||A*z[:cols(A)] - b||^2 into p's H/F as
// 0.5 zᵀHz + fᵀz + const (spec §4.3's quadratic tracking/energy terms). A
// nil b is treated as the zero vector (pure energy terms have no target).
func addQuadraticForm(p *Problem, A denseMatrix, b []float64, w float64) {
	if w == 0 {
		return
	}
	rows, cols := A.Dims()
	for i := 0; i < cols; i++ {
		for j := 0; j < cols; j++ {
			var sum float64
			for k := 0; k < rows; k++ {
				sum += A.At(k, i) * A.At(k, j)
			}
			p.H[i][j] += 2 * w * sum
		}
	}
	if b == nil {
		return
	}
	for i := 0; i < cols; i++ {
		var sum float64
		for k := 0; k < rows; k++ {
			sum += A.At(k, i) * b[k]
		}
		p.F[i] += -2 * w * sum
	}
}

// addRows copies every row of A (with optional rhs b, defaulting to 0) into
// dst via addEq(row, rhs).
func addRows(addEq func([]float64, float64), A denseMatrix, b denseVector) {
	if A == nil {
		return
	}
	rows, cols := A.Dims()
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = A.At(i, j)
		}
		rhs := 0.0
		if b != nil {
			rhs = b.AtVec(i)
		}
		addEq(row, rhs)
	}
}

type denseVector interface {
	AtVec(i int) float64
}
