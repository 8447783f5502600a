package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BezierConfig describes the piecewise Bézier parameterization shared by
// every agent's trajectory (spec §3, "Bézier segment", and §4.2).
type BezierConfig struct {
	Degree           int     // d
	NumSegments      int     // n_s
	Dim              int     // spatial dimension, always 3 here
	ContinuityDegree int     // deg_poly: derivatives continuous across joints
	SegmentDuration  float64 // t_seg, seconds
}

// NumControlPoints returns (d+1)*n_s, the control points per spatial axis.
func (c BezierConfig) NumControlPoints() int {
	return (c.Degree + 1) * c.NumSegments
}

// DecisionDim returns the flattened control-point vector length, 3*((d+1)*n_s).
func (c BezierConfig) DecisionDim() int {
	return c.Dim * c.NumControlPoints()
}

// TotalDuration returns n_s * t_seg.
func (c BezierConfig) TotalDuration() float64 {
	return c.SegmentDuration * float64(c.NumSegments)
}

// Basis precomputes the constant matrices that map a flattened control-point
// vector to stacked samples of position, velocity and acceleration over the
// prediction horizon (spec §4.2). The decision vector is laid out
// axis-major: for axis a in {x,y,z}, then segment m, then control point j.
// Sampled vectors use the same axis-major convention: row a*KHor+k holds
// axis a at horizon step k.
type Basis struct {
	Cfg  BezierConfig
	KHor int
	H    float64 // prediction step size

	PosMat *mat.Dense // (3*KHor) x DecisionDim
	VelMat *mat.Dense
	AccMat *mat.Dense

	// ContEq is the inter-segment continuity equality block: ContEq * x = 0,
	// one group of Dim*(ContinuityDegree+1) rows per internal joint
	// (spec §4.2, §4.3).
	ContEq *mat.Dense

	// singleAxisPos/Vel/Acc are the KHor x NumControlPoints per-axis bases,
	// kept to build per-axis rows cheaply (e.g. for avoider linearization).
	singleAxisPos *mat.Dense
	singleAxisVel *mat.Dense
	singleAxisAcc *mat.Dense
}

// NewBasis builds the Bézier basis matrices for the given configuration and
// horizon. h is the prediction step (spec §3: K = k_hor steps at step h).
// Horizon sample k (0-indexed) is evaluated at time (k+1)*h, since P_i holds
// only future predicted positions and the current state is handled
// separately by the initial-condition equality rows.
func NewBasis(cfg BezierConfig, kHor int, h float64) (*Basis, error) {
	if cfg.Degree < 1 {
		return nil, fmt.Errorf("bezier: degree must be >= 1, got %d", cfg.Degree)
	}
	if cfg.NumSegments < 1 {
		return nil, fmt.Errorf("bezier: num_segments must be >= 1, got %d", cfg.NumSegments)
	}
	if cfg.SegmentDuration <= 0 {
		return nil, fmt.Errorf("bezier: segment duration must be > 0, got %f", cfg.SegmentDuration)
	}
	if cfg.ContinuityDegree >= cfg.Degree {
		return nil, fmt.Errorf("bezier: continuity degree %d must be < bezier degree %d", cfg.ContinuityDegree, cfg.Degree)
	}

	numCtrl := cfg.NumControlPoints()
	b := &Basis{Cfg: cfg, KHor: kHor, H: h}

	b.singleAxisPos = mat.NewDense(kHor, numCtrl, nil)
	b.singleAxisVel = mat.NewDense(kHor, numCtrl, nil)
	b.singleAxisAcc = mat.NewDense(kHor, numCtrl, nil)

	for k := 0; k < kHor; k++ {
		t := float64(k+1) * h
		m, s := cfg.locate(t)
		fillRow(b.singleAxisPos, k, m, cfg, derivativeCoeffs(cfg.Degree, 0, s, cfg.SegmentDuration))
		fillRow(b.singleAxisVel, k, m, cfg, derivativeCoeffs(cfg.Degree, 1, s, cfg.SegmentDuration))
		fillRow(b.singleAxisAcc, k, m, cfg, derivativeCoeffs(cfg.Degree, 2, s, cfg.SegmentDuration))
	}

	b.PosMat = blockDiag3(b.singleAxisPos, cfg.Dim)
	b.VelMat = blockDiag3(b.singleAxisVel, cfg.Dim)
	b.AccMat = blockDiag3(b.singleAxisAcc, cfg.Dim)
	b.ContEq = buildContinuity(cfg)

	return b, nil
}

// locate returns the segment index and local parameter s in [0,1] for time t.
func (c BezierConfig) locate(t float64) (seg int, s float64) {
	seg = int(t / c.SegmentDuration)
	if seg >= c.NumSegments {
		seg = c.NumSegments - 1
	}
	if seg < 0 {
		seg = 0
	}
	local := t - float64(seg)*c.SegmentDuration
	s = local / c.SegmentDuration
	if s > 1 {
		s = 1
	}
	if s < 0 {
		s = 0
	}
	return seg, s
}

// fillRow writes coeffs (length d+1) into row k of dst at the column block
// belonging to segment m.
func fillRow(dst *mat.Dense, k, m int, cfg BezierConfig, coeffs []float64) {
	base := m * (cfg.Degree + 1)
	for j, c := range coeffs {
		dst.Set(k, base+j, c)
	}
}

// blockDiag3 repeats single (KxNumCtrl) along the diagonal Dim times,
// matching the axis-major decision-vector and sample-vector layout.
func blockDiag3(single *mat.Dense, dim int) *mat.Dense {
	k, n := single.Dims()
	out := mat.NewDense(dim*k, dim*n, nil)
	for a := 0; a < dim; a++ {
		out.Slice(a*k, (a+1)*k, a*n, (a+1)*n).(*mat.Dense).Copy(single)
	}
	return out
}

// binomial returns C(n, k).
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}

// bernsteinBasis returns [B_0,d(s), ..., B_d,d(s)].
func bernsteinBasis(d int, s float64) []float64 {
	out := make([]float64, d+1)
	for j := 0; j <= d; j++ {
		out[j] = binomial(d, j) * math.Pow(s, float64(j)) * math.Pow(1-s, float64(d-j))
	}
	return out
}

// derivativeCoeffs returns the length-(d+1) coefficient vector c such that
//
//	d^r/dt^r P(t) = sum_j c[j] * P_j
//
// for a degree-d Bézier segment of duration tseg evaluated at local
// parameter s = t/tseg (spec §4.2: Φ_pos/Φ_vel/Φ_acc are r=0,1,2 instances
// of this same construction; §4.3 inter-segment continuity uses it at the
// segment boundaries s=0 and s=1).
func derivativeCoeffs(d, r int, s, tseg float64) []float64 {
	coeffs := make([]float64, d+1)
	if r == 0 {
		copy(coeffs, bernsteinBasis(d, s))
		return coeffs
	}
	if r > d {
		return coeffs // d^r of a degree-d polynomial with r>d is identically zero
	}

	w := bernsteinBasis(d-r, s)
	factor := 1.0
	for i := 0; i < r; i++ {
		factor *= float64(d - i)
	}
	factor /= math.Pow(tseg, float64(r))

	for j := 0; j <= d; j++ {
		var sum float64
		for i := 0; i <= d-r; i++ {
			k := j - i
			if k < 0 || k > r {
				continue
			}
			sign := 1.0
			if (r-k)%2 != 0 {
				sign = -1.0
			}
			sum += w[i] * sign * binomial(r, k)
		}
		coeffs[j] = factor * sum
	}
	return coeffs
}

// buildContinuity assembles the inter-segment continuity equality block to
// degree ContinuityDegree (spec §4.2, §4.3). Row layout: for axis a, for
// joint m (segment m end == segment m+1 start), for derivative order
// r=0..ContinuityDegree.
func buildContinuity(cfg BezierConfig) *mat.Dense {
	joints := cfg.NumSegments - 1
	rowsPerAxis := joints * (cfg.ContinuityDegree + 1)
	numCtrl := cfg.NumControlPoints()
	single := mat.NewDense(rowsPerAxis, numCtrl, nil)

	row := 0
	for m := 0; m < joints; m++ {
		for r := 0; r <= cfg.ContinuityDegree; r++ {
			end := derivativeCoeffs(cfg.Degree, r, 1.0, cfg.SegmentDuration)
			start := derivativeCoeffs(cfg.Degree, r, 0.0, cfg.SegmentDuration)
			baseEnd := m * (cfg.Degree + 1)
			baseStart := (m + 1) * (cfg.Degree + 1)
			for j, c := range end {
				single.Set(row, baseEnd+j, c)
			}
			for j, c := range start {
				single.Set(row, baseStart+j, single.At(row, baseStart+j)-c)
			}
			row++
		}
	}

	return blockDiag3(single, cfg.Dim)
}

// InitialConditionRows returns the equality rows pinning segment 0's
// position and (if the Bézier degree allows it) velocity to the agent's
// current state (spec §4.3: "initial-state continuity"). Returned as
// (A, b) with A*x = b, x the decision vector.
func (b *Basis) InitialConditionRows(state State) (*mat.Dense, *mat.VecDense) {
	cfg := b.Cfg
	numCtrl := cfg.NumControlPoints()
	rows := 2 // position + velocity
	single := mat.NewDense(rows, numCtrl, nil)

	pos0 := derivativeCoeffs(cfg.Degree, 0, 0, cfg.SegmentDuration)
	vel0 := derivativeCoeffs(cfg.Degree, 1, 0, cfg.SegmentDuration)
	for j, c := range pos0 {
		single.Set(0, j, c)
	}
	for j, c := range vel0 {
		single.Set(1, j, c)
	}

	A := blockDiag3(single, cfg.Dim)
	rhs := mat.NewVecDense(cfg.Dim*rows, nil)
	posArr := [3]float64{state.Pos.X, state.Pos.Y, state.Pos.Z}
	velArr := [3]float64{state.Vel.X, state.Vel.Y, state.Vel.Z}
	for a := 0; a < cfg.Dim; a++ {
		rhs.SetVec(a*rows+0, posArr[a])
		rhs.SetVec(a*rows+1, velArr[a])
	}
	return A, rhs
}

// PosRow returns the single-axis position basis row for horizon step k
// (0-indexed), used by the avoiders to build one linearized collision row
// without touching the full 3*DecisionDim matrix.
func (b *Basis) PosRow(k int) []float64 {
	n := b.singleAxisPos.RawRowView(k)
	out := make([]float64, len(n))
	copy(out, n)
	return out
}

// NumCtrlPerAxis returns (d+1)*n_s.
func (b *Basis) NumCtrlPerAxis() int { return b.Cfg.NumControlPoints() }

// SegmentBreaks returns the time of each segment boundary, 0, t_seg,
// 2*t_seg, ..., n_s*t_seg (spec §4.2, "piecewise" framing), for callers that
// want to report the trajectory's segment structure without re-deriving it
// from BezierConfig.
func (b *Basis) SegmentBreaks() []float64 {
	n := b.Cfg.NumSegments
	out := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		out[i] = float64(i) * b.Cfg.SegmentDuration
	}
	return out
}

// AccRow returns the single-axis acceleration basis row for horizon step k
// (0-indexed), the Phi_acc analogue of PosRow (spec §4.3's acceleration box
// constraints).
func (b *Basis) AccRow(k int) []float64 {
	n := b.singleAxisAcc.RawRowView(k)
	out := make([]float64, len(n))
	copy(out, n)
	return out
}
