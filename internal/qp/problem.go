// Package qp assembles and solves the per-agent convex quadratic program
// that produces one Bézier control-point update per replan (spec §4.3).
package qp

import "fmt"

// Mode classifies a single linearized collision row by how aggressively the
// assembler should treat the corresponding neighbor at build time (spec
// §4.4): a neighbor far outside the prediction horizon contributes no row at
// all, one approaching the separation boundary gets an ordinary bounded
// row, and one already inside it (a numerically recoverable but already
// unsafe configuration) gets a row backed by slack so the QP always stays
// feasible.
type Mode int

const (
	ModeFree     Mode = iota // neighbor ignored this row (outside consideration range)
	ModeObstacle             // hard-bounded linearized separation row
	ModeRepel                // slack-backed row: violation allowed, heavily penalized
)

func (m Mode) String() string {
	switch m {
	case ModeFree:
		return "free"
	case ModeObstacle:
		return "obstacle"
	case ModeRepel:
		return "repel"
	default:
		return "unknown"
	}
}

// Row is one linearized inequality constraint contributed by a collision
// avoider: A·x <= B over the agent's full decision vector (spec §4.4a/§4.4b,
// the Taylor-linearized half-plane d_ij(k) >= RMin). A ModeRepel row also
// carries a SlackWeight so the assembler appends a slack variable penalized
// by it in the cost instead of treating the row as hard.
type Row struct {
	A          []float64
	B          float64
	Mode       Mode
	SlackWeight float64
}

// Problem is the standard-form convex QP the solver consumes:
//
//	minimize    0.5 zᵀHz + fᵀz
//	subject to  Aeq z = Beq
//	            z[i] >= 0  for i in Bounded
//
// z is the agent's Bézier decision vector with zero or more appended slack
// variables: one per collision row and per box-constraint row, plus a
// second, penalized one per ModeRepel row that lets that row be violated
// (spec §4.3, §4.4a: "soft (slack-penalized) collision constraints").
type Problem struct {
	H    [][]float64 // symmetric, n x n
	F    []float64   // length n

	Aeq [][]float64 // m_eq x n
	Beq []float64   // length m_eq

	Bounded []int // indices of z with an implicit z[i] >= 0 lower bound

	NumControlVars int // leading block of z that is Bézier control points, not slack
}

// NewProblem allocates a zeroed Problem for n decision variables.
func NewProblem(n, numControlVars int) *Problem {
	h := make([][]float64, n)
	for i := range h {
		h[i] = make([]float64, n)
	}
	return &Problem{
		H:              h,
		F:              make([]float64, n),
		NumControlVars: numControlVars,
	}
}

// Dim returns the total number of decision variables.
func (p *Problem) Dim() int { return len(p.F) }

// AddEq appends one equality constraint row a·z = b.
func (p *Problem) AddEq(a []float64, b float64) {
	p.Aeq = append(p.Aeq, a)
	p.Beq = append(p.Beq, b)
}

// Validate checks dimensional consistency before handing the problem to a
// solver.
func (p *Problem) Validate() error {
	n := p.Dim()
	if len(p.H) != n {
		return fmt.Errorf("qp: H has %d rows, want %d", len(p.H), n)
	}
	for i, row := range p.H {
		if len(row) != n {
			return fmt.Errorf("qp: H row %d has %d cols, want %d", i, len(row), n)
		}
	}
	for i, row := range p.Aeq {
		if len(row) != n {
			return fmt.Errorf("qp: Aeq row %d has %d cols, want %d", i, len(row), n)
		}
	}
	if len(p.Aeq) != len(p.Beq) {
		return fmt.Errorf("qp: Aeq has %d rows but Beq has %d entries", len(p.Aeq), len(p.Beq))
	}
	for _, i := range p.Bounded {
		if i < 0 || i >= n {
			return fmt.Errorf("qp: bounded index %d out of range [0,%d)", i, n)
		}
	}
	return nil
}
