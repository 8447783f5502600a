// Package planner ties the Bézier basis, QP assembler and collision
// avoider into the per-agent solve (spec §4.5) and the whole-scenario tick
// loop that fans those solves out every replan (spec §4.6).
package planner

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/avoid"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/qp"
)

// ErrQPFailed marks a replan that fell back to holding the previous horizon
// because the per-agent QP returned infeasible or a non-finite solution
// (spec §7.3: soft failure, simulation continues).
var ErrQPFailed = errors.New("planner: qp solve failed, holding previous horizon")

// AgentSolver runs one agent's replan: build collision rows, assemble the
// QP, solve it, and turn the solution back into a predicted horizon (spec
// §4.5).
type AgentSolver struct {
	Assembler *qp.Assembler
	Avoider   avoid.Avoider
}

// NewAgentSolver wires an assembler (fixed Bézier basis and cost weights)
// to a chosen avoider variant.
func NewAgentSolver(assembler *qp.Assembler, avoider avoid.Avoider) *AgentSolver {
	return &AgentSolver{Assembler: assembler, Avoider: avoider}
}

// Solve replans agent idx against the current population snapshot. Besides
// the predicted horizon (Φ_pos applied to the solution) it also returns the
// commanded acceleration sequence (Φ_acc applied to the solution,
// u_i(0..K-1)) that the Generator holds and applies one sample per dynamics
// micro-step between this replan and the next (spec §4.5: "Extract control
// points, evaluate Φ_pos → new P_i, Φ_acc → sampled accelerations
// u_i(0..K−1)"). On QP failure it returns the agent's previous horizon held
// with an all-zero acceleration sequence (spec §4.5, §7.3: "fall back to
// holding its previous horizon with zero acceleration") along with the
// solver error, so the caller can log the fallback and bump QPFellBack.
func (s *AgentSolver) Solve(idx int, agents []*core.Agent, goal core.Vec3, mode core.CostMode, ellipse, ellipseObs core.EllipseParams) (core.Horizon, []core.Vec3, error) {
	basis := s.Assembler.Basis
	rows, err := s.Avoider.BuildRows(idx, agents, basis, ellipse, ellipseObs)
	if err != nil {
		return holdHorizon(agents[idx], basis), zeroAccel(basis), fmt.Errorf("%w: agent %d building collision rows: %v", ErrQPFailed, idx, err)
	}

	// Mode is selected by the minimum ellipsoidal distance to neighbors
	// along the previous horizon (spec §4.3): the avoider already buckets
	// each neighbor-timestep pair into ModeObstacle/ModeRepel by exactly
	// that threshold (or emits no row at all when clear), so the worst row
	// observed this replan determines the whole agent's weight regime.
	for _, r := range rows {
		switch r.Mode {
		case qp.ModeRepel:
			mode = core.CostRepel
		case qp.ModeObstacle:
			if mode != core.CostRepel {
				mode = core.CostObstacle
			}
		}
	}

	problem, err := s.Assembler.Build(agents[idx], goal, mode, rows)
	if err != nil {
		return holdHorizon(agents[idx], basis), zeroAccel(basis), fmt.Errorf("%w: agent %d assembling QP: %v", ErrQPFailed, idx, err)
	}

	sol, err := qp.Solve(problem)
	if err != nil {
		return holdHorizon(agents[idx], basis), zeroAccel(basis), fmt.Errorf("%w: agent %d: %v", ErrQPFailed, idx, err)
	}
	if !sol.Finite() {
		return holdHorizon(agents[idx], basis), zeroAccel(basis), fmt.Errorf("%w: agent %d: non-finite solution", ErrQPFailed, idx)
	}

	return extractSamples(sol.Z, basis.PosMat, basis), extractSamples(sol.Z, basis.AccMat, basis), nil
}

// holdHorizon returns the agent's previous horizon, or a horizon frozen at
// its current position if it has never solved successfully.
func holdHorizon(agent *core.Agent, basis *core.Basis) core.Horizon {
	if len(agent.Horizon) == basis.KHor {
		return agent.Horizon.Clone()
	}
	out := make(core.Horizon, basis.KHor)
	for i := range out {
		out[i] = agent.State.Pos
	}
	return out
}

// zeroAccel returns an all-zero commanded acceleration sequence of length
// basis.KHor, the fallback input sequence held while a replan failed (spec
// §4.5, §7.3: "command zero acceleration").
func zeroAccel(basis *core.Basis) []core.Vec3 {
	return make([]core.Vec3, basis.KHor)
}

// extractSamples reads sample matrix m applied to the solved decision
// vector z back out as a Horizon-shaped slice (the leading basis.KHor*3 rows
// of m*z, axis-major). Used for both Φ_pos (PosMat) and Φ_acc (AccMat).
func extractSamples(z []float64, m *mat.Dense, basis *core.Basis) core.Horizon {
	kHor := basis.KHor
	out := make(core.Horizon, kHor)
	samples := make([]float64, 3*kHor)
	for r := 0; r < 3*kHor; r++ {
		var sum float64
		for c := 0; c < basis.Cfg.DecisionDim(); c++ {
			sum += m.At(r, c) * z[c]
		}
		samples[r] = sum
	}
	for k := 0; k < kHor; k++ {
		out[k] = core.Vec3{X: samples[0*kHor+k], Y: samples[1*kHor+k], Z: samples[2*kHor+k]}
	}
	return out
}
