// Package dynamics implements the second-order critically-damped actuator
// model every agent in the simulation is integrated with (spec §4.1).
package dynamics

import (
	"fmt"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// AxisParams holds the damping ratio and time constant governing one axis
// group's closed-loop response to a position command (spec §4.1: "per-axis
// actuator lag").
type AxisParams struct {
	Zeta float64 // damping ratio
	Tau  float64 // time constant, seconds
}

// substeps is the RK4 subdivision count used to integrate one control step;
// stiff axis parameters (small Tau relative to Ts) need several substeps to
// stay accurate.
const substeps = 8

// Model is the per-axis second-order response
//
//	pos_dot = vel
//	vel_dot = (u - pos)/tau^2 - (2*zeta/tau)*vel
//
// applied independently to the X/Y axes (sharing XY parameters) and to Z
// (its own parameters), matching real quadrotor attitude/thrust lag where
// vertical response differs from lateral response (spec §4.1). Integration
// follows the fixed-step Runge-Kutta idiom used for the other ODE solvers
// in this codebase's lineage, subdividing each control tick into several
// RK4 substeps for accuracy.
type Model struct {
	XY AxisParams
	Z  AxisParams
	Ts float64
}

// NewModel validates axis parameters and the control step.
func NewModel(xy, z AxisParams, ts float64) (*Model, error) {
	if xy.Tau <= 0 || z.Tau <= 0 {
		return nil, fmt.Errorf("dynamics: tau must be > 0 (xy=%f, z=%f)", xy.Tau, z.Tau)
	}
	if xy.Zeta <= 0 || z.Zeta <= 0 {
		return nil, fmt.Errorf("dynamics: zeta must be > 0 (xy=%f, z=%f)", xy.Zeta, z.Zeta)
	}
	if ts <= 0 {
		return nil, fmt.Errorf("dynamics: ts must be > 0, got %f", ts)
	}
	return &Model{XY: xy, Z: z, Ts: ts}, nil
}

// axisDeriv evaluates (pos_dot, vel_dot) for one scalar axis at state (p, v)
// under constant reference u.
func axisDeriv(p AxisParams, pos, vel, u float64) (dPos, dVel float64) {
	tau2 := p.Tau * p.Tau
	dPos = vel
	dVel = (u-pos)/tau2 - (2*p.Zeta/p.Tau)*vel
	return
}

// advanceAxis integrates one scalar axis forward by m.Ts using fixed-step
// RK4 with a constant reference u held over the whole step.
func (m *Model) advanceAxis(p AxisParams, pos, vel, u float64) (float64, float64) {
	h := m.Ts / float64(substeps)
	for i := 0; i < substeps; i++ {
		k1p, k1v := axisDeriv(p, pos, vel, u)
		k2p, k2v := axisDeriv(p, pos+0.5*h*k1p, vel+0.5*h*k1v, u)
		k3p, k3v := axisDeriv(p, pos+0.5*h*k2p, vel+0.5*h*k2v, u)
		k4p, k4v := axisDeriv(p, pos+h*k3p, vel+h*k3v, u)
		pos += (h / 6) * (k1p + 2*k2p + 2*k3p + k4p)
		vel += (h / 6) * (k1v + 2*k2v + 2*k3v + k4v)
	}
	return pos, vel
}

// Advance integrates one control step forward given the commanded position
// reference u (spec §4.6, step 5: "advance each agent's true state through
// the dynamics model using the first commanded sample of its new horizon").
func (m *Model) Advance(s core.State, u core.Vec3) core.State {
	px, vx := m.advanceAxis(m.XY, s.Pos.X, s.Vel.X, u.X)
	py, vy := m.advanceAxis(m.XY, s.Pos.Y, s.Vel.Y, u.Y)
	pz, vz := m.advanceAxis(m.Z, s.Pos.Z, s.Vel.Z, u.Z)

	return core.State{
		Pos: core.Vec3{X: px, Y: py, Z: pz},
		Vel: core.Vec3{X: vx, Y: vy, Z: vz},
	}
}

// SteadyStateGain returns the DC position gain of the axis response to a
// constant reference, which is exactly 1 for this model: holding u constant
// drives vel to 0 and pos to u.
func (m *Model) SteadyStateGain() float64 {
	return 1.0
}
