package planner

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
	"github.com/elektrokombinacija/dmpc-bvc-research/internal/dynamics"
)

// TickReport summarizes one Generator.Replan call for the caller's logging
// and audit trail (spec §4.6, §7.3).
type TickReport struct {
	Time     float64
	Fallback []int // agent indices that fell back to holding their previous horizon
}

// Generator runs the whole-scenario replan loop: every replan it fans one QP
// solve out per agent against the PREVIOUS replan's published horizons (so no
// agent's replan this tick depends on another agent's replan this tick),
// waits for the barrier, and publishes the new horizons and commanded
// acceleration sequences atomically under a single mutex (spec §4.6, §8:
// "single-threaded cooperative tick loop with barrier-synchronous per-agent
// QP fan-out, no intra-tick feedback"). Dynamics advance at a separate,
// faster rate via AdvanceDynamics, which consumes the held acceleration
// sequence one sample per call (spec §4.8: "dynamics step Ts and replan
// ratio m = h / Ts"). The mutex-guarded snapshot-swap mirrors the one-
// writer/many-reader publication pattern used for slack-field updates
// elsewhere in this codebase's lineage, adapted here to agent horizons
// instead of a scalar field.
type Generator struct {
	mu        sync.RWMutex
	scenario  *core.Scenario
	solver    *AgentSolver
	dyn       *dynamics.Model
	time      float64
	accelSeq  [][]core.Vec3 // per agent, length KHor once a replan has published one; nil for uncommanded agents
}

// NewGenerator wires a scenario, its per-agent solver and the shared
// dynamics model into one tick loop.
func NewGenerator(scenario *core.Scenario, solver *AgentSolver, dyn *dynamics.Model) *Generator {
	return &Generator{
		scenario: scenario,
		solver:   solver,
		dyn:      dyn,
		accelSeq: make([][]core.Vec3, len(scenario.Agents)),
	}
}

// Time returns the current simulated time.
func (g *Generator) Time() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.time
}

// MicroSteps returns m = round(h/Ts), the number of dynamics ticks between
// one replan tick and the next (spec §4.8: "replan ratio m = h / Ts").
func (g *Generator) MicroSteps() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := int(math.Round(g.scenario.H / g.scenario.Ts))
	if m < 1 {
		m = 1
	}
	return m
}

// States returns a copy of every agent's current true state.
func (g *Generator) States() []core.State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]core.State, len(g.scenario.Agents))
	for i, a := range g.scenario.Agents {
		out[i] = a.State
	}
	return out
}

// SetGoalPoint reassigns agent idx to goalIdx (spec §4.7: applied by the
// Reallocator's Commit step).
func (g *Generator) SetGoalPoint(agentIdx, goalIdx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scenario.Agents[agentIdx].GoalIndex = goalIdx
}

// Assignment returns the scenario's current agent-to-goal assignment.
func (g *Generator) Assignment() core.Assignment {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a := make(core.Assignment, len(g.scenario.Agents))
	for i, ag := range g.scenario.Agents {
		a[i] = ag.GoalIndex
	}
	return a
}

// Goals returns the scenario's goal list.
func (g *Generator) Goals() []*core.Goal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scenario.Goals
}

// PerturbState adds process noise to one agent's true position/velocity
// (spec §6 "Noise: std_position, std_velocity"; applied after a dynamics
// micro-step to the post-dynamics state, never inside the QP's own
// reference frame).
func (g *Generator) PerturbState(idx int, dPos, dVel core.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a := g.scenario.Agents[idx]
	a.State.Pos = a.State.Pos.Add(dPos)
	a.State.Vel = a.State.Vel.Add(dVel)
}

// Replan runs one replan tick: solve every commanded agent's QP against the
// frozen previous-horizon snapshot, then publish the new predicted horizons
// and commanded acceleration sequences. It does not touch any agent's true
// state or simulated time — those only change via AdvanceDynamics, which
// runs m times as often (spec §4.8).
func (g *Generator) Replan(ctx context.Context) (TickReport, error) {
	g.mu.RLock()
	agents := make([]*core.Agent, len(g.scenario.Agents))
	copy(agents, g.scenario.Agents) // read-only snapshot of pointers; Solve only reads State/Horizon/GoalIndex
	goals := make([]core.Vec3, len(agents)) // left zero for uncommanded obstacles; never read for them
	for i := range agents {
		if !agents[i].Commanded {
			continue
		}
		goals[i] = g.scenario.GoalByIndex(i).At(g.time)
	}
	ellipse := g.scenario.Ellipse
	ellipseObs := g.scenario.ObstacleEllipse
	mode := g.scenario.Cost
	t := g.time
	g.mu.RUnlock()

	n := len(agents)
	newHorizons := make([]core.Horizon, n) // only entries for commanded agents are populated
	newAccel := make([][]core.Vec3, n)
	fellBack := make([]bool, n)

	eg, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		if !agents[i].Commanded {
			continue // uncommanded obstacles are never solved or reassigned (spec §6)
		}
		i := i
		eg.Go(func() error {
			horizon, accel, err := g.solver.Solve(i, agents, goals[i], mode, ellipse, ellipseObs)
			newHorizons[i] = horizon
			newAccel[i] = accel
			if err != nil {
				fellBack[i] = true
			}
			return nil // a single agent's QP failure is recoverable, not fatal to the tick
		})
	}
	if err := eg.Wait(); err != nil {
		return TickReport{}, fmt.Errorf("planner: tick fan-out: %w", err)
	}

	g.mu.Lock()
	var fallback []int
	for i, a := range g.scenario.Agents {
		if !a.Commanded {
			continue
		}
		a.Horizon = newHorizons[i]
		g.accelSeq[i] = newAccel[i]
		if fellBack[i] {
			a.QPFellBack++
			fallback = append(fallback, i)
		}
	}
	g.mu.Unlock()

	return TickReport{Time: t, Fallback: fallback}, nil
}

// AdvanceDynamics applies the held replan's commanded acceleration sample at
// micro-step index count to every commanded agent's true dynamics and
// advances simulated time by one Ts (spec §4.8: "between replans, at every
// dynamics step k, apply u_i(count) via C1 to each agent"). It returns the
// command actually applied to each agent (zero for uncommanded agents and
// for commanded agents with no published sequence yet), for audit/logging
// use by the caller. count beyond the published sequence holds the last
// sample rather than going out of bounds.
func (g *Generator) AdvanceDynamics(count int) []core.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()

	commands := make([]core.Vec3, len(g.scenario.Agents))
	for i, a := range g.scenario.Agents {
		if !a.Commanded {
			continue
		}
		u := accelAt(g.accelSeq[i], count)
		commands[i] = u
		a.State = g.dyn.Advance(a.State, u)
	}
	g.time += g.scenario.Ts
	return commands
}

// accelAt returns seq[count], clamped to the last sample if count runs past
// the sequence (which only happens if m, the replan ratio, is
// misconfigured relative to KHor), or the zero vector if seq is empty.
func accelAt(seq []core.Vec3, count int) core.Vec3 {
	if len(seq) == 0 {
		return core.Vec3{}
	}
	if count < 0 {
		count = 0
	}
	if count >= len(seq) {
		count = len(seq) - 1
	}
	return seq[count]
}
