package sim

import (
	"fmt"
	"io"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// CollisionViolation records one (agent, agent, time) triple where the
// ellipsoidal separation fell below the audit's r_min (spec §8 invariant
// "for all t, all pairs ... ellipsoidal distance >= r_min").
type CollisionViolation struct {
	I, J     int
	Time     float64
	Distance float64
}

// GoalMiss records a commanded agent that ended further than the
// configured tolerance from its final assigned goal (spec §7.3 audit
// finding 4).
type GoalMiss struct {
	Agent    int
	Distance float64
}

// AccelViolation records one commanded acceleration sample that fell outside
// the configured box limits (spec §8 invariant "commanded acceleration lies
// within [a_min, a_max]").
type AccelViolation struct {
	Agent int
	Index int // position in the agent's applied-acceleration history
	Accel core.Vec3
}

// AuditReport is the post-run, non-aborting audit spec §7/§8 requires.
type AuditReport struct {
	Collisions      []CollisionViolation
	GoalMisses      []GoalMiss
	QPFallbacks     []int // per-agent count of replans that fell back (supplemental, §7 SUPPLEMENTED FEATURES)
	AccelViolations []AccelViolation
}

// snapshot is one recorded tick's positions for every body (commanded and
// uncommanded), used for the post-run collision audit.
type snapshot struct {
	Time      float64
	Positions []core.Vec3
}

// RunCollisionAudit checks every pair of bodies at every recorded tick
// against ellipse's r_min (spec §8: "for all t, all pairs (i,j), i != j").
func RunCollisionAudit(history []snapshot, ellipse core.EllipseParams) []CollisionViolation {
	var violations []CollisionViolation
	for _, snap := range history {
		n := len(snap.Positions)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := ellipse.EllipsoidalDistance(snap.Positions[i], snap.Positions[j])
				if d < ellipse.RMin {
					violations = append(violations, CollisionViolation{I: i, J: j, Time: snap.Time, Distance: d})
				}
			}
		}
	}
	return violations
}

// RunGoalAuditAt checks each commanded agent's position at t against the
// goal currently assigned to it.
func RunGoalAuditAt(commanded []*core.Agent, goals []*core.Goal, positions []core.Vec3, t, tol float64) []GoalMiss {
	var misses []GoalMiss
	for i, a := range commanded {
		goal := goals[a.GoalIndex]
		if !goal.Reached(positions[i], t, tol) {
			misses = append(misses, GoalMiss{Agent: i, Distance: core.Dist2(positions[i], goal.At(t))})
		}
	}
	return misses
}

// RunAccelAudit checks every commanded acceleration sample actually applied
// to each agent against limits' box constraints (spec §8: "commanded
// acceleration lies within [a_min, a_max]"). history is indexed by
// commanded agent, then by dynamics-tick order.
func RunAccelAudit(history [][]core.Vec3, limits core.Limits) []AccelViolation {
	var violations []AccelViolation
	for agent, samples := range history {
		for idx, u := range samples {
			if withinBox(u, limits.AMin, limits.AMax) {
				continue
			}
			violations = append(violations, AccelViolation{Agent: agent, Index: idx, Accel: u})
		}
	}
	return violations
}

func withinBox(v, min, max core.Vec3) bool {
	return v.X >= min.X && v.X <= max.X &&
		v.Y >= min.Y && v.Y <= max.Y &&
		v.Z >= min.Z && v.Z <= max.Z
}

// WriteReport prints the audit findings to w (spec §6: "CLI ... exit 0 on
// successful simulation completion regardless of audit outcomes (audits are
// reported to stdout)").
func WriteReport(w io.Writer, r AuditReport) {
	fmt.Fprintf(w, "collision audit: %d violation(s)\n", len(r.Collisions))
	for _, v := range r.Collisions {
		fmt.Fprintf(w, "  t=%.3f agents (%d,%d) distance=%.4f\n", v.Time, v.I, v.J, v.Distance)
	}
	fmt.Fprintf(w, "goal audit: %d agent(s) missed tolerance\n", len(r.GoalMisses))
	for _, m := range r.GoalMisses {
		fmt.Fprintf(w, "  agent %d distance=%.4f\n", m.Agent, m.Distance)
	}
	for i, n := range r.QPFallbacks {
		if n > 0 {
			fmt.Fprintf(w, "agent %d fell back to zero-acceleration %d time(s)\n", i, n)
		}
	}
	fmt.Fprintf(w, "acceleration audit: %d violation(s)\n", len(r.AccelViolations))
	for _, v := range r.AccelViolations {
		fmt.Fprintf(w, "  agent %d sample %d accel=(%.4f,%.4f,%.4f)\n", v.Agent, v.Index, v.Accel.X, v.Accel.Y, v.Accel.Z)
	}
}
