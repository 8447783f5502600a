package config

import (
	"math/rand"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// maxPlacementAttempts caps how many times the random instance generator
// retries a candidate position before giving up on the whole instance, so an
// infeasible density fails explicitly instead of looping forever (the same
// bounded-retry shape as the teacher's gen_instances/main.go).
const maxPlacementAttempts = 2000

// RandomPlacementBounds is the axis-aligned box random start/goal positions
// are drawn from.
type RandomPlacementBounds struct {
	Min, Max core.Vec3
}

// GenerateRandom builds a Document's po/pf fields with N random start
// positions and Ncmd random goal positions, rejecting any candidate whose
// Euclidean distance from an already-placed point is below minSep
// (spec §6 "test": "random"; supplemental feature, see SPEC_FULL.md). The
// returned Document is a copy of d with Po/Pf populated; every other field
// is left untouched.
func GenerateRandom(d Document, bounds RandomPlacementBounds, minSep float64, rng *rand.Rand) (Document, error) {
	placed := make([]core.Vec3, 0, d.N+d.Ncmd)

	place := func() (core.Vec3, bool) {
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			p := core.Vec3{
				X: randRange(rng, bounds.Min.X, bounds.Max.X),
				Y: randRange(rng, bounds.Min.Y, bounds.Max.Y),
				Z: randRange(rng, bounds.Min.Z, bounds.Max.Z),
			}
			if farEnough(p, placed, minSep) {
				return p, true
			}
		}
		return core.Vec3{}, false
	}

	po := make([][3]float64, d.N)
	for i := 0; i < d.N; i++ {
		p, ok := place()
		if !ok {
			return d, ErrGeometryInfeasible
		}
		placed = append(placed, p)
		po[i] = [3]float64{p.X, p.Y, p.Z}
	}

	pf := make([][3]float64, d.Ncmd)
	for i := 0; i < d.Ncmd; i++ {
		p, ok := place()
		if !ok {
			return d, ErrGeometryInfeasible
		}
		placed = append(placed, p)
		pf[i] = [3]float64{p.X, p.Y, p.Z}
	}

	out := d
	out.Po = po
	out.Pf = pf
	return out, nil
}

func farEnough(p core.Vec3, placed []core.Vec3, minSep float64) bool {
	for _, q := range placed {
		if core.Dist2(p, q) < minSep {
			return false
		}
	}
	return true
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
