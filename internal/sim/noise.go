package sim

import (
	"math/rand"

	"github.com/elektrokombinacija/dmpc-bvc-research/internal/core"
)

// RandNoise adapts a *rand.Rand into a NoiseSource.
type RandNoise struct {
	Rng *rand.Rand
}

// Sample implements NoiseSource.
func (n *RandNoise) Sample(stdPosition, stdVelocity float64) (dPos, dVel core.Vec3) {
	return SampleProcessNoise(n.Rng, stdPosition, stdVelocity)
}

// SampleProcessNoise draws one independent Gaussian perturbation per axis
// for position and velocity (spec §6 "Noise: std_position, std_velocity"),
// in the Sample(rng *rand.Rand)-style injection this codebase's lineage
// uses for stochastic quantities (internal/algo.LogNormalDist.Sample).
// Either std may be 0, in which case that component is always zero.
func SampleProcessNoise(rng *rand.Rand, stdPosition, stdVelocity float64) (dPos, dVel core.Vec3) {
	dPos = core.Vec3{
		X: rng.NormFloat64() * stdPosition,
		Y: rng.NormFloat64() * stdPosition,
		Z: rng.NormFloat64() * stdPosition,
	}
	dVel = core.Vec3{
		X: rng.NormFloat64() * stdVelocity,
		Y: rng.NormFloat64() * stdVelocity,
		Z: rng.NormFloat64() * stdVelocity,
	}
	return dPos, dVel
}
