package kernel

import (
	"math"
	"math/rand/v2"
)

// Rand is the kernel PRNG. All stochastic operations in a step (He-3
// concentration draws, throttle skips) go through a single Rand seeded
// from (runSeed, step), so replays with the same seed are bit-identical.
type Rand struct {
	src *rand.Rand
}

// NewStepRand derives the PRNG for a given step of a run.
func NewStepRand(runSeed uint64, step int64) *Rand {
	lo := splitmix64(runSeed)
	hi := splitmix64(lo ^ uint64(step))
	return &Rand{src: rand.New(rand.NewPCG(lo, hi))}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Float64 returns a uniform draw in [0, 1).
func (r *Rand) Float64() float64 { return r.src.Float64() }

// Bernoulli returns true with probability p.
func (r *Rand) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.src.Float64() < p
}

// Triangular draws from a triangular distribution over [min, max] with
// the given mode. Used for He-3 regolith concentration sampling.
func (r *Rand) Triangular(min, mode, max float64) float64 {
	if max <= min {
		return min
	}
	u := r.src.Float64()
	c := (mode - min) / (max - min)
	if u < c {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}
