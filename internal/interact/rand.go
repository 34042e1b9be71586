package interact

import "math/rand/v2"

// Rand is the random source behind all probabilistic product behavior.
// It exists so tests can inject a deterministic source and assert exact
// branch selection; there is no cryptographic requirement here.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
func (systemRand) IntN(n int) int   { return rand.IntN(n) }

// SystemRand returns the process-wide pseudo-random source.
func SystemRand() Rand { return systemRand{} }
