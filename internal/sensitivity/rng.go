package sensitivity

import "math/rand/v2"

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// seededRNG is reproducible: the same seed always yields the same stream.
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a PCG-backed source for seed.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }
