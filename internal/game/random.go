package game

import (
	"math/rand"
	"time"
)

// Rand is the random source threaded through scoring, reviews, sales and
// events. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func defaultRand() *rand.Rand {
	return NewRand(time.Now().UnixNano())
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
