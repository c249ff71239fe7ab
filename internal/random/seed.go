// Package random provides seed generation for the simulation's random source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Resolve returns seed unchanged unless it is zero, in which case a fresh
// crypto seed is drawn.
func Resolve(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return NewSeed()
}

// ForTick derives the seed for one simulation tick. A fixed base yields a
// reproducible sequence that still differs from tick to tick; a zero base
// draws a fresh crypto seed.
func ForTick(base, tick int64) (int64, error) {
	if base == 0 {
		return NewSeed()
	}
	return int64(uint64(base) ^ uint64(tick)*0x9E3779B97F4A7C15), nil
}
