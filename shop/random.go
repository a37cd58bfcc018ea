package shop

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns a deterministic PCG source for the simulation.
func NewRand(seed1, seed2 uint64) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(seed1, seed2))
}

// SeededRand derives both PCG words from a single seed.
func SeededRand(seed int64) *rand.Rand {
	return NewRand(seedWord(seed, "a"), seedWord(seed, "b"))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
