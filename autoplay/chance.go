package autoplay

import "math/rand/v2"

// Chance reports true with the given probability out of 100.
func Chance(rnd *rand.Rand, probability uint) bool {
	return rnd.UintN(100) < probability
}
