// Package seed provides deterministic pseudo-random helpers keyed by an explicit
// integer seed. Nothing here touches a global RNG, so every draw can be replayed.
package seed

import (
	"math"

	"github.com/ZacxDev/reel-composer/pkg/types"
	"golang.org/x/exp/constraints"
)

const (
	golden = 0x9e3779b97f4a7c15
	mix1   = 0xbf58476d1ce4e5b9
	mix2   = 0x94d049bb133111eb
)

// Random is a splitmix64 stream
type Random struct {
	state uint64
}

// New returns a stream keyed by seed
func New(seed int64) *Random {
	return &Random{state: uint64(seed)}
}

// Uint64 advances the stream
func (r *Random) Uint64() uint64 {
	r.state += golden
	return mix(r.state)
}

// Float64 returns a value in [0, 1)
func (r *Random) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Random) Intn(n int) int {
	if n <= 0 {
		panic("seed: Intn called with non-positive n")
	}
	// Lemire-style rejection keeps the result unbiased
	bound := uint64(n)
	threshold := -bound % bound
	for {
		v := r.Uint64()
		if v >= threshold {
			return int(v % bound)
		}
	}
}

// Between returns a value in [min, max]
func (r *Random) Between(min, max float64) float64 {
	if min == max {
		return min
	}
	return min + r.Float64()*(max-min)
}

// IntBetween returns a value in [min, max]
func (r *Random) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * mix1
	z = (z ^ (z >> 27)) * mix2
	return z ^ (z >> 31)
}

// Derive returns a sub-seed for one named parameter so draws do not covary
func Derive(seed int64, salt uint64) int64 {
	return int64(mix(uint64(seed) ^ mix(salt*golden+1)))
}

// Compose mixes a timestamp, pool size and run index into one seed
func Compose(unixMillis int64, poolSize, index int) int64 {
	s := mix(uint64(unixMillis))
	s = mix(s ^ uint64(poolSize)*mix1)
	s = mix(s ^ uint64(index)*mix2)
	return int64(s)
}

// NextIndex returns an index in [0, modulus)
func NextIndex(seed int64, modulus int) (int, error) {
	if modulus < 1 {
		return 0, types.InvalidArgument("modulus must be >= 1, got %d", modulus)
	}
	return New(seed).Intn(modulus), nil
}

// Range returns a value in [min, max]
func Range(seed int64, min, max float64) (float64, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, types.InvalidArgument("range bounds must be finite, got [%v, %v]", min, max)
	}
	if min > max {
		return 0, types.InvalidArgument("range min %v exceeds max %v", min, max)
	}
	return New(seed).Between(min, max), nil
}

// Clamp bounds v to [lo, hi]
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
