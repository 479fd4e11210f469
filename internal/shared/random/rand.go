// Package random provides a lock-free uniform float source for backoff
// jitter, cheap enough to call from hot retry paths.
package random

import (
	"sync/atomic"
	"time"
)

var state atomic.Uint64

func init() {
	state.Store(mix(uint64(time.Now().UnixNano())))
}

// Float64 returns a uniform value in [0,1) using 53 random bits.
func Float64() float64 {
	// SplitMix64 step over a shared atomic state.
	x := state.Add(0x9e3779b97f4a7c15)
	const inv53 = 1.0 / 9007199254740992.0 // 2^53
	return float64(mix(x)>>11) * inv53
}

func mix(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 0x9e3779b97f4a7c15
	}
	return z
}
