// Package backoff computes how long a failed domain action stays blocked
// before the dispatcher may pick it up again.
package backoff

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// Policy is an exponential backoff with symmetric jitter.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the maximum jitter as a fraction of the delay (0.25 = ±25%).
	Jitter float64
}

// Default returns the policy used when nothing is configured.
func Default() Policy {
	return Policy{
		Initial:    time.Minute,
		Max:        time.Hour,
		Multiplier: 2,
		Jitter:     0.25,
	}
}

// Delay returns the wait before the next attempt. attempt is the number of
// attempts already made (1 after the first failure). The result is never
// below Initial/2, so the next eligible time is always in the future.
func (p Policy) Delay(attempt int64) time.Duration {
	return p.delay(attempt, secureRandFloat64())
}

func (p Policy) delay(attempt int64, r float64) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.Initial) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.Max) || math.IsInf(delay, 1) {
		delay = float64(p.Max)
	}

	jitter := delay * p.Jitter
	delay += jitter * (2*r - 1)

	if floor := float64(p.Initial) / 2; delay < floor {
		delay = floor
	}
	return time.Duration(delay)
}

func (p Policy) normalized() Policy {
	d := Default()
	if p.Initial <= 0 {
		p.Initial = d.Initial
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = d.Jitter
	}
	return p
}

const (
	significandBits = 53
	uint64Bits      = 64
)

// secureRandFloat64 returns a random float64 in [0, 1) using crypto/rand.
func secureRandFloat64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>(uint64Bits-significandBits)) / float64(uint64(1)<<significandBits)
}
