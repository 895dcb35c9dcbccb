package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_DelayGrowsExponentially(t *testing.T) {
	p := Policy{Initial: time.Minute, Max: time.Hour, Multiplier: 2, Jitter: 0.25}

	// r = 0.5 means zero jitter
	assert.Equal(t, time.Minute, p.delay(1, 0.5))
	assert.Equal(t, 2*time.Minute, p.delay(2, 0.5))
	assert.Equal(t, 4*time.Minute, p.delay(3, 0.5))
	assert.Equal(t, time.Hour, p.delay(20, 0.5))
}

func TestPolicy_JitterBounds(t *testing.T) {
	p := Policy{Initial: time.Minute, Max: time.Hour, Multiplier: 2, Jitter: 0.25}

	assert.Equal(t, 45*time.Second, p.delay(1, 0))
	assert.InDelta(t, float64(75*time.Second), float64(p.delay(1, 0.9999999)), float64(time.Millisecond))

	for i := 0; i < 100; i++ {
		d := p.Delay(2)
		assert.GreaterOrEqual(t, d, 90*time.Second)
		assert.LessOrEqual(t, d, 150*time.Second)
	}
}

func TestPolicy_NeverZero(t *testing.T) {
	var p Policy
	d := p.delay(0, 0)
	assert.Greater(t, d, time.Duration(0))

	p = Policy{Initial: time.Second, Max: time.Second, Multiplier: 1, Jitter: 0.9}
	assert.GreaterOrEqual(t, p.delay(1, 0), 500*time.Millisecond)
}
