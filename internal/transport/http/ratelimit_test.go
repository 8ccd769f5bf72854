package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	r := newRateLimiter(2)
	assert.True(t, r.allow())
	assert.True(t, r.allow())
	assert.False(t, r.allow())

	r.resetCounter()
	assert.True(t, r.allow())
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0)
	for range 1000 {
		assert.True(t, r.allow())
	}

	var nilLimiter *rateLimiter
	assert.True(t, nilLimiter.allow())
	nilLimiter.startReset(nil)
}
