package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayLadder(t *testing.T) {
	assert.Equal(t, 15*time.Minute, Delay(0))
	assert.Equal(t, 30*time.Minute, Delay(1))
	assert.Equal(t, 1*time.Hour, Delay(2))
	assert.Equal(t, 2*time.Hour, Delay(3))
	assert.Equal(t, 4*time.Hour, Delay(4))
}

func TestDelayBeyondLadderCapped(t *testing.T) {
	// Exponential fallback immediately hits the cap at this base.
	assert.Equal(t, 4*time.Hour, Delay(5))
	assert.Equal(t, 4*time.Hour, Delay(20))
}

func TestDelayNegativeAttempt(t *testing.T) {
	assert.Equal(t, 15*time.Minute, Delay(-1))
}

func TestNextAttemptNeverBeforeNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	next := NextAttempt(now, 0)
	assert.Equal(t, now.Add(15*time.Minute), next)
	assert.False(t, next.Before(now))
}

func TestIsExhausted(t *testing.T) {
	assert.True(t, IsExhausted(5, 5))
	assert.False(t, IsExhausted(4, 5))
	assert.True(t, IsExhausted(6, 5))
	assert.True(t, IsExhausted(0, 0))
}
