package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdownStartCancel(t *testing.T) {
	cd := NewCountdown()
	assert.False(t, cd.Running())

	var ticks atomic.Int32
	cd.Start(func() { ticks.Add(1) })
	assert.True(t, cd.Running())

	cd.Cancel()
	assert.False(t, cd.Running())

	// Cancel must be idempotent.
	cd.Cancel()
	assert.False(t, cd.Running())
}

func TestCountdownDoubleStartIsNoop(t *testing.T) {
	cd := NewCountdown()
	defer cd.Cancel()

	cd.Start(func() {})
	first := cd.ticker
	cd.Start(func() {})
	assert.Same(t, first, cd.ticker)
}

func TestCountdownStopsTickingAfterCancel(t *testing.T) {
	cd := NewCountdown()

	var ticks atomic.Int32
	cd.Start(func() { ticks.Add(1) })
	cd.Cancel()

	observed := ticks.Load()
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, observed, ticks.Load())
}
