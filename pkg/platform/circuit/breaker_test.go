package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_InitialState(t *testing.T) {
	b := New("audit-sink")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "audit-sink", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(3))

	// Two failures stay under the threshold
	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	// The third one trips it
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(1), WithSuccessThreshold(2))

	// Open the circuit
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// One success is not enough to close
	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	// The second one closes it
	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(3))

	// Two failures, still closed
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	// A success wipes the failure streak
	b.RecordSuccess()

	// The streak starts over, so two more failures stay closed
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	// A full fresh streak trips it
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_FailureResetsSuccessCount(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(1), WithSuccessThreshold(3))

	// Open the circuit
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Two successes toward closing
	b.RecordSuccess()
	b.RecordSuccess()

	// A failure wipes the success streak, circuit stays open
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Closing needs a fresh run of three
	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(1))

	// Open the circuit
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Reset forces it closed
	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpenCircuitReturnsFallback(t *testing.T) {
	b := New("audit-sink", WithFailureThreshold(1))

	// Open the circuit
	b.RecordFailure()

	// Further failures report degraded without a fresh transition
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open, no transition to announce")
}
