package volume

import (
	"testing"
	"time"

	"mediaremote/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stepRecorder struct {
	steps []int
}

func (r *stepRecorder) record(direction int) {
	r.steps = append(r.steps, direction)
}

func newDebouncer(t *testing.T) (*Debouncer, *stepRecorder, *clock.MockClock) {
	t.Helper()
	mockClock := clock.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	rec := &stepRecorder{}
	return NewDebouncer(mockClock, rec.record, zap.NewNop()), rec, mockClock
}

func TestDebouncer_FirstInputEmitsImmediately(t *testing.T) {
	d, rec, _ := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.55)

	assert.Equal(t, []int{1}, rec.steps)
}

func TestDebouncer_DeadbandSwallowsJitter(t *testing.T) {
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.505)
	d.Input(0.495)
	mockClock.Advance(Window * 2)

	assert.Empty(t, rec.steps)
}

func TestDebouncer_BurstCoalescesIntoOneDeferred(t *testing.T) {
	// A rapid drag 0.50 -> 0.54 -> 0.58 -> 0.60 inside one window gives
	// exactly two emissions: the immediate one and one deferred.
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.54)
	mockClock.Advance(50 * time.Millisecond)
	d.Input(0.58)
	mockClock.Advance(50 * time.Millisecond)
	d.Input(0.60)

	assert.Equal(t, []int{1}, rec.steps)

	mockClock.Advance(Window)
	assert.Equal(t, []int{1, 1}, rec.steps)

	// The window stays quiet afterwards
	mockClock.Advance(Window * 2)
	assert.Equal(t, []int{1, 1}, rec.steps)
}

func TestDebouncer_DeferredCarriesLatestDirection(t *testing.T) {
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.58)
	mockClock.Advance(50 * time.Millisecond)
	d.Input(0.54) // reversal inside the window
	mockClock.Advance(Window)

	require.Len(t, rec.steps, 2)
	assert.Equal(t, 1, rec.steps[0])
	assert.Equal(t, -1, rec.steps[1])
}

func TestDebouncer_EmitAfterWindowIsImmediate(t *testing.T) {
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.55)
	mockClock.Advance(Window + 10*time.Millisecond)
	d.Input(0.60)

	assert.Equal(t, []int{1, 1}, rec.steps)
}

func TestDebouncer_DirectionFromLastAcceptedInput(t *testing.T) {
	// The baseline moves with every accepted input, so a drag down after
	// a drag up emits a down step even though both are above the seed.
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.20)

	d.Input(0.60)
	mockClock.Advance(Window)
	d.Input(0.55)

	assert.Equal(t, []int{1, -1}, rec.steps)
}

func TestDebouncer_UnseededUsesDefaultBaseline(t *testing.T) {
	d, rec, _ := newDebouncer(t)

	// No absolute volume was ever observed; the first input compares
	// against the 0.5 stand-in.
	d.Input(0.40)

	assert.Equal(t, []int{-1}, rec.steps)
}

func TestDebouncer_SeedDoesNotOverrideProcessedInput(t *testing.T) {
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.60)
	d.Seed(0.10) // late seed must not reset the baseline

	mockClock.Advance(Window)
	d.Input(0.58)

	// Against the 0.60 baseline this is a down step; against the late
	// seed it would have been up.
	assert.Equal(t, []int{1, -1}, rec.steps)
}

func TestDebouncer_ResetCancelsPendingStep(t *testing.T) {
	d, rec, mockClock := newDebouncer(t)
	d.Seed(0.50)

	d.Input(0.55)
	d.Input(0.60) // throttled, pending
	require.Equal(t, []int{1}, rec.steps)

	d.Reset()
	mockClock.Advance(Window * 2)

	// The pending step must not fire after the session is destroyed
	assert.Equal(t, []int{1}, rec.steps)
}

func TestDebouncer_ResetClearsThrottleState(t *testing.T) {
	d, rec, _ := newDebouncer(t)
	d.Seed(0.50)
	d.Input(0.55)

	d.Reset()
	d.Seed(0.30)
	d.Input(0.35)

	// Fresh session: the first input emits immediately again
	assert.Equal(t, []int{1, 1}, rec.steps)
}
