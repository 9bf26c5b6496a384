package volume

import (
	"math"
	"sync"
	"time"

	"mediaremote/internal/clock"

	"go.uber.org/zap"
)

const (
	// Window is the minimum interval between emitted step commands
	Window = 380 * time.Millisecond

	// Deadband is the minimum level change that counts as a gesture;
	// anything smaller is slider jitter.
	Deadband = 0.008

	// seedLevel stands in for the last emitted level when no absolute
	// volume has ever been observed for the route.
	seedLevel = 0.5
)

// StepFunc emits one volume step; direction is +1 (up) or -1 (down)
type StepFunc func(direction int)

// Debouncer converts a continuous slider gesture into step commands at a
// bounded rate: at most one per Window. The first input after an idle period
// emits immediately; inputs landing inside the window coalesce into a single
// deferred emission carrying the most recent direction.
type Debouncer struct {
	clk    clock.Clock
	emit   StepFunc
	logger *zap.Logger

	mu         sync.Mutex
	lastLevel  float64
	seeded     bool
	lastEmit   time.Time
	hasEmitted bool
	pending    clock.Timer
	pendingDir int
}

// NewDebouncer creates a Debouncer emitting through emit
func NewDebouncer(clk clock.Clock, emit StepFunc, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		clk:    clk,
		emit:   emit,
		logger: logger.Named("voldebounce"),
	}
}

// Seed records the last known absolute volume level for the route, used as
// the comparison baseline for the first gesture input of a session. Inputs
// already processed take precedence over later seeds.
func (d *Debouncer) Seed(level float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seeded {
		d.lastLevel = level
		d.seeded = true
	}
}

// Input processes one slider value from an in-progress gesture
func (d *Debouncer) Input(newLevel float64) {
	d.mu.Lock()

	prev := seedLevel
	if d.seeded {
		prev = d.lastLevel
	}

	delta := newLevel - prev
	if math.Abs(delta) <= Deadband {
		d.mu.Unlock()
		return
	}

	direction := 1
	if delta < 0 {
		direction = -1
	}

	d.lastLevel = newLevel
	d.seeded = true

	elapsed := d.clk.Since(d.lastEmit)
	if !d.hasEmitted || elapsed >= Window {
		// Idle, or the throttle window has passed: emit right away
		if d.pending != nil {
			d.pending.Stop()
			d.pending = nil
		}
		d.lastEmit = d.clk.Now()
		d.hasEmitted = true
		emit := d.emit
		d.mu.Unlock()

		emit(direction)
		return
	}

	// Throttled: a single pending timer carries the latest direction.
	// A new input replaces it rather than stacking another emission.
	d.pendingDir = direction
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clk.AfterFunc(Window-elapsed, d.firePending)
	d.mu.Unlock()
}

// firePending emits the deferred step when the throttle window elapses
func (d *Debouncer) firePending() {
	d.mu.Lock()
	if d.pending == nil {
		// Reset raced the timer; the session is gone
		d.mu.Unlock()
		return
	}
	d.pending = nil
	direction := d.pendingDir
	d.lastEmit = d.clk.Now()
	d.hasEmitted = true
	emit := d.emit
	d.mu.Unlock()

	emit(direction)
}

// Reset destroys the debounce session. Must be called before any gesture is
// processed against a new entity or volume route, so a stale pending step
// cannot fire against the wrong target.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.seeded = false
	d.hasEmitted = false
	d.lastEmit = time.Time{}
	d.pendingDir = 0
}
