// Package progress extrapolates playback position between snapshot arrivals.
// Snapshots report a position plus the instant it was valid; while playing,
// the wall-clock time elapsed since that instant is added on every
// evaluation. The computation always starts from the snapshot anchor, never
// from its own previous output, so repeated evaluation cannot drift.
package progress

import (
	"time"

	"mediaremote/internal/entity"
)

// Interpolate returns the displayed playback position in seconds and the
// completed fraction of the track at instant now. ok is false when the
// snapshot carries no usable duration or position, in which case no progress
// should be shown.
func Interpolate(snap entity.Snapshot, now time.Time) (position float64, fraction float64, ok bool) {
	if snap.Duration <= 0 || !snap.HasPosition {
		return 0, 0, false
	}

	position = snap.Position
	if snap.Status == entity.StatusPlaying && !snap.PositionAt.IsZero() {
		elapsed := now.Sub(snap.PositionAt).Seconds()
		if elapsed > 0 {
			position += elapsed
		}
	}

	if position > snap.Duration {
		position = snap.Duration
	}
	if position < 0 {
		position = 0
	}
	fraction = position / snap.Duration

	return position, fraction, true
}
