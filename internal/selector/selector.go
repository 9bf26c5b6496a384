// Package selector decides which configured media player entity is focused
// for display and control. Automatic switching follows configured priority
// order and is suppressed once the user has made an explicit choice.
package selector

import (
	"go.uber.org/zap"
)

// Selector tracks the focused entity among the configured candidates.
// It is not safe for concurrent use; the widget controller serializes access.
type Selector struct {
	entities   []string
	current    string
	manual     bool
	autoSwitch bool
	logger     *zap.Logger
}

// New creates a Selector focused on the first configured entity.
// The configured list must be non-empty; config validation enforces that.
func New(entities []string, autoSwitch bool, logger *zap.Logger) *Selector {
	return &Selector{
		entities:   append([]string(nil), entities...),
		current:    entities[0],
		autoSwitch: autoSwitch,
		logger:     logger.Named("selector"),
	}
}

// Current returns the focused entity key. If the focused entity is no longer
// configured (stale selection after a config change), it falls back to the
// first configured entity.
func (s *Selector) Current() string {
	if !s.contains(s.current) {
		s.logger.Warn("Focused entity no longer configured, falling back",
			zap.String("stale", s.current),
			zap.String("fallback", s.entities[0]))
		s.current = s.entities[0]
		s.manual = false
	}
	return s.current
}

// Entities returns the configured entity keys in priority order
func (s *Selector) Entities() []string {
	return append([]string(nil), s.entities...)
}

// ManualOverride reports whether the user has explicitly picked an entity
func (s *Selector) ManualOverride() bool {
	return s.manual
}

// Reselect runs the automatic selection path on a snapshot update. The first
// configured entity reported as playing wins; if nothing is playing the
// current selection is retained. A manual override or disabled auto-switch
// makes this a no-op. Returns true when the focused entity changed.
func (s *Selector) Reselect(playing func(entityID string) bool) bool {
	if !s.autoSwitch || s.manual {
		return false
	}

	for _, entityID := range s.entities {
		if playing(entityID) {
			if s.current == entityID {
				return false
			}
			s.logger.Debug("Auto-switching focused entity",
				zap.String("from", s.current),
				zap.String("to", entityID))
			s.current = entityID
			return true
		}
	}

	// Nothing playing: keep the current selection
	return false
}

// Pick sets the focused entity from an explicit user choice and latches the
// manual override. The override is only released by a later Pick or by the
// current entity disappearing from the configuration. Unknown keys are
// ignored. Returns true when the focused entity changed.
func (s *Selector) Pick(entityID string) bool {
	if !s.contains(entityID) {
		s.logger.Warn("Ignoring pick of unconfigured entity", zap.String("entity_id", entityID))
		return false
	}

	s.manual = true
	if s.current == entityID {
		return false
	}

	s.logger.Debug("Manual entity selection",
		zap.String("from", s.current),
		zap.String("to", entityID))
	s.current = entityID
	return true
}

func (s *Selector) contains(entityID string) bool {
	for _, e := range s.entities {
		if e == entityID {
			return true
		}
	}
	return false
}
