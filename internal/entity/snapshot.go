// Package entity defines the immutable snapshot of a media player entity the
// rest of the widget core works with. A snapshot is derived once from a raw
// Home Assistant state and never mutated.
package entity

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"mediaremote/internal/ha"
)

// PlaybackStatus is the playback state of a media player entity
type PlaybackStatus string

const (
	StatusPlaying     PlaybackStatus = "playing"
	StatusPaused      PlaybackStatus = "paused"
	StatusIdle        PlaybackStatus = "idle"
	StatusOff         PlaybackStatus = "off"
	StatusStandby     PlaybackStatus = "standby"
	StatusUnavailable PlaybackStatus = "unavailable"
	StatusOther       PlaybackStatus = "other"
)

// ParseStatus maps a raw HA state string to a PlaybackStatus
func ParseStatus(raw string) PlaybackStatus {
	switch raw {
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	case "idle":
		return StatusIdle
	case "off":
		return StatusOff
	case "standby":
		return StatusStandby
	case "unavailable", "unknown", "":
		return StatusUnavailable
	default:
		return StatusOther
	}
}

// RepeatMode is a media player's repeat setting
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// Snapshot is a point-in-time view of one media player entity. Optional
// attributes use zero-style sentinels: Duration 0 means unknown, VolumeLevel
// -1 means unknown, a zero PositionAt means the position has no anchor.
type Snapshot struct {
	EntityID     string
	Status       PlaybackStatus
	Title        string
	Artist       string
	ArtworkURL   string
	Duration     float64 // seconds, 0 = unknown
	Position     float64 // seconds, valid only when HasPosition
	HasPosition  bool
	PositionAt   time.Time // instant Position was valid; zero = no anchor
	VolumeLevel  float64 // 0.0-1.0, -1 = unknown
	Muted        bool
	Shuffle      bool
	Repeat       RepeatMode
	SourceList   []string
	ActiveSource string
	FriendlyName string
}

// Unavailable returns the snapshot used when no state exists for an entity.
// A missing snapshot is never an error; the projector renders it as idle.
func Unavailable(entityID string) Snapshot {
	return Snapshot{
		EntityID:    entityID,
		Status:      StatusUnavailable,
		VolumeLevel: -1,
		Repeat:      RepeatOff,
	}
}

// FromState builds a Snapshot from a raw HA state. Every attribute is
// optional and may arrive with a loose type, so all reads are defensive.
func FromState(state *ha.State) Snapshot {
	if state == nil {
		return Unavailable("")
	}

	snap := Snapshot{
		EntityID:     state.EntityID,
		Status:       ParseStatus(state.State),
		Title:        attrString(state.Attributes, "media_title"),
		Artist:       attrString(state.Attributes, "media_artist"),
		ArtworkURL:   attrString(state.Attributes, "entity_picture"),
		Muted:        attrBool(state.Attributes, "is_volume_muted"),
		Shuffle:      attrBool(state.Attributes, "shuffle"),
		SourceList:   attrStrings(state.Attributes, "source_list"),
		ActiveSource: attrString(state.Attributes, "source"),
		FriendlyName: attrString(state.Attributes, "friendly_name"),
		VolumeLevel:  -1,
		Repeat:       RepeatOff,
	}

	if d, ok := attrFloat(state.Attributes, "media_duration"); ok && d > 0 {
		snap.Duration = d
	}
	if p, ok := attrFloat(state.Attributes, "media_position"); ok {
		snap.Position = p
		snap.HasPosition = true
		snap.PositionAt = attrTime(state.Attributes, "media_position_updated_at")
	}
	if v, ok := attrFloat(state.Attributes, "volume_level"); ok {
		snap.VolumeLevel = v
	}

	switch attrString(state.Attributes, "repeat") {
	case "one":
		snap.Repeat = RepeatOne
	case "all":
		snap.Repeat = RepeatAll
	}

	return snap
}

// IsOff reports whether the entity is in a powered-down state
// (off, standby, or unavailable).
func (s Snapshot) IsOff() bool {
	switch s.Status {
	case StatusOff, StatusStandby, StatusUnavailable:
		return true
	}
	return false
}

// HasVolume reports whether an absolute volume level is known
func (s Snapshot) HasVolume() bool {
	return s.VolumeLevel >= 0
}

func attrString(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func attrBool(attrs map[string]interface{}, key string) bool {
	if attrs == nil {
		return false
	}
	if v, ok := attrs[key].(bool); ok {
		return v
	}
	return false
}

// attrFloat reads a numeric attribute that may be a float64, int, or
// json.Number depending on the decoder that produced the state.
func attrFloat(attrs map[string]interface{}, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	switch v := attrs[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func attrTime(attrs map[string]interface{}, key string) time.Time {
	raw := attrString(attrs, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func attrStrings(attrs map[string]interface{}, key string) []string {
	if attrs == nil {
		return nil
	}
	raw, ok := attrs[key].([]interface{})
	if !ok {
		// Some integrations deliver source_list already typed
		if typed, ok := attrs[key].([]string); ok {
			return typed
		}
		return nil
	}

	list := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			list = append(list, s)
		}
	}
	return list
}
