package entity

import (
	"testing"
	"time"

	"mediaremote/internal/ha"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected PlaybackStatus
	}{
		{"playing", StatusPlaying},
		{"paused", StatusPaused},
		{"idle", StatusIdle},
		{"off", StatusOff},
		{"standby", StatusStandby},
		{"unavailable", StatusUnavailable},
		{"unknown", StatusUnavailable},
		{"", StatusUnavailable},
		{"buffering", StatusOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStatus(tt.raw))
		})
	}
}

func TestFromState_FullAttributes(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	state := &ha.State{
		EntityID: "media_player.living_room_tv",
		State:    "playing",
		Attributes: map[string]interface{}{
			"media_title":               "Song Title",
			"media_artist":              "Artist Name",
			"entity_picture":            "/api/media_player_proxy/pic",
			"media_duration":            245.0,
			"media_position":            61.5,
			"media_position_updated_at": anchor.Format(time.RFC3339Nano),
			"volume_level":              0.35,
			"is_volume_muted":           true,
			"shuffle":                   true,
			"repeat":                    "one",
			"source_list":               []interface{}{"YouTube", "Netflix", ""},
			"source":                    "Netflix",
			"friendly_name":             "Living Room TV",
		},
	}

	snap := FromState(state)

	assert.Equal(t, "media_player.living_room_tv", snap.EntityID)
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, "Song Title", snap.Title)
	assert.Equal(t, "Artist Name", snap.Artist)
	assert.Equal(t, "/api/media_player_proxy/pic", snap.ArtworkURL)
	assert.Equal(t, 245.0, snap.Duration)
	assert.Equal(t, 61.5, snap.Position)
	assert.True(t, snap.HasPosition)
	assert.True(t, snap.PositionAt.Equal(anchor))
	assert.Equal(t, 0.35, snap.VolumeLevel)
	assert.True(t, snap.Muted)
	assert.True(t, snap.Shuffle)
	assert.Equal(t, RepeatOne, snap.Repeat)
	assert.Equal(t, []string{"YouTube", "Netflix"}, snap.SourceList)
	assert.Equal(t, "Netflix", snap.ActiveSource)
	assert.Equal(t, "Living Room TV", snap.FriendlyName)
}

func TestFromState_MissingAttributes(t *testing.T) {
	state := &ha.State{
		EntityID: "media_player.bedroom_speaker",
		State:    "idle",
	}

	snap := FromState(state)

	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.Artist)
	assert.Equal(t, 0.0, snap.Duration)
	assert.False(t, snap.HasPosition)
	assert.True(t, snap.PositionAt.IsZero())
	assert.False(t, snap.HasVolume())
	assert.Equal(t, RepeatOff, snap.Repeat)
	assert.Nil(t, snap.SourceList)
}

func TestFromState_LooseAttributeTypes(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected float64
		ok       bool
	}{
		{"float64", 120.0, 120.0, true},
		{"int", 120, 120.0, true},
		{"string number", "120.5", 120.5, true},
		{"garbage string", "soon", 0, false},
		{"wrong type", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &ha.State{
				EntityID:   "media_player.test",
				State:      "playing",
				Attributes: map[string]interface{}{"media_duration": tt.value},
			}

			snap := FromState(state)
			if tt.ok {
				assert.Equal(t, tt.expected, snap.Duration)
			} else {
				assert.Equal(t, 0.0, snap.Duration)
			}
		})
	}
}

func TestFromState_PositionWithoutAnchor(t *testing.T) {
	// Some integrations report media_position with no
	// media_position_updated_at; the position is still usable, it just
	// cannot be extrapolated.
	state := &ha.State{
		EntityID: "media_player.test",
		State:    "playing",
		Attributes: map[string]interface{}{
			"media_duration": 200.0,
			"media_position": 40.0,
		},
	}

	snap := FromState(state)
	require.True(t, snap.HasPosition)
	assert.Equal(t, 40.0, snap.Position)
	assert.True(t, snap.PositionAt.IsZero())
}

func TestFromState_BadTimestamp(t *testing.T) {
	state := &ha.State{
		EntityID: "media_player.test",
		State:    "playing",
		Attributes: map[string]interface{}{
			"media_duration":            200.0,
			"media_position":            40.0,
			"media_position_updated_at": "not-a-time",
		},
	}

	snap := FromState(state)
	assert.True(t, snap.HasPosition)
	assert.True(t, snap.PositionAt.IsZero())
}

func TestFromState_Nil(t *testing.T) {
	snap := FromState(nil)
	assert.Equal(t, StatusUnavailable, snap.Status)
	assert.False(t, snap.HasVolume())
}

func TestSnapshot_IsOff(t *testing.T) {
	tests := []struct {
		status   PlaybackStatus
		expected bool
	}{
		{StatusPlaying, false},
		{StatusPaused, false},
		{StatusIdle, false},
		{StatusOther, false},
		{StatusOff, true},
		{StatusStandby, true},
		{StatusUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, Snapshot{Status: tt.status}.IsOff())
		})
	}
}

func TestUnavailable(t *testing.T) {
	snap := Unavailable("media_player.gone")
	assert.Equal(t, "media_player.gone", snap.EntityID)
	assert.Equal(t, StatusUnavailable, snap.Status)
	assert.True(t, snap.IsOff())
	assert.False(t, snap.HasVolume())
}
