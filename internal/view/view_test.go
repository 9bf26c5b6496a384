package view

import (
	"testing"

	"mediaremote/internal/config"
	"mediaremote/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.WidgetConfig {
	return &config.WidgetConfig{
		Entities:      []string{"media_player.tv", "media_player.speaker"},
		AccentColor:   "#4285F4",
		VolumeAccent:  "#4285F4",
		TitleColor:    "#ffffff",
		ArtistColor:   "#ffffff",
		VolumeControl: config.VolumeSlider,
	}
}

func TestProject_EverythingAbsent(t *testing.T) {
	// The projection is total: an entity with no metadata at all still
	// yields a fully defined record.
	out := Project(Inputs{
		Config:         testConfig(),
		Snapshot:       entity.Unavailable("media_player.tv"),
		VolumeSnapshot: entity.Unavailable("media_player.tv"),
	})

	assert.Equal(t, "Idle", out.Title)
	assert.Equal(t, "", out.Artist)
	assert.Equal(t, "0:00", out.Elapsed)
	assert.Equal(t, "0:00", out.Total)
	assert.False(t, out.ShowProgress)
	assert.False(t, out.PowerOn)
	assert.False(t, out.ShowArtwork)
	assert.Equal(t, 0.0, out.VolumeLevel)
	assert.Equal(t, IconPlay, out.PlayIcon)
	assert.Equal(t, IconVolume, out.MuteIcon)
	assert.Equal(t, PlaceholderAudio, out.Placeholder)
}

func TestProject_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		status   entity.PlaybackStatus
		title    string
		expected string
	}{
		{"title wins", entity.StatusPlaying, "Track", "Track"},
		{"playing without title", entity.StatusPlaying, "", "Playing"},
		{"paused without title", entity.StatusPaused, "", "Idle"},
		{"idle without title", entity.StatusIdle, "", "Idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Project(Inputs{
				Config:   testConfig(),
				Snapshot: entity.Snapshot{Status: tt.status, Title: tt.title},
			})
			assert.Equal(t, tt.expected, out.Title)
		})
	}
}

func TestProject_ArtistFallsBackToFriendlyName(t *testing.T) {
	out := Project(Inputs{
		Config: testConfig(),
		Snapshot: entity.Snapshot{
			Status:       entity.StatusPlaying,
			FriendlyName: "Living Room TV",
		},
	})
	assert.Equal(t, "Living Room TV", out.Artist)
}

func TestProject_TransportIcons(t *testing.T) {
	playing := entity.Snapshot{
		Status:  entity.StatusPlaying,
		Shuffle: true,
		Repeat:  entity.RepeatOne,
	}

	out := Project(Inputs{Config: testConfig(), Snapshot: playing})
	assert.Equal(t, IconPause, out.PlayIcon)
	assert.True(t, out.ShuffleActive)
	assert.True(t, out.RepeatActive)
	assert.Equal(t, IconRepeatOne, out.RepeatIcon)

	// Shuffle/repeat highlighting is suppressed while not playing
	paused := playing
	paused.Status = entity.StatusPaused
	out = Project(Inputs{Config: testConfig(), Snapshot: paused})
	assert.Equal(t, IconPlay, out.PlayIcon)
	assert.False(t, out.ShuffleActive)
	assert.False(t, out.RepeatActive)
}

func TestProject_Progress(t *testing.T) {
	out := Project(Inputs{
		Config:       testConfig(),
		Snapshot:     entity.Snapshot{Status: entity.StatusPlaying, Duration: 245},
		Position:     61.5,
		Fraction:     0.251,
		ShowProgress: true,
	})

	assert.Equal(t, "1:01", out.Elapsed)
	assert.Equal(t, "4:05", out.Total)
	assert.Equal(t, 0.251, out.ProgressFraction)
	assert.True(t, out.ShowProgress)
}

func TestProject_ArtworkSuppressedByOverlay(t *testing.T) {
	snap := entity.Snapshot{
		Status:     entity.StatusPlaying,
		ArtworkURL: "/api/pic",
	}

	out := Project(Inputs{Config: testConfig(), Snapshot: snap})
	assert.True(t, out.ShowArtwork)

	out = Project(Inputs{Config: testConfig(), Snapshot: snap, OverlayOpen: true})
	assert.False(t, out.ShowArtwork)
	assert.True(t, out.OverlayOpen)
}

func TestProject_DropdownFlag(t *testing.T) {
	out := Project(Inputs{Config: testConfig(), OverlayOpen: true, DropdownOpen: true})
	assert.True(t, out.OverlayOpen)
	assert.True(t, out.DropdownOpen)

	out = Project(Inputs{Config: testConfig(), OverlayOpen: true})
	assert.False(t, out.DropdownOpen)
}

func TestProject_PlaceholderKind(t *testing.T) {
	out := Project(Inputs{
		Config:   testConfig(),
		Snapshot: entity.Snapshot{FriendlyName: "Living Room TV"},
	})
	assert.Equal(t, PlaceholderTV, out.Placeholder)

	out = Project(Inputs{
		Config:   testConfig(),
		Snapshot: entity.Snapshot{FriendlyName: "Kitchen Speaker"},
	})
	assert.Equal(t, PlaceholderAudio, out.Placeholder)
}

func TestProject_VolumePrefersRoutedEntity(t *testing.T) {
	out := Project(Inputs{
		Config:         testConfig(),
		Snapshot:       entity.Snapshot{VolumeLevel: 0.8},
		VolumeSnapshot: entity.Snapshot{VolumeLevel: 0.3},
	})
	assert.Equal(t, 0.3, out.VolumeLevel)

	out = Project(Inputs{
		Config:         testConfig(),
		Snapshot:       entity.Snapshot{VolumeLevel: 0.8},
		VolumeSnapshot: entity.Snapshot{VolumeLevel: -1},
	})
	assert.Equal(t, 0.8, out.VolumeLevel)
}

func TestProject_SourcesAndSelector(t *testing.T) {
	out := Project(Inputs{
		Config: testConfig(),
		Snapshot: entity.Snapshot{
			EntityID:     "media_player.tv",
			SourceList:   []string{"YouTube", "Netflix"},
			ActiveSource: "Netflix",
		},
		Candidates: []entity.Snapshot{
			{EntityID: "media_player.tv", FriendlyName: "Living Room TV"},
			{EntityID: "media_player.speaker"},
		},
	})

	require.Len(t, out.Sources, 2)
	assert.False(t, out.Sources[0].Active)
	assert.True(t, out.Sources[1].Active)

	require.Len(t, out.Selector, 2)
	assert.Equal(t, "Living Room TV", out.Selector[0].Label)
	assert.True(t, out.Selector[0].Current)
	// Label falls back to the entity key when no friendly name is known
	assert.Equal(t, "media_player.speaker", out.Selector[1].Label)
	assert.False(t, out.Selector[1].Current)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{1, "0:01"},
		{59, "0:59"},
		{60, "1:00"},
		{61.5, "1:01"},
		{245, "4:05"},
		{3661, "61:01"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.seconds))
		})
	}
}

func TestOverlay_StateMachine(t *testing.T) {
	var o Overlay

	assert.False(t, o.IsOpen())

	// Dropdown cannot open while the overlay is closed
	assert.False(t, o.ToggleDropdown())

	assert.True(t, o.Toggle())
	assert.True(t, o.IsOpen())
	assert.True(t, o.ToggleDropdown())
	assert.True(t, o.DropdownOpen())

	// Closing the overlay closes the dropdown with it
	o.Close()
	assert.False(t, o.IsOpen())
	assert.False(t, o.DropdownOpen())
}
