// Package view projects raw widget state into the exact set of visual facts
// the presentation layer renders. Projection is a pure function: every field
// of the output record is defined for every reachable input, including an
// entity with no metadata at all.
package view

import (
	"fmt"
	"math"
	"strings"

	"mediaremote/internal/config"
	"mediaremote/internal/entity"
)

// Icon names handed to the presentation layer
const (
	IconPlay        = "play"
	IconPause       = "pause"
	IconRepeat      = "repeat"
	IconRepeatOne   = "repeat-one"
	IconVolume      = "volume"
	IconVolumeMuted = "volume-muted"
)

// Placeholder kinds for the artwork area
const (
	PlaceholderTV    = "tv"
	PlaceholderAudio = "audio"
)

// Source is one entry of the app/source list
type Source struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Option is one entry of the entity selector
type Option struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
}

// Inputs carries everything the projection depends on
type Inputs struct {
	Config *config.WidgetConfig

	// Snapshot of the focused entity; use entity.Unavailable for absence
	Snapshot entity.Snapshot

	// VolumeSnapshot is the resolved volume route's snapshot. May equal
	// Snapshot when volume is not routed elsewhere.
	VolumeSnapshot entity.Snapshot

	// Candidates are the configured entities' snapshots in priority order
	Candidates []entity.Snapshot

	// Interpolated progress for the focused entity
	Position     float64
	Fraction     float64
	ShowProgress bool

	// Local UI mode flags
	Compact      bool
	OverlayOpen  bool
	DropdownOpen bool
}

// State is the complete visual-state record
type State struct {
	EntityID string `json:"entity_id"`

	Title       string `json:"title"`
	Artist      string `json:"artist"`
	TitleColor  string `json:"title_color"`
	ArtistColor string `json:"artist_color"`

	AccentColor  string `json:"accent_color"`
	VolumeAccent string `json:"volume_accent"`

	PlayIcon      string `json:"play_icon"`
	ShuffleActive bool   `json:"shuffle_active"`
	RepeatActive  bool   `json:"repeat_active"`
	RepeatIcon    string `json:"repeat_icon"`

	Elapsed          string  `json:"elapsed"`
	Total            string  `json:"total"`
	ProgressFraction float64 `json:"progress_fraction"`
	ShowProgress     bool    `json:"show_progress"`

	PowerOn  bool   `json:"power_on"`
	Muted    bool   `json:"muted"`
	MuteIcon string `json:"mute_icon"`

	ShowArtwork bool   `json:"show_artwork"`
	ArtworkURL  string `json:"artwork_url"`
	Placeholder string `json:"placeholder"`

	VolumeLevel float64 `json:"volume_level"`
	VolumeStyle string  `json:"volume_style"`

	Sources []Source `json:"sources"`

	SelectorVisible bool     `json:"selector_visible"`
	Selector        []Option `json:"selector"`

	Compact      bool `json:"compact"`
	OverlayOpen  bool `json:"overlay_open"`
	DropdownOpen bool `json:"dropdown_open"`
}

// Project derives the visual state from a raw widget state
func Project(in Inputs) State {
	snap := in.Snapshot
	isPlaying := snap.Status == entity.StatusPlaying

	out := State{
		EntityID:     snap.EntityID,
		TitleColor:   in.Config.TitleColor,
		ArtistColor:  in.Config.ArtistColor,
		AccentColor:  in.Config.AccentColor,
		VolumeAccent: in.Config.VolumeAccent,
		VolumeStyle:  in.Config.VolumeControl,
		Compact:      in.Compact,
		OverlayOpen:  in.OverlayOpen,
		DropdownOpen: in.DropdownOpen,
	}

	// Track info with defined fallbacks
	out.Title = snap.Title
	if out.Title == "" {
		if isPlaying {
			out.Title = "Playing"
		} else {
			out.Title = "Idle"
		}
	}
	out.Artist = snap.Artist
	if out.Artist == "" {
		out.Artist = snap.FriendlyName
	}

	// Transport controls
	out.PlayIcon = IconPlay
	if isPlaying {
		out.PlayIcon = IconPause
	}
	out.ShuffleActive = isPlaying && snap.Shuffle
	out.RepeatActive = isPlaying && snap.Repeat != entity.RepeatOff
	out.RepeatIcon = IconRepeat
	if snap.Repeat == entity.RepeatOne {
		out.RepeatIcon = IconRepeatOne
	}

	// Progress
	out.Total = FormatTime(snap.Duration)
	if in.ShowProgress {
		out.Elapsed = FormatTime(in.Position)
		out.ProgressFraction = in.Fraction
		out.ShowProgress = true
	} else {
		out.Elapsed = FormatTime(0)
	}

	// Power and mute
	out.PowerOn = !snap.IsOff()
	out.Muted = snap.Muted
	out.MuteIcon = IconVolume
	if snap.Muted {
		out.MuteIcon = IconVolumeMuted
	}

	// Artwork vs placeholder; the overlay covers the artwork area while open
	out.ArtworkURL = snap.ArtworkURL
	out.ShowArtwork = isPlaying && snap.ArtworkURL != "" && !in.OverlayOpen
	out.Placeholder = placeholderFor(snap)

	// Volume slider prefers the routed entity's level
	switch {
	case in.VolumeSnapshot.HasVolume():
		out.VolumeLevel = in.VolumeSnapshot.VolumeLevel
	case snap.HasVolume():
		out.VolumeLevel = snap.VolumeLevel
	default:
		out.VolumeLevel = 0
	}

	// Sources with the active one flagged
	out.Sources = make([]Source, 0, len(snap.SourceList))
	for _, name := range snap.SourceList {
		out.Sources = append(out.Sources, Source{
			Name:   name,
			Active: name == snap.ActiveSource,
		})
	}

	// Entity selector options
	out.SelectorVisible = in.Config.SelectorVisible()
	out.Selector = make([]Option, 0, len(in.Candidates))
	for _, cand := range in.Candidates {
		label := cand.FriendlyName
		if label == "" {
			label = cand.EntityID
		}
		out.Selector = append(out.Selector, Option{
			Key:     cand.EntityID,
			Label:   label,
			Current: cand.EntityID == snap.EntityID,
		})
	}

	return out
}

// placeholderFor picks the artwork placeholder glyph: a television glyph for
// entities whose friendly name hints at a TV, a generic audio glyph
// otherwise.
func placeholderFor(snap entity.Snapshot) string {
	if strings.Contains(strings.ToLower(snap.FriendlyName), "tv") {
		return PlaceholderTV
	}
	return PlaceholderAudio
}

// FormatTime renders a duration in seconds as M:SS with zero-padded seconds.
// Invalid or absent input renders as 0:00.
func FormatTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
