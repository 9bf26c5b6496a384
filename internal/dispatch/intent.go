package dispatch

// Kind identifies a user intent raised by the presentation layer
type Kind string

const (
	KindPlayPause     Kind = "play_pause"
	KindPrevious      Kind = "previous"
	KindNext          Kind = "next"
	KindShuffleToggle Kind = "shuffle_toggle"
	KindRepeatCycle   Kind = "repeat_cycle"
	KindSeek          Kind = "seek"
	KindVolumeSet     Kind = "volume_set"
	KindVolumeStep    Kind = "volume_step"
	KindMuteToggle    Kind = "mute_toggle"
	KindPowerToggle   Kind = "power_toggle"
	KindSelectSource  Kind = "select_source"
	KindDirectional   Kind = "directional"
)

// Direction is a remote-input command name
type Direction string

const (
	DirUp        Direction = "up"
	DirDown      Direction = "down"
	DirLeft      Direction = "left"
	DirRight     Direction = "right"
	DirSelect    Direction = "select"
	DirBack      Direction = "back"
	DirHome      Direction = "home"
	DirMenu      Direction = "menu"
	DirAssistant Direction = "assistant"
	DirSearch    Direction = "search"
)

// Intent is a tagged user gesture. Kind selects which parameter fields are
// meaningful.
type Intent struct {
	Kind Kind `json:"kind"`

	// Fraction of the track to seek to, 0.0-1.0 (seek)
	Fraction float64 `json:"fraction,omitempty"`

	// Level is an absolute volume level, 0.0-1.0 (volume_set)
	Level float64 `json:"level,omitempty"`

	// Step is +1 or -1 (volume_step)
	Step int `json:"step,omitempty"`

	// Source is an app/source name (select_source)
	Source string `json:"source,omitempty"`

	// Direction is a remote-input command (directional)
	Direction Direction `json:"direction,omitempty"`
}
