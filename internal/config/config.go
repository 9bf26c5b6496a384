// Package config loads the widget configuration. The configuration is read
// once per session and treated as read-only by the core.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Volume control styles
const (
	VolumeSlider  = "slider"
	VolumeButtons = "buttons"
)

// Display modes
const (
	ModeCompact  = "compact"
	ModeExpanded = "expanded"
	ModeRemote   = "remote"
)

// Defaults matching the card's stub configuration
const (
	defaultAccentColor = "#4285F4"
	defaultTitleColor  = "#ffffff"
	defaultArtistColor = "#ffffff"
)

// WidgetConfig is the static per-session configuration of the media remote
type WidgetConfig struct {
	// Entities lists the controllable media players in display/priority order
	Entities []string `yaml:"entities"`

	// AutoSwitch enables following whichever configured entity is playing
	AutoSwitch *bool `yaml:"auto_switch"`

	AccentColor  string `yaml:"accent_color"`
	VolumeAccent string `yaml:"volume_accent"`
	TitleColor   string `yaml:"title_color"`
	ArtistColor  string `yaml:"artist_color"`

	// ShowEntitySelector controls the entity drop-down visibility
	ShowEntitySelector *bool `yaml:"show_entity_selector"`

	// VolumeControl selects "slider" or "buttons"
	VolumeControl string `yaml:"volume_control"`

	// StartupMode is the initial display mode: compact, expanded, or remote
	StartupMode string `yaml:"startup_mode"`

	// VolumeEntity optionally routes volume commands to a different entity
	VolumeEntity string `yaml:"volume_entity"`
}

// Load reads and validates the widget configuration from a YAML file
func Load(path string, logger *zap.Logger) (*WidgetConfig, error) {
	logger.Debug("Loading widget config", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read widget config: %w", err)
	}

	var cfg WidgetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse widget config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Widget config loaded",
		zap.Int("entities", len(cfg.Entities)),
		zap.String("startup_mode", cfg.StartupMode),
		zap.String("volume_control", cfg.VolumeControl))
	return &cfg, nil
}

func (c *WidgetConfig) applyDefaults() {
	if c.AutoSwitch == nil {
		c.AutoSwitch = boolPtr(true)
	}
	if c.ShowEntitySelector == nil {
		c.ShowEntitySelector = boolPtr(true)
	}
	if c.AccentColor == "" {
		c.AccentColor = defaultAccentColor
	}
	if c.VolumeAccent == "" {
		c.VolumeAccent = c.AccentColor
	}
	if c.TitleColor == "" {
		c.TitleColor = defaultTitleColor
	}
	if c.ArtistColor == "" {
		c.ArtistColor = defaultArtistColor
	}
	if c.VolumeControl == "" {
		c.VolumeControl = VolumeSlider
	}
	if c.StartupMode == "" {
		c.StartupMode = ModeCompact
	}
}

// Validate rejects configurations the core cannot activate with. An empty
// entity list is the one fatal configuration error.
func (c *WidgetConfig) Validate() error {
	if len(c.Entities) == 0 {
		return fmt.Errorf("widget config: at least one entity must be configured")
	}

	for _, e := range c.Entities {
		if e == "" {
			return fmt.Errorf("widget config: empty entity key in entities list")
		}
	}

	switch c.VolumeControl {
	case VolumeSlider, VolumeButtons:
	default:
		return fmt.Errorf("widget config: invalid volume_control %q", c.VolumeControl)
	}

	switch c.StartupMode {
	case ModeCompact, ModeExpanded, ModeRemote:
	default:
		return fmt.Errorf("widget config: invalid startup_mode %q", c.StartupMode)
	}

	return nil
}

// AutoSwitchEnabled returns the auto_switch flag with its default applied
func (c *WidgetConfig) AutoSwitchEnabled() bool {
	return c.AutoSwitch == nil || *c.AutoSwitch
}

// SelectorVisible returns the show_entity_selector flag with its default applied
func (c *WidgetConfig) SelectorVisible() bool {
	return c.ShowEntitySelector == nil || *c.ShowEntitySelector
}

func boolPtr(v bool) *bool {
	return &v
}
