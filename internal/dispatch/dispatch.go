// Package dispatch translates user intents into Home Assistant service
// calls. Media-transport intents go to the media_player domain with no
// fallback. Remote-input intents walk an ordered backend chain: the remote
// integration first, then the Android TV ADB shell. All failures are
// swallowed; a live control surface degrades silently rather than surfacing
// transient backend errors.
package dispatch

import (
	"strings"

	"mediaremote/internal/entity"
	"mediaremote/internal/ha"

	"go.uber.org/zap"
)

// adbKeycodes maps remote-input commands to Android key events for the ADB
// fallback backend.
var adbKeycodes = map[Direction]string{
	DirUp:        "input keyevent 19",
	DirDown:      "input keyevent 20",
	DirLeft:      "input keyevent 21",
	DirRight:     "input keyevent 22",
	DirSelect:    "input keyevent 23",
	DirBack:      "input keyevent 4",
	DirHome:      "input keyevent 3",
	DirMenu:      "input keyevent 82",
	DirAssistant: "input keyevent 225",
	DirSearch:    "input keyevent 84",
}

// remoteBackend is one candidate transport for a remote-input command
type remoteBackend func(d *Dispatcher, mediaEntityID string, cmd Direction) error

// remoteChain lists the backends tried in order for remote-input commands,
// short-circuiting on the first success.
var remoteChain = []remoteBackend{
	(*Dispatcher).sendViaRemote,
	(*Dispatcher).sendViaADB,
}

// Dispatcher issues remote commands for user intents
type Dispatcher struct {
	client ha.Client
	logger *zap.Logger
}

// New creates a Dispatcher
func New(client ha.Client, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.Named("dispatch"),
	}
}

// Dispatch issues the service call(s) for an intent against the given
// snapshot. Volume-routed intents (volume_set, volume_step, mute_toggle) are
// not handled here; the widget resolves their target through the volume
// package first.
func (d *Dispatcher) Dispatch(in Intent, snap entity.Snapshot) {
	switch in.Kind {
	case KindPlayPause:
		d.mediaCall(snap.EntityID, "media_play_pause", nil)

	case KindPrevious:
		d.mediaCall(snap.EntityID, "media_previous_track", nil)

	case KindNext:
		d.mediaCall(snap.EntityID, "media_next_track", nil)

	case KindShuffleToggle:
		d.mediaCall(snap.EntityID, "shuffle_set", map[string]interface{}{
			"shuffle": !snap.Shuffle,
		})

	case KindRepeatCycle:
		d.mediaCall(snap.EntityID, "repeat_set", map[string]interface{}{
			"repeat": string(NextRepeat(snap.Repeat)),
		})

	case KindSeek:
		if snap.Duration <= 0 {
			d.logger.Debug("Ignoring seek: no known duration",
				zap.String("entity_id", snap.EntityID))
			return
		}
		fraction := in.Fraction
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		d.mediaCall(snap.EntityID, "media_seek", map[string]interface{}{
			"seek_position": snap.Duration * fraction,
		})

	case KindPowerToggle:
		service := "turn_off"
		if snap.IsOff() {
			service = "turn_on"
		}
		d.mediaCall(snap.EntityID, service, nil)

	case KindSelectSource:
		d.mediaCall(snap.EntityID, "select_source", map[string]interface{}{
			"source": in.Source,
		})

	case KindDirectional:
		d.SendRemoteCommand(snap.EntityID, in.Direction)

	default:
		d.logger.Warn("Unhandled intent kind", zap.String("kind", string(in.Kind)))
	}
}

// NextRepeat returns the repeat mode following mode in the cycle
// all -> one -> off -> all.
func NextRepeat(mode entity.RepeatMode) entity.RepeatMode {
	switch mode {
	case entity.RepeatAll:
		return entity.RepeatOne
	case entity.RepeatOne:
		return entity.RepeatOff
	default:
		return entity.RepeatAll
	}
}

// SendRemoteCommand walks the remote backend chain for a media player
// entity, stopping at the first backend that accepts the command. Failure of
// the whole chain is non-fatal.
func (d *Dispatcher) SendRemoteCommand(mediaEntityID string, cmd Direction) {
	for _, backend := range remoteChain {
		if err := backend(d, mediaEntityID, cmd); err == nil {
			return
		}
	}

	d.logger.Debug("All remote backends rejected command",
		zap.String("entity_id", mediaEntityID),
		zap.String("command", string(cmd)))
}

// sendViaRemote targets the paired remote.* entity of a media player
func (d *Dispatcher) sendViaRemote(mediaEntityID string, cmd Direction) error {
	return d.client.CallService("remote", "send_command", map[string]interface{}{
		"entity_id": RemoteEntityID(mediaEntityID),
		"command":   string(cmd),
	})
}

// sendViaADB issues the mapped shell keycode through the Android TV
// integration.
func (d *Dispatcher) sendViaADB(mediaEntityID string, cmd Direction) error {
	shellCmd, ok := adbKeycodes[cmd]
	if !ok {
		shellCmd = string(cmd)
	}
	return d.client.CallService("androidtv", "adb_command", map[string]interface{}{
		"entity_id": mediaEntityID,
		"command":   shellCmd,
	})
}

// StepVolume nudges the volume one quantum through the paired remote
// entity. Step commands have no ADB fallback; a rejected step is dropped.
func (d *Dispatcher) StepVolume(mediaEntityID string, direction int) {
	cmd := "volume_up"
	if direction < 0 {
		cmd = "volume_down"
	}
	if err := d.client.CallService("remote", "send_command", map[string]interface{}{
		"entity_id": RemoteEntityID(mediaEntityID),
		"command":   cmd,
	}); err != nil {
		d.logger.Debug("Volume step rejected",
			zap.String("entity_id", mediaEntityID),
			zap.String("command", cmd),
			zap.Error(err))
	}
}

// SetVolume issues an absolute volume level against a volume target
func (d *Dispatcher) SetVolume(entityID string, level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	d.mediaCall(entityID, "volume_set", map[string]interface{}{
		"volume_level": level,
	})
}

// SetMute issues a mute state against a volume target
func (d *Dispatcher) SetMute(entityID string, muted bool) {
	d.mediaCall(entityID, "volume_mute", map[string]interface{}{
		"is_volume_muted": muted,
	})
}

// RequestRefresh asks Home Assistant for a fresh snapshot of an entity.
// Used by the liveness tick; failures are swallowed like any other command.
func (d *Dispatcher) RequestRefresh(entityID string) {
	if err := d.client.CallService("homeassistant", "update_entity", map[string]interface{}{
		"entity_id": entityID,
	}); err != nil {
		d.logger.Debug("Entity refresh rejected",
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// mediaCall issues a media_player service call, swallowing failures
func (d *Dispatcher) mediaCall(entityID, service string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["entity_id"] = entityID

	if err := d.client.CallService("media_player", service, data); err != nil {
		d.logger.Debug("Media call rejected",
			zap.String("entity_id", entityID),
			zap.String("service", service),
			zap.Error(err))
	}
}

// RemoteEntityID derives the paired remote.* key from a media_player.* key
func RemoteEntityID(mediaEntityID string) string {
	return strings.Replace(mediaEntityID, "media_player.", "remote.", 1)
}
