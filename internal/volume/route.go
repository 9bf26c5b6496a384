// Package volume resolves where volume gestures are sent and rate-limits
// step-based volume changes. Some Android TV devices expose no absolute
// volume control; their paired remote entity can only nudge the volume one
// quantum per command, so a slider gesture has to be converted into a
// bounded-rate sequence of step commands.
package volume

import (
	"strings"

	"mediaremote/internal/dispatch"
	"mediaremote/internal/ha"
)

// ResolveRoute returns the entity volume commands should target: the
// configured volume entity when set, otherwise the focused entity. Volume
// routing is independent of playback entity selection.
func ResolveRoute(volumeEntity, currentEntity string) string {
	if ve := strings.TrimSpace(volumeEntity); ve != "" {
		return ve
	}
	return currentEntity
}

// HasStepBackend reports whether the resolved route only supports step-based
// volume control. That is the case when volume targets the focused entity
// itself and a paired remote.* entity exists for it; the remote integration
// is then preferred and only understands volume_up/volume_down.
func HasStepBackend(client ha.Client, route, currentEntity string) bool {
	if route != currentEntity {
		return false
	}

	remoteID := dispatch.RemoteEntityID(currentEntity)
	if remoteID == currentEntity {
		return false
	}

	_, err := client.GetState(remoteID)
	return err == nil
}
