package dispatch

import (
	"fmt"
	"testing"

	"mediaremote/internal/entity"
	"mediaremote/internal/ha"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDispatcher() (*Dispatcher, *ha.MockClient) {
	mockHA := ha.NewMockClient()
	return New(mockHA, zap.NewNop()), mockHA
}

func TestDispatch_Transport(t *testing.T) {
	tests := []struct {
		name            string
		intent          Intent
		snap            entity.Snapshot
		expectedService string
		expectedData    map[string]interface{}
	}{
		{
			name:            "play pause",
			intent:          Intent{Kind: KindPlayPause},
			snap:            entity.Snapshot{EntityID: "media_player.tv"},
			expectedService: "media_play_pause",
		},
		{
			name:            "previous track",
			intent:          Intent{Kind: KindPrevious},
			snap:            entity.Snapshot{EntityID: "media_player.tv"},
			expectedService: "media_previous_track",
		},
		{
			name:            "next track",
			intent:          Intent{Kind: KindNext},
			snap:            entity.Snapshot{EntityID: "media_player.tv"},
			expectedService: "media_next_track",
		},
		{
			name:            "shuffle on from off",
			intent:          Intent{Kind: KindShuffleToggle},
			snap:            entity.Snapshot{EntityID: "media_player.tv", Shuffle: false},
			expectedService: "shuffle_set",
			expectedData:    map[string]interface{}{"shuffle": true},
		},
		{
			name:            "shuffle off from on",
			intent:          Intent{Kind: KindShuffleToggle},
			snap:            entity.Snapshot{EntityID: "media_player.tv", Shuffle: true},
			expectedService: "shuffle_set",
			expectedData:    map[string]interface{}{"shuffle": false},
		},
		{
			name:            "select source",
			intent:          Intent{Kind: KindSelectSource, Source: "Netflix"},
			snap:            entity.Snapshot{EntityID: "media_player.tv"},
			expectedService: "select_source",
			expectedData:    map[string]interface{}{"source": "Netflix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mockHA := newDispatcher()
			d.Dispatch(tt.intent, tt.snap)

			calls := mockHA.CallsTo("media_player", tt.expectedService)
			require.Len(t, calls, 1)
			assert.Equal(t, tt.snap.EntityID, calls[0].Data["entity_id"])
			for key, value := range tt.expectedData {
				assert.Equal(t, value, calls[0].Data[key])
			}
		})
	}
}

func TestDispatch_RepeatCycle(t *testing.T) {
	tests := []struct {
		current  entity.RepeatMode
		expected string
	}{
		{entity.RepeatAll, "one"},
		{entity.RepeatOne, "off"},
		{entity.RepeatOff, "all"},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			d, mockHA := newDispatcher()
			d.Dispatch(Intent{Kind: KindRepeatCycle}, entity.Snapshot{
				EntityID: "media_player.tv",
				Repeat:   tt.current,
			})

			calls := mockHA.CallsTo("media_player", "repeat_set")
			require.Len(t, calls, 1)
			assert.Equal(t, tt.expected, calls[0].Data["repeat"])
		})
	}
}

func TestDispatch_Seek(t *testing.T) {
	t.Run("maps fraction to seconds", func(t *testing.T) {
		d, mockHA := newDispatcher()
		d.Dispatch(Intent{Kind: KindSeek, Fraction: 0.25}, entity.Snapshot{
			EntityID: "media_player.tv",
			Duration: 200,
		})

		calls := mockHA.CallsTo("media_player", "media_seek")
		require.Len(t, calls, 1)
		assert.Equal(t, 50.0, calls[0].Data["seek_position"])
	})

	t.Run("clamps fraction", func(t *testing.T) {
		d, mockHA := newDispatcher()
		d.Dispatch(Intent{Kind: KindSeek, Fraction: 1.7}, entity.Snapshot{
			EntityID: "media_player.tv",
			Duration: 200,
		})

		calls := mockHA.CallsTo("media_player", "media_seek")
		require.Len(t, calls, 1)
		assert.Equal(t, 200.0, calls[0].Data["seek_position"])
	})

	t.Run("no-op without duration", func(t *testing.T) {
		d, mockHA := newDispatcher()
		d.Dispatch(Intent{Kind: KindSeek, Fraction: 0.5}, entity.Snapshot{
			EntityID: "media_player.tv",
		})

		assert.Empty(t, mockHA.GetServiceCalls())
	})
}

func TestDispatch_PowerToggle(t *testing.T) {
	tests := []struct {
		status   entity.PlaybackStatus
		expected string
	}{
		{entity.StatusPlaying, "turn_off"},
		{entity.StatusPaused, "turn_off"},
		{entity.StatusIdle, "turn_off"},
		{entity.StatusOff, "turn_on"},
		{entity.StatusStandby, "turn_on"},
		{entity.StatusUnavailable, "turn_on"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d, mockHA := newDispatcher()
			d.Dispatch(Intent{Kind: KindPowerToggle}, entity.Snapshot{
				EntityID: "media_player.tv",
				Status:   tt.status,
			})

			calls := mockHA.CallsTo("media_player", tt.expected)
			require.Len(t, calls, 1)
		})
	}
}

func TestSendRemoteCommand_PrefersRemote(t *testing.T) {
	d, mockHA := newDispatcher()
	d.SendRemoteCommand("media_player.living_room_tv", DirUp)

	calls := mockHA.CallsTo("remote", "send_command")
	require.Len(t, calls, 1)
	assert.Equal(t, "remote.living_room_tv", calls[0].Data["entity_id"])
	assert.Equal(t, "up", calls[0].Data["command"])

	// Remote accepted; the ADB backend must not have been tried
	assert.Empty(t, mockHA.CallsTo("androidtv", "adb_command"))
}

func TestSendRemoteCommand_FallsBackToADB(t *testing.T) {
	tests := []struct {
		dir      Direction
		expected string
	}{
		{DirUp, "input keyevent 19"},
		{DirDown, "input keyevent 20"},
		{DirLeft, "input keyevent 21"},
		{DirRight, "input keyevent 22"},
		{DirSelect, "input keyevent 23"},
		{DirBack, "input keyevent 4"},
		{DirHome, "input keyevent 3"},
		{DirMenu, "input keyevent 82"},
		{DirAssistant, "input keyevent 225"},
		{DirSearch, "input keyevent 84"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			d, mockHA := newDispatcher()
			mockHA.SetServiceError("remote", "send_command", fmt.Errorf("integration not loaded"))

			d.SendRemoteCommand("media_player.living_room_tv", tt.dir)

			calls := mockHA.CallsTo("androidtv", "adb_command")
			require.Len(t, calls, 1)
			assert.Equal(t, "media_player.living_room_tv", calls[0].Data["entity_id"])
			assert.Equal(t, tt.expected, calls[0].Data["command"])
		})
	}
}

func TestSendRemoteCommand_WholeChainRejected(t *testing.T) {
	d, mockHA := newDispatcher()
	mockHA.SetServiceError("remote", "send_command", fmt.Errorf("nope"))
	mockHA.SetServiceError("androidtv", "adb_command", fmt.Errorf("nope"))

	// Must not panic or propagate anything
	d.SendRemoteCommand("media_player.living_room_tv", DirSelect)

	assert.Len(t, mockHA.CallsTo("remote", "send_command"), 1)
	assert.Len(t, mockHA.CallsTo("androidtv", "adb_command"), 1)
}

func TestStepVolume_NoFallback(t *testing.T) {
	d, mockHA := newDispatcher()
	mockHA.SetServiceError("remote", "send_command", fmt.Errorf("nope"))

	d.StepVolume("media_player.living_room_tv", 1)
	d.StepVolume("media_player.living_room_tv", -1)

	calls := mockHA.CallsTo("remote", "send_command")
	require.Len(t, calls, 2)
	assert.Equal(t, "volume_up", calls[0].Data["command"])
	assert.Equal(t, "volume_down", calls[1].Data["command"])

	// A rejected volume step is dropped, never retried over ADB
	assert.Empty(t, mockHA.CallsTo("androidtv", "adb_command"))
}

func TestSetVolume_Clamps(t *testing.T) {
	d, mockHA := newDispatcher()

	d.SetVolume("media_player.tv", 1.4)
	d.SetVolume("media_player.tv", -0.2)

	calls := mockHA.CallsTo("media_player", "volume_set")
	require.Len(t, calls, 2)
	assert.Equal(t, 1.0, calls[0].Data["volume_level"])
	assert.Equal(t, 0.0, calls[1].Data["volume_level"])
}

func TestSetMute(t *testing.T) {
	d, mockHA := newDispatcher()

	d.SetMute("media_player.tv", true)

	calls := mockHA.CallsTo("media_player", "volume_mute")
	require.Len(t, calls, 1)
	assert.Equal(t, true, calls[0].Data["is_volume_muted"])
}

func TestRequestRefresh(t *testing.T) {
	d, mockHA := newDispatcher()

	d.RequestRefresh("media_player.tv")

	calls := mockHA.CallsTo("homeassistant", "update_entity")
	require.Len(t, calls, 1)
	assert.Equal(t, "media_player.tv", calls[0].Data["entity_id"])
}

func TestRemoteEntityID(t *testing.T) {
	assert.Equal(t, "remote.tv", RemoteEntityID("media_player.tv"))
	assert.Equal(t, "sensor.other", RemoteEntityID("sensor.other"))
}
