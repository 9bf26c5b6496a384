// Package widget is the state-reconciliation and command-dispatch core of
// the media remote. It owns the focused-entity selection, the latest entity
// snapshots, the remote overlay, and the volume debounce session, and it
// drives the two periodic tasks: a 1s UI refresh (progress interpolation and
// re-projection) and a 10s liveness pulse requesting a fresh snapshot of the
// focused entity.
package widget

import (
	"sync"
	"time"

	"mediaremote/internal/clock"
	"mediaremote/internal/config"
	"mediaremote/internal/dispatch"
	"mediaremote/internal/entity"
	"mediaremote/internal/ha"
	"mediaremote/internal/progress"
	"mediaremote/internal/selector"
	"mediaremote/internal/view"
	"mediaremote/internal/volume"

	"go.uber.org/zap"
)

const (
	uiRefreshInterval = 1 * time.Second
	livenessInterval  = 10 * time.Second

	// volumeButtonStep is the absolute-volume quantum used when volume
	// buttons have no step backend to delegate to.
	volumeButtonStep = 0.05
)

// UpdateHandler receives the projected view state after every change. It is
// invoked synchronously and must not call back into the widget.
type UpdateHandler func(view.State)

// Widget is the widget controller. All mutable state is owned here and
// mutated only in response to snapshot updates, user intents, and timer
// fires.
type Widget struct {
	client     ha.Client
	clk        clock.Clock
	cfg        *config.WidgetConfig
	logger     *zap.Logger
	dispatcher *dispatch.Dispatcher
	sel        *selector.Selector
	debouncer  *volume.Debouncer

	mu           sync.Mutex
	snapshots    map[string]entity.Snapshot
	overlay      view.Overlay
	compact      bool
	running      bool
	uiTimer      clock.Timer
	liveTimer    clock.Timer
	haSubs       []ha.Subscription
	current      view.State
	onUpdate     UpdateHandler
	sessionRoute  string // volume route the debounce session was armed for
	sessionStep   bool   // whether the session's route only steps volume
	sessionProbed bool   // sessionStep has been resolved for this session
	volTarget     string // entity the next emitted volume step targets
}

// New creates a Widget from a validated configuration
func New(client ha.Client, clk clock.Clock, cfg *config.WidgetConfig, logger *zap.Logger) *Widget {
	logger = logger.Named("widget")

	w := &Widget{
		client:     client,
		clk:        clk,
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatch.New(client, logger),
		sel:        selector.New(cfg.Entities, cfg.AutoSwitchEnabled(), logger),
		snapshots:  make(map[string]entity.Snapshot),
		compact:    cfg.StartupMode == config.ModeCompact,
	}
	w.debouncer = volume.NewDebouncer(clk, w.emitVolumeStep, logger)

	if cfg.StartupMode == config.ModeRemote {
		w.overlay.Open()
	}

	return w
}

// Start activates the widget: loads initial snapshots, subscribes to state
// changes for every configured entity, and arms both periodic tasks.
func (w *Widget) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true

	w.logger.Info("Starting media remote widget",
		zap.Strings("entities", w.cfg.Entities),
		zap.Bool("auto_switch", w.cfg.AutoSwitchEnabled()))

	for _, entityID := range w.cfg.Entities {
		if state, err := w.client.GetState(entityID); err == nil {
			w.snapshots[entityID] = entity.FromState(state)
		} else {
			w.logger.Debug("No initial state for entity",
				zap.String("entity_id", entityID), zap.Error(err))
		}

		sub, err := w.client.SubscribeStateChanges(entityID, w.handleStateChange)
		if err != nil {
			w.logger.Warn("Failed to subscribe to entity",
				zap.String("entity_id", entityID), zap.Error(err))
			continue
		}
		w.haSubs = append(w.haSubs, sub)
	}

	w.sel.Reselect(w.isPlayingLocked)
	w.resetVolumeSessionLocked()
	w.armUITickLocked()
	w.armLivenessTickLocked()
	w.refreshLocked()

	return nil
}

// Stop deactivates the widget. Both periodic tasks and any pending debounce
// timer are cancelled together; no timer survives teardown.
func (w *Widget) Stop() {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false

	if w.uiTimer != nil {
		w.uiTimer.Stop()
		w.uiTimer = nil
	}
	if w.liveTimer != nil {
		w.liveTimer.Stop()
		w.liveTimer = nil
	}

	subs := w.haSubs
	w.haSubs = nil
	w.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	w.debouncer.Reset()

	w.logger.Info("Media remote widget stopped")
}

// View returns the most recently projected view state
func (w *Widget) View() view.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// OnUpdate registers the presentation-layer callback for view updates
func (w *Widget) OnUpdate(handler UpdateHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onUpdate = handler
}

// SelectEntity applies an explicit user entity choice. The manual override
// latches, the volume debounce session is destroyed before any further
// gesture can be processed, and the remote overlay closes.
func (w *Widget) SelectEntity(entityID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sel.Pick(entityID)
	w.resetVolumeSessionLocked()
	w.overlay.Close()
	w.refreshLocked()
}

// OpenOverlay opens the remote-control overlay
func (w *Widget) OpenOverlay() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlay.Open()
	w.refreshLocked()
}

// CloseOverlay closes the remote-control overlay and its app dropdown; the
// refresh restores the artwork choice from the latest snapshot.
func (w *Widget) CloseOverlay() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlay.Close()
	w.refreshLocked()
}

// ToggleOverlay flips the remote-control overlay
func (w *Widget) ToggleOverlay() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlay.Toggle()
	w.refreshLocked()
}

// ToggleSourceDropdown flips the app-source dropdown inside the overlay
func (w *Widget) ToggleSourceDropdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlay.ToggleDropdown()
	w.refreshLocked()
}

// SetCompact switches between the compact and expanded display modes
func (w *Widget) SetCompact(compact bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.compact = compact
	w.refreshLocked()
}

// HandleIntent translates a user gesture into remote commands. Volume
// intents resolve their route first; everything else dispatches against the
// focused entity's snapshot. Command failures never propagate.
func (w *Widget) HandleIntent(in dispatch.Intent) {
	switch in.Kind {
	case dispatch.KindVolumeSet:
		w.handleVolumeSlider(in.Level)

	case dispatch.KindVolumeStep:
		w.handleVolumeButton(in.Step)

	case dispatch.KindMuteToggle:
		w.handleMuteToggle()

	case dispatch.KindSelectSource:
		w.mu.Lock()
		snap := w.snapshotLocked(w.sel.Current())
		w.overlay.CloseDropdown()
		w.refreshLocked()
		w.mu.Unlock()
		w.dispatcher.Dispatch(in, snap)

	default:
		w.mu.Lock()
		snap := w.snapshotLocked(w.sel.Current())
		w.mu.Unlock()
		w.dispatcher.Dispatch(in, snap)
	}
}

// handleVolumeSlider processes one slider value of a volume gesture
func (w *Widget) handleVolumeSlider(level float64) {
	w.mu.Lock()
	current := w.sel.Current()
	route := volume.ResolveRoute(w.cfg.VolumeEntity, current)
	if route != w.sessionRoute {
		w.resetVolumeSessionLocked()
	}
	w.volTarget = current
	w.mu.Unlock()

	if w.sessionStepBackend(route, current) {
		w.debouncer.Input(level)
		return
	}

	w.dispatcher.SetVolume(route, level)
}

// handleVolumeButton processes a discrete volume up/down press
func (w *Widget) handleVolumeButton(step int) {
	if step == 0 {
		return
	}

	w.mu.Lock()
	current := w.sel.Current()
	route := volume.ResolveRoute(w.cfg.VolumeEntity, current)
	if route != w.sessionRoute {
		w.resetVolumeSessionLocked()
	}
	routeSnap := w.snapshotLocked(route)
	w.mu.Unlock()

	if w.sessionStepBackend(route, current) {
		w.dispatcher.StepVolume(current, step)
		return
	}

	level := 0.0
	if routeSnap.HasVolume() {
		level = routeSnap.VolumeLevel
	}
	if step > 0 {
		level += volumeButtonStep
	} else {
		level -= volumeButtonStep
	}
	w.dispatcher.SetVolume(route, level)
}

// handleMuteToggle flips mute on the volume route, keyed off the focused
// entity's mute state.
func (w *Widget) handleMuteToggle() {
	w.mu.Lock()
	current := w.sel.Current()
	route := volume.ResolveRoute(w.cfg.VolumeEntity, current)
	muted := w.snapshotLocked(current).Muted
	w.mu.Unlock()

	w.dispatcher.SetMute(route, !muted)
}

// emitVolumeStep is the debouncer's emission path
func (w *Widget) emitVolumeStep(direction int) {
	w.mu.Lock()
	target := w.volTarget
	w.mu.Unlock()

	if target == "" {
		return
	}
	w.dispatcher.StepVolume(target, direction)
}

// handleStateChange ingests a snapshot-feed update for a configured entity
func (w *Widget) handleStateChange(entityID string, oldState, newState *ha.State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if newState == nil {
		w.snapshots[entityID] = entity.Unavailable(entityID)
	} else {
		w.snapshots[entityID] = entity.FromState(newState)
	}

	before := w.sel.Current()
	w.sel.Reselect(w.isPlayingLocked)
	if w.sel.Current() != before {
		// The volume route may follow the focused entity; a stale
		// pending step must not fire against the new target.
		w.resetVolumeSessionLocked()
	}

	w.refreshLocked()
}

// isPlayingLocked reports whether an entity's latest snapshot is playing
func (w *Widget) isPlayingLocked(entityID string) bool {
	return w.snapshots[entityID].Status == entity.StatusPlaying
}

// snapshotLocked returns the latest snapshot for an entity, or the
// unavailable placeholder when none has been seen.
func (w *Widget) snapshotLocked(entityID string) entity.Snapshot {
	if snap, ok := w.snapshots[entityID]; ok {
		return snap
	}
	return entity.Unavailable(entityID)
}

// sessionStepBackend returns the debounce session's step-backend decision,
// resolving it on the session's first gesture and holding it for the rest of
// the session. Resolving once keeps the state query off the per-input path of
// a drag burst, and a transient query failure mid-gesture cannot reroute the
// gesture to an absolute call the device may not support.
func (w *Widget) sessionStepBackend(route, current string) bool {
	w.mu.Lock()
	if w.sessionProbed && route == w.sessionRoute {
		step := w.sessionStep
		w.mu.Unlock()
		return step
	}
	w.mu.Unlock()

	step := volume.HasStepBackend(w.client, route, current)

	w.mu.Lock()
	// A concurrent focus change may have reset the session; only a result
	// for the session's own route is worth keeping.
	if route == w.sessionRoute {
		w.sessionStep = step
		w.sessionProbed = true
	}
	w.mu.Unlock()
	return step
}

// resetVolumeSessionLocked atomically destroys the debounce session and
// re-arms it for the currently resolved route, seeding from the route's last
// known absolute volume. The step-backend decision is discarded with the
// session and re-resolved on the next gesture.
func (w *Widget) resetVolumeSessionLocked() {
	current := w.sel.Current()
	route := volume.ResolveRoute(w.cfg.VolumeEntity, current)

	w.debouncer.Reset()
	w.sessionRoute = route
	w.sessionStep = false
	w.sessionProbed = false
	w.volTarget = ""

	if snap := w.snapshotLocked(route); snap.HasVolume() {
		w.debouncer.Seed(snap.VolumeLevel)
	}
}

// refreshLocked recomputes the projected view state and notifies the
// presentation layer.
func (w *Widget) refreshLocked() {
	current := w.sel.Current()
	snap := w.snapshotLocked(current)
	route := volume.ResolveRoute(w.cfg.VolumeEntity, current)

	pos, frac, ok := progress.Interpolate(snap, w.clk.Now())

	candidates := make([]entity.Snapshot, 0, len(w.cfg.Entities))
	for _, entityID := range w.cfg.Entities {
		candidates = append(candidates, w.snapshotLocked(entityID))
	}

	w.current = view.Project(view.Inputs{
		Config:         w.cfg,
		Snapshot:       snap,
		VolumeSnapshot: w.snapshotLocked(route),
		Candidates:     candidates,
		Position:       pos,
		Fraction:       frac,
		ShowProgress:   ok,
		Compact:        w.compact,
		OverlayOpen:    w.overlay.IsOpen(),
		DropdownOpen:   w.overlay.DropdownOpen(),
	})

	if w.onUpdate != nil {
		w.onUpdate(w.current)
	}
}

// armUITickLocked schedules the next 1s UI refresh
func (w *Widget) armUITickLocked() {
	w.uiTimer = w.clk.AfterFunc(uiRefreshInterval, func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if !w.running {
			return
		}
		w.refreshLocked()
		w.armUITickLocked()
	})
}

// armLivenessTickLocked schedules the next 10s snapshot-refresh request for
// the focused entity.
func (w *Widget) armLivenessTickLocked() {
	w.liveTimer = w.clk.AfterFunc(livenessInterval, func() {
		w.mu.Lock()
		if !w.running {
			w.mu.Unlock()
			return
		}
		current := w.sel.Current()
		_, known := w.snapshots[current]
		w.armLivenessTickLocked()
		w.mu.Unlock()

		if known && w.client.IsConnected() {
			w.dispatcher.RequestRefresh(current)
		}
	})
}
