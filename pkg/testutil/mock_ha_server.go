// Package testutil provides testing utilities for the media remote widget.
// This package contains a mock Home Assistant WebSocket server and helpers
// for writing integration tests against real WebSocket connections.
package testutil

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connWrapper wraps a WebSocket connection with its write mutex
type connWrapper struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// MockHAServer simulates a Home Assistant WebSocket server with enough of
// the media_player, remote, and androidtv domains to exercise the widget.
type MockHAServer struct {
	server       *http.Server
	addr         string
	states       map[string]*EntityState
	statesMu     sync.RWMutex
	connections  []*connWrapper
	connsMu      sync.Mutex
	eventDelay   time.Duration // Simulates network latency
	token        string
	serviceCalls []ServiceCall // Track all service calls for verification
	failures     map[string]bool
	callsMu      sync.Mutex // Protects serviceCalls and failures
}

// EntityState represents a Home Assistant entity state
type EntityState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Message represents a WebSocket message
type Message struct {
	ID      int             `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Event   *Event          `json:"event,omitempty"`
}

// Event represents a Home Assistant event
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Origin    string          `json:"origin"`
	TimeFired time.Time       `json:"time_fired"`
}

// StateChangedEvent represents a state_changed event
type StateChangedEvent struct {
	EntityID string       `json:"entity_id"`
	NewState *EntityState `json:"new_state"`
	OldState *EntityState `json:"old_state"`
}

// AuthMessage represents authentication request
type AuthMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token,omitempty"`
}

// CallServiceRequest represents a service call
type CallServiceRequest struct {
	ID          int                    `json:"id"`
	Type        string                 `json:"type"`
	Domain      string                 `json:"domain"`
	Service     string                 `json:"service"`
	ServiceData map[string]interface{} `json:"service_data,omitempty"`
}

// GetStatesRequest represents a get_states request
type GetStatesRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// SubscribeEventsRequest represents a subscribe_events request
type SubscribeEventsRequest struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
}

// NewMockHAServer creates a new mock HA server
func NewMockHAServer(addr, token string) *MockHAServer {
	return &MockHAServer{
		addr:         addr,
		states:       make(map[string]*EntityState),
		connections:  make([]*connWrapper, 0),
		eventDelay:   10 * time.Millisecond, // Simulate network latency
		token:        token,
		serviceCalls: make([]ServiceCall, 0),
		failures:     make(map[string]bool),
	}
}

// SetEventDelay sets the delay for broadcasting events
func (s *MockHAServer) SetEventDelay(delay time.Duration) {
	s.eventDelay = delay
}

// FailService makes the server reject calls to domain.service with
// success=false. Used to drive the fallback chain in tests.
func (s *MockHAServer) FailService(domain, service string, fail bool) {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	s.failures[domain+"."+service] = fail
}

// Start starts the mock server
func (s *MockHAServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/websocket", s.handleWebSocket)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("Mock HA server error: %v", err)
		}
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Stop stops the mock server
func (s *MockHAServer) Stop() error {
	s.connsMu.Lock()
	for _, wrapper := range s.connections {
		wrapper.conn.Close()
	}
	s.connections = nil
	s.connsMu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// SetState sets a state and broadcasts change event
func (s *MockHAServer) SetState(entityID, state string, attributes map[string]interface{}) {
	s.statesMu.Lock()
	oldState := s.states[entityID]

	now := time.Now()
	newState := &EntityState{
		EntityID:    entityID,
		State:       state,
		Attributes:  attributes,
		LastChanged: now,
		LastUpdated: now,
	}

	s.states[entityID] = newState
	s.statesMu.Unlock()

	// Broadcast state_changed event with delay
	if s.eventDelay > 0 {
		time.Sleep(s.eventDelay)
	}
	s.broadcastStateChange(entityID, oldState, newState)
}

// GetState retrieves a state
func (s *MockHAServer) GetState(entityID string) *EntityState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()
	return s.states[entityID]
}

// AddMediaPlayer seeds a media player entity in a given playback state,
// optionally with a paired remote.* entity for the step-volume backend.
func (s *MockHAServer) AddMediaPlayer(entityID, state string, attributes map[string]interface{}, withRemote bool) {
	if attributes == nil {
		attributes = map[string]interface{}{}
	}
	s.SetState(entityID, state, attributes)

	if withRemote {
		remoteID := "remote." + entityID[len("media_player."):]
		s.SetState(remoteID, "on", map[string]interface{}{})
	}
}

// handleWebSocket handles WebSocket connections
func (s *MockHAServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	wrapper := &connWrapper{conn: conn}

	s.connsMu.Lock()
	s.connections = append(s.connections, wrapper)
	s.connsMu.Unlock()

	defer func() {
		s.connsMu.Lock()
		for i, w := range s.connections {
			if w.conn == conn {
				s.connections = append(s.connections[:i], s.connections[i+1:]...)
				break
			}
		}
		s.connsMu.Unlock()
		conn.Close()
	}()

	// Send auth_required
	wrapper.writeMu.Lock()
	conn.WriteJSON(Message{Type: "auth_required"})
	wrapper.writeMu.Unlock()

	// Receive auth
	var authMsg AuthMessage
	if err := conn.ReadJSON(&authMsg); err != nil {
		log.Printf("Failed to read auth: %v", err)
		return
	}

	// Validate token
	if authMsg.AccessToken != s.token {
		wrapper.writeMu.Lock()
		conn.WriteJSON(Message{Type: "auth_invalid"})
		wrapper.writeMu.Unlock()
		return
	}

	// Send auth_ok
	wrapper.writeMu.Lock()
	conn.WriteJSON(Message{Type: "auth_ok"})
	wrapper.writeMu.Unlock()

	// Handle messages
	for {
		var msg json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Connection closed: %v", err)
			return
		}

		// Parse message type
		var baseMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &baseMsg); err != nil {
			continue
		}

		switch baseMsg.Type {
		case "subscribe_events":
			s.handleSubscribeEvents(wrapper, msg)
		case "get_states":
			s.handleGetStates(wrapper, msg)
		case "call_service":
			s.handleCallService(wrapper, msg)
		}
	}
}

// handleSubscribeEvents handles event subscriptions
func (s *MockHAServer) handleSubscribeEvents(wrapper *connWrapper, msg json.RawMessage) {
	var req SubscribeEventsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}

	success := true
	wrapper.writeMu.Lock()
	wrapper.conn.WriteJSON(Message{
		ID:      req.ID,
		Type:    "result",
		Success: &success,
	})
	wrapper.writeMu.Unlock()
}

// handleGetStates handles get_states requests
func (s *MockHAServer) handleGetStates(wrapper *connWrapper, msg json.RawMessage) {
	var req GetStatesRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}

	s.statesMu.RLock()
	states := make([]*EntityState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, state)
	}
	s.statesMu.RUnlock()

	statesJSON, _ := json.Marshal(states)
	success := true
	wrapper.writeMu.Lock()
	wrapper.conn.WriteJSON(Message{
		ID:      req.ID,
		Type:    "result",
		Success: &success,
		Result:  statesJSON,
	})
	wrapper.writeMu.Unlock()
}

// handleCallService handles service calls. Calls are recorded before the
// failure script is consulted, so tests can assert on rejected attempts.
func (s *MockHAServer) handleCallService(wrapper *connWrapper, msg json.RawMessage) {
	var req CallServiceRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}

	s.callsMu.Lock()
	s.serviceCalls = append(s.serviceCalls, ServiceCall{
		Timestamp:   time.Now(),
		Domain:      req.Domain,
		Service:     req.Service,
		ServiceData: req.ServiceData,
	})
	rejected := s.failures[req.Domain+"."+req.Service]
	s.callsMu.Unlock()

	if rejected {
		success := false
		wrapper.writeMu.Lock()
		wrapper.conn.WriteJSON(Message{
			ID:      req.ID,
			Type:    "result",
			Success: &success,
		})
		wrapper.writeMu.Unlock()
		return
	}

	entityID, _ := req.ServiceData["entity_id"].(string)

	switch req.Domain {
	case "media_player":
		s.applyMediaPlayerCall(entityID, req.Service, req.ServiceData)

	case "remote", "androidtv":
		// Remote input and ADB shell commands have no observable state
		// on the mock; recording the call is enough.

	case "homeassistant":
		// update_entity re-announces the current state
		if req.Service == "update_entity" && entityID != "" {
			s.statesMu.RLock()
			current := s.states[entityID]
			s.statesMu.RUnlock()
			if current != nil {
				s.broadcastStateChange(entityID, current, current)
			}
		}

	default:
		// Unknown service domain - still acknowledge to prevent timeouts
	}

	success := true
	wrapper.writeMu.Lock()
	wrapper.conn.WriteJSON(Message{
		ID:      req.ID,
		Type:    "result",
		Success: &success,
	})
	wrapper.writeMu.Unlock()
}

// applyMediaPlayerCall mutates the entity state the way the real
// media_player domain would for the services the widget issues.
func (s *MockHAServer) applyMediaPlayerCall(entityID, service string, data map[string]interface{}) {
	if entityID == "" {
		return
	}

	s.statesMu.RLock()
	old := s.states[entityID]
	s.statesMu.RUnlock()
	if old == nil {
		return
	}

	state := old.State
	attrs := make(map[string]interface{}, len(old.Attributes))
	for k, v := range old.Attributes {
		attrs[k] = v
	}

	switch service {
	case "media_play_pause":
		if state == "playing" {
			state = "paused"
		} else {
			state = "playing"
		}
	case "turn_on":
		state = "idle"
	case "turn_off":
		state = "off"
	case "volume_set":
		if level, ok := data["volume_level"].(float64); ok {
			attrs["volume_level"] = level
		}
	case "volume_mute":
		if muted, ok := data["is_volume_muted"].(bool); ok {
			attrs["is_volume_muted"] = muted
		}
	case "shuffle_set":
		if shuffle, ok := data["shuffle"].(bool); ok {
			attrs["shuffle"] = shuffle
		}
	case "repeat_set":
		if repeat, ok := data["repeat"].(string); ok {
			attrs["repeat"] = repeat
		}
	case "media_seek":
		if pos, ok := data["seek_position"].(float64); ok {
			attrs["media_position"] = pos
			attrs["media_position_updated_at"] = time.Now().Format(time.RFC3339Nano)
		}
	case "select_source":
		if source, ok := data["source"].(string); ok {
			attrs["source"] = source
		}
	}

	s.SetState(entityID, state, attrs)
}

// broadcastStateChange broadcasts a state change event to all connections
func (s *MockHAServer) broadcastStateChange(entityID string, oldState, newState *EntityState) {
	eventData := StateChangedEvent{
		EntityID: entityID,
		NewState: newState,
		OldState: oldState,
	}

	eventDataJSON, _ := json.Marshal(eventData)

	event := &Event{
		EventType: "state_changed",
		Data:      eventDataJSON,
		Origin:    "LOCAL",
		TimeFired: time.Now(),
	}

	msg := Message{
		Type:  "event",
		Event: event,
	}

	s.connsMu.Lock()
	wrappers := make([]*connWrapper, len(s.connections))
	copy(wrappers, s.connections)
	s.connsMu.Unlock()

	for _, wrapper := range wrappers {
		// Write to each connection with per-connection mutex
		wrapper.writeMu.Lock()
		wrapper.conn.WriteJSON(msg)
		wrapper.writeMu.Unlock()
	}
}

// GetServiceCalls returns all service calls since last clear
func (s *MockHAServer) GetServiceCalls() []ServiceCall {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	calls := make([]ServiceCall, len(s.serviceCalls))
	copy(calls, s.serviceCalls)
	return calls
}

// ClearServiceCalls resets the service call log
func (s *MockHAServer) ClearServiceCalls() {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	s.serviceCalls = nil
}

// FindServiceCall returns the most recent recorded call matching domain,
// service, and entityID; an empty entityID matches any target.
func (s *MockHAServer) FindServiceCall(domain, service string, entityID string) *ServiceCall {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return LastCall(s.serviceCalls, domain, service, entityID)
}

// CountServiceCalls counts recorded calls matching domain and service
func (s *MockHAServer) CountServiceCalls(domain, service string) int {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return len(FilterCalls(s.serviceCalls, domain, service))
}
