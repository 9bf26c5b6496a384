package ha

import (
	"fmt"
	"sync"
	"time"
)

// MockClient implements Client for testing. Besides recording service calls
// it can be scripted to reject specific services, which is how tests exercise
// the dispatcher's fallback chain and the debouncer's step backend.
type MockClient struct {
	states       map[string]*State
	statesMu     sync.RWMutex
	subscribers  map[string][]subscriberEntry
	subsMu       sync.RWMutex
	nextSubID    int
	nextSubIDMu  sync.Mutex
	connected    bool
	connMu       sync.RWMutex
	serviceCalls []ServiceCall
	serviceErrs  map[string]error
	callsMu      sync.Mutex
}

// ServiceCall records a service call for testing
type ServiceCall struct {
	Domain  string
	Service string
	Data    map[string]interface{}
	Time    time.Time
}

// NewMockClient creates a new mock HA client
func NewMockClient() *MockClient {
	return &MockClient{
		states:       make(map[string]*State),
		subscribers:  make(map[string][]subscriberEntry),
		serviceCalls: make([]ServiceCall, 0),
		serviceErrs:  make(map[string]error),
	}
}

// Connect simulates connecting to Home Assistant
func (m *MockClient) Connect() error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	return nil
}

// Disconnect simulates disconnecting
func (m *MockClient) Disconnect() error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	m.connected = false

	m.subsMu.Lock()
	m.subscribers = make(map[string][]subscriberEntry)
	m.subsMu.Unlock()
	return nil
}

// IsConnected returns connection status
func (m *MockClient) IsConnected() bool {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return m.connected
}

// GetState retrieves a mock state
func (m *MockClient) GetState(entityID string) (*State, error) {
	m.statesMu.RLock()
	defer m.statesMu.RUnlock()

	state, ok := m.states[entityID]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", entityID)
	}

	return state, nil
}

// GetAllStates retrieves all mock states
func (m *MockClient) GetAllStates() ([]*State, error) {
	m.statesMu.RLock()
	defer m.statesMu.RUnlock()

	states := make([]*State, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, state)
	}

	return states, nil
}

// CallService records a service call, honoring any scripted error
func (m *MockClient) CallService(domain, service string, data map[string]interface{}) error {
	m.callsMu.Lock()
	m.serviceCalls = append(m.serviceCalls, ServiceCall{
		Domain:  domain,
		Service: service,
		Data:    data,
		Time:    time.Now(),
	})
	err := m.serviceErrs[domain+"."+service]
	m.callsMu.Unlock()

	return err
}

// SetServiceError scripts CallService to return err for domain.service.
// Pass nil to clear. The rejected call is still recorded.
func (m *MockClient) SetServiceError(domain, service string, err error) {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()

	key := domain + "." + service
	if err == nil {
		delete(m.serviceErrs, key)
		return
	}
	m.serviceErrs[key] = err
}

// SubscribeStateChanges subscribes to state changes
func (m *MockClient) SubscribeStateChanges(entityID string, handler StateChangeHandler) (Subscription, error) {
	m.nextSubIDMu.Lock()
	subID := m.nextSubID
	m.nextSubID++
	m.nextSubIDMu.Unlock()

	m.subsMu.Lock()
	m.subscribers[entityID] = append(m.subscribers[entityID], subscriberEntry{
		subID:   subID,
		handler: handler,
	})
	m.subsMu.Unlock()

	return &mockSubscription{
		entityID: entityID,
		subID:    subID,
		mock:     m,
	}, nil
}

// mockSubscription implements Subscription for MockClient
type mockSubscription struct {
	entityID string
	subID    int
	mock     *MockClient
}

func (s *mockSubscription) Unsubscribe() error {
	return s.mock.unsubscribe(s.entityID, s.subID)
}

// unsubscribe removes a specific subscription by entity ID and subscription ID
func (m *MockClient) unsubscribe(entityID string, subID int) error {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	subscribers, ok := m.subscribers[entityID]
	if !ok {
		return nil // Already unsubscribed
	}

	for i, entry := range subscribers {
		if entry.subID == subID {
			m.subscribers[entityID] = append(subscribers[:i], subscribers[i+1:]...)

			if len(m.subscribers[entityID]) == 0 {
				delete(m.subscribers, entityID)
			}
			break
		}
	}

	return nil
}

// SetState sets a mock state and notifies subscribers
func (m *MockClient) SetState(entityID string, stateValue string, attributes map[string]interface{}) {
	m.statesMu.Lock()

	now := time.Now()
	oldState := m.states[entityID]

	if attributes == nil {
		attributes = make(map[string]interface{})
	}

	newState := &State{
		EntityID:    entityID,
		State:       stateValue,
		Attributes:  attributes,
		LastChanged: now,
		LastUpdated: now,
	}

	m.states[entityID] = newState
	m.statesMu.Unlock()

	m.notifySubscribers(entityID, oldState, newState)
}

// RemoveState deletes a mock state, simulating an entity disappearing
func (m *MockClient) RemoveState(entityID string) {
	m.statesMu.Lock()
	defer m.statesMu.Unlock()
	delete(m.states, entityID)
}

// GetServiceCalls returns all recorded service calls
func (m *MockClient) GetServiceCalls() []ServiceCall {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()

	calls := make([]ServiceCall, len(m.serviceCalls))
	copy(calls, m.serviceCalls)
	return calls
}

// CallsTo returns the recorded calls for a specific domain and service
func (m *MockClient) CallsTo(domain, service string) []ServiceCall {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()

	var calls []ServiceCall
	for _, call := range m.serviceCalls {
		if call.Domain == domain && call.Service == service {
			calls = append(calls, call)
		}
	}
	return calls
}

// ClearServiceCalls clears the service call history
func (m *MockClient) ClearServiceCalls() {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	m.serviceCalls = make([]ServiceCall, 0)
}

// notifySubscribers notifies all subscribers of a state change
func (m *MockClient) notifySubscribers(entityID string, oldState, newState *State) {
	m.subsMu.RLock()
	entries := append([]subscriberEntry(nil), m.subscribers[entityID]...)
	m.subsMu.RUnlock()

	for _, entry := range entries {
		entry.handler(entityID, oldState, newState)
	}
}
