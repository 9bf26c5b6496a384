// Package ha implements the Home Assistant WebSocket API surface the media
// remote needs: entity snapshots, state_changed subscriptions, and
// fire-and-forget service calls.
package ha

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client defines the interface for the Home Assistant connection. The widget
// core uses it both as its snapshot source (GetState, SubscribeStateChanges)
// and as its remote command channel (CallService).
type Client interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	GetState(entityID string) (*State, error)
	GetAllStates() ([]*State, error)
	CallService(domain, service string, data map[string]interface{}) error
	SubscribeStateChanges(entityID string, handler StateChangeHandler) (Subscription, error)
}

// subscriberEntry holds a handler with its unique subscription ID
type subscriberEntry struct {
	subID   int
	handler StateChangeHandler
}

// WSClient implements Client over a Home Assistant WebSocket connection
type WSClient struct {
	url         string
	token       string
	logger      *zap.Logger
	conn        *websocket.Conn
	connected   bool
	connMu      sync.RWMutex
	msgID       int
	msgIDMu     sync.Mutex
	pending     map[int]chan Message
	pendingMu   sync.Mutex
	subscribers map[string][]subscriberEntry
	subsMu      sync.RWMutex
	nextSubID   int
	nextSubIDMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	reconnect   bool
	writeMu     sync.Mutex // Protects websocket writes
}

// NewClient creates a new Home Assistant WebSocket client
func NewClient(url, token string, logger *zap.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSClient{
		url:         url,
		token:       token,
		logger:      logger.Named("ha"),
		pending:     make(map[int]chan Message),
		subscribers: make(map[string][]subscriberEntry),
		ctx:         ctx,
		cancel:      cancel,
		reconnect:   true,
	}
}

func (c *WSClient) resetContextLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
}

// Connect establishes the WebSocket connection and authenticates
func (c *WSClient) Connect() error {
	c.connMu.Lock()

	if c.connected {
		c.connMu.Unlock()
		return fmt.Errorf("already connected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.connMu.Unlock()
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	c.conn = conn

	// Auth handshake: auth_required -> auth -> auth_ok
	var authRequired Message
	if err := c.conn.ReadJSON(&authRequired); err != nil {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("failed to read auth_required: %w", err)
	}

	if authRequired.Type != "auth_required" {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("expected auth_required, got %s", authRequired.Type)
	}

	authMsg := AuthMessage{
		Type:        "auth",
		AccessToken: c.token,
	}
	c.writeMu.Lock()
	err = c.conn.WriteJSON(authMsg)
	c.writeMu.Unlock()

	if err != nil {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("failed to send auth: %w", err)
	}

	var authResponse Message
	if err := c.conn.ReadJSON(&authResponse); err != nil {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("failed to read auth response: %w", err)
	}

	if authResponse.Type == "auth_invalid" {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("authentication failed: invalid token")
	}

	if authResponse.Type != "auth_ok" {
		c.conn.Close()
		c.connMu.Unlock()
		return fmt.Errorf("expected auth_ok, got %s", authResponse.Type)
	}

	c.resetContextLocked()
	c.connected = true
	c.reconnect = true
	c.logger.Info("Connected to Home Assistant")

	// Start background message receiver
	go c.receiveMessages()

	// Release lock before subscribing to avoid deadlock with sendMessage
	c.connMu.Unlock()

	if err := c.subscribeToStateChanges(); err != nil {
		c.logger.Warn("Failed to subscribe to state changes", zap.Error(err))
	}

	return nil
}

// Disconnect closes the WebSocket connection
func (c *WSClient) Disconnect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected {
		return nil
	}

	c.reconnect = false
	c.cancel()
	c.connected = false

	if c.conn != nil {
		c.writeMu.Lock()
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		c.conn.Close()
		c.conn = nil
	}

	c.subsMu.Lock()
	c.subscribers = make(map[string][]subscriberEntry)
	c.subsMu.Unlock()

	c.logger.Info("Disconnected from Home Assistant")
	return nil
}

// IsConnected returns true if client is connected
func (c *WSClient) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// nextMsgID returns the next message ID
func (c *WSClient) nextMsgID() int {
	c.msgIDMu.Lock()
	defer c.msgIDMu.Unlock()
	c.msgID++
	return c.msgID
}

// sendMessage sends a message and waits for the matching result
func (c *WSClient) sendMessage(msg interface{}) (*Message, error) {
	c.connMu.RLock()
	if !c.connected {
		c.connMu.RUnlock()
		return nil, fmt.Errorf("not connected")
	}
	c.connMu.RUnlock()

	var msgID int
	switch m := msg.(type) {
	case *CallServiceRequest:
		msgID = m.ID
	case *GetStatesRequest:
		msgID = m.ID
	case *SubscribeEventsRequest:
		msgID = m.ID
	default:
		return nil, fmt.Errorf("unsupported message type")
	}

	respChan := make(chan Message, 1)
	c.pendingMu.Lock()
	c.pending[msgID] = respChan
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, msgID)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	select {
	case resp := <-respChan:
		if resp.Success != nil && !*resp.Success {
			if resp.Error != nil {
				return nil, fmt.Errorf("HA error: %s - %s", resp.Error.Code, resp.Error.Message)
			}
			return nil, fmt.Errorf("request failed")
		}
		return &resp, nil
	case <-time.After(10 * time.Second):
		return nil, fmt.Errorf("timeout waiting for response")
	case <-c.ctx.Done():
		return nil, fmt.Errorf("client disconnected")
	}
}

// receiveMessages handles incoming messages in the background
func (c *WSClient) receiveMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.logger.Error("Failed to read message", zap.Error(err))
			c.handleDisconnect()
			return
		}

		if msg.Type == "event" {
			c.handleEvent(&msg)
			continue
		}

		// Route response to waiting goroutine
		if msg.ID > 0 {
			c.pendingMu.Lock()
			if ch, ok := c.pending[msg.ID]; ok {
				select {
				case ch <- msg:
				default:
					c.logger.Warn("Response channel full", zap.Int("msg_id", msg.ID))
				}
			}
			c.pendingMu.Unlock()
		}
	}
}

// handleEvent processes state_changed event messages
func (c *WSClient) handleEvent(msg *Message) {
	if msg.Event == nil {
		return
	}

	if msg.Event.EventType != "state_changed" {
		return
	}

	var eventData StateChangedEvent
	if err := json.Unmarshal(msg.Event.Data, &eventData); err != nil {
		c.logger.Error("Failed to unmarshal state_changed event", zap.Error(err))
		return
	}

	c.subsMu.RLock()
	entries := append([]subscriberEntry(nil), c.subscribers[eventData.EntityID]...)
	c.subsMu.RUnlock()

	for _, entry := range entries {
		entry.handler(eventData.EntityID, eventData.OldState, eventData.NewState)
	}
}

// handleDisconnect handles connection loss
func (c *WSClient) handleDisconnect() {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.logger.Warn("Connection lost")

	if !c.reconnect {
		return
	}

	go c.attemptReconnect()
}

// attemptReconnect tries to reconnect with exponential backoff
func (c *WSClient) attemptReconnect() {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		c.logger.Info("Attempting to reconnect...")

		if err := c.Connect(); err != nil {
			c.logger.Error("Reconnection failed", zap.Error(err))
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.logger.Info("Reconnected successfully")
		return
	}
}

// subscribeToStateChanges subscribes to all state_changed events
func (c *WSClient) subscribeToStateChanges() error {
	msgID := c.nextMsgID()
	req := &SubscribeEventsRequest{
		ID:        msgID,
		Type:      "subscribe_events",
		EventType: "state_changed",
	}

	_, err := c.sendMessage(req)
	return err
}

// GetState retrieves the state of an entity
func (c *WSClient) GetState(entityID string) (*State, error) {
	states, err := c.GetAllStates()
	if err != nil {
		return nil, err
	}

	for _, state := range states {
		if state.EntityID == entityID {
			return state, nil
		}
	}

	return nil, fmt.Errorf("entity %s not found", entityID)
}

// GetAllStates retrieves all entity states
func (c *WSClient) GetAllStates() ([]*State, error) {
	msgID := c.nextMsgID()
	req := &GetStatesRequest{
		ID:   msgID,
		Type: "get_states",
	}

	resp, err := c.sendMessage(req)
	if err != nil {
		return nil, err
	}

	var states []*State
	if err := json.Unmarshal(resp.Result, &states); err != nil {
		return nil, fmt.Errorf("failed to unmarshal states: %w", err)
	}

	return states, nil
}

// CallService calls a Home Assistant service
func (c *WSClient) CallService(domain, service string, data map[string]interface{}) error {
	msgID := c.nextMsgID()
	req := &CallServiceRequest{
		ID:          msgID,
		Type:        "call_service",
		Domain:      domain,
		Service:     service,
		ServiceData: data,
	}

	_, err := c.sendMessage(req)
	return err
}

// SubscribeStateChanges subscribes to state changes for a specific entity
func (c *WSClient) SubscribeStateChanges(entityID string, handler StateChangeHandler) (Subscription, error) {
	c.nextSubIDMu.Lock()
	subID := c.nextSubID
	c.nextSubID++
	c.nextSubIDMu.Unlock()

	c.subsMu.Lock()
	c.subscribers[entityID] = append(c.subscribers[entityID], subscriberEntry{
		subID:   subID,
		handler: handler,
	})
	c.subsMu.Unlock()

	return &subscription{
		entityID: entityID,
		subID:    subID,
		client:   c,
	}, nil
}

// subscription implements Subscription for WSClient
type subscription struct {
	entityID string
	subID    int
	client   *WSClient
}

func (s *subscription) Unsubscribe() error {
	return s.client.unsubscribe(s.entityID, s.subID)
}

// unsubscribe removes a specific subscription by entity ID and subscription ID
func (c *WSClient) unsubscribe(entityID string, subID int) error {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	subscribers, ok := c.subscribers[entityID]
	if !ok {
		return nil // Already unsubscribed
	}

	for i, entry := range subscribers {
		if entry.subID == subID {
			c.subscribers[entityID] = append(subscribers[:i], subscribers[i+1:]...)

			if len(c.subscribers[entityID]) == 0 {
				delete(c.subscribers, entityID)
			}
			break
		}
	}

	return nil
}
