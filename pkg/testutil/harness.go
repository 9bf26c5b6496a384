// Package testutil provides testing utilities for the media remote widget.
// This file provides a TestEnv for integration tests that exercise the real
// WebSocket client against the mock server.
package testutil

import (
	"fmt"

	"mediaremote/internal/ha"

	"go.uber.org/zap"
)

// TestEnv bundles a running mock HA server with a connected client
type TestEnv struct {
	Server *MockHAServer
	Client *ha.WSClient
	Logger *zap.Logger
}

// NewTestEnv starts a mock HA server on addr and connects a real client to
// it.
//
// Example usage:
//
//	env, err := testutil.NewTestEnv("localhost:8123", "test_token")
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer env.Cleanup()
func NewTestEnv(addr, token string) (*TestEnv, error) {
	logger, _ := zap.NewDevelopment()

	server := NewMockHAServer(addr, token)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mock server: %w", err)
	}

	client := ha.NewClient(fmt.Sprintf("ws://%s/api/websocket", addr), token, logger)
	if err := client.Connect(); err != nil {
		server.Stop()
		return nil, fmt.Errorf("failed to connect client: %w", err)
	}

	return &TestEnv{
		Server: server,
		Client: client,
		Logger: logger,
	}, nil
}

// Cleanup stops all components in the correct order.
// Always call this in a defer after creating the TestEnv.
func (e *TestEnv) Cleanup() {
	if e.Client != nil {
		e.Client.Disconnect()
	}
	if e.Server != nil {
		e.Server.Stop()
	}
}

// GetServiceCalls returns all service calls made to the mock server
func (e *TestEnv) GetServiceCalls() []ServiceCall {
	return e.Server.GetServiceCalls()
}

// ClearServiceCalls clears the recorded service calls
func (e *TestEnv) ClearServiceCalls() {
	e.Server.ClearServiceCalls()
}
