// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"time"
)

// =============================================================================
// CONNECTION STATE
// =============================================================================

// State is the connection state of a Controller.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Running
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// Label returns the status text shown to the user.
func (s State) Label() string {
	switch s {
	case Connecting:
		return "Connecting..."
	case Running:
		return "Running"
	default:
		return s.String()
	}
}

// Open reports whether the socket is open.
func (s State) Open() bool {
	return s == Connected || s == Running
}

// =============================================================================
// RECONNECT POLICY
// =============================================================================

// ReconnectPolicy is a fixed delay with a hard cap on consecutive attempts.
type ReconnectPolicy struct {
	// MaxAttempts caps automatic reconnects. Zero means the default cap.
	MaxAttempts int
	// Delay is the wait before each automatic reconnect.
	Delay time.Duration
	// Disabled turns automatic reconnects off; only a manual reconnect
	// reopens the connection.
	Disabled bool
}

// DefaultReconnectPolicy returns 3 attempts, 3 seconds apart.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{MaxAttempts: 3, Delay: 3 * time.Second}
}

// =============================================================================
// RUN AND SNAPSHOT
// =============================================================================

// Run is one accepted analysis submission.
type Run struct {
	ID      string
	Company string
	Code    string
	Started time.Time
}

// Snapshot is a consistent copy of controller state.
type Snapshot struct {
	State State
	URL   string

	// Attempts is the consecutive automatic reconnect count.
	Attempts    int
	MaxAttempts int
	// RetryPending is true while a reconnect timer is armed.
	RetryPending bool
	// RetryExhausted is true once the cap was hit and until a manual reconnect.
	RetryExhausted bool

	// Run is the latest accepted submission. Zero before the first one.
	Run Run

	HasReport bool
	LogCount  int
}

// Busy reports whether a submission is in progress.
func (s Snapshot) Busy() bool {
	return s.State == Running
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConnected is returned by Execute without an open connection.
	ErrNotConnected = errors.New("not connected")
	// ErrBusy is returned by Execute while a run is in progress.
	ErrBusy = errors.New("analysis already running")
	// ErrMissingField is returned by Execute when company or code is blank.
	ErrMissingField = errors.New("company name and stock code are required")
	// ErrNoReport is returned by DownloadReport before a report arrived.
	ErrNoReport = errors.New("no report available")
	// ErrClosed is returned by actions after Close.
	ErrClosed = errors.New("session closed")
)
