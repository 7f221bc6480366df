// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

const (
	// TypeExecuteMultiAgent is the only command the client sends.
	TypeExecuteMultiAgent = "execute_multi_agent"

	// TypeExecutionComplete marks the end of a run.
	TypeExecutionComplete = "execution_complete"
)

// Severity is the display class of a log line.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// SeverityForType maps an inbound message type onto a log severity.
// Unknown types render as info; the completion signal renders as success.
func SeverityForType(typ string) Severity {
	if typ == TypeExecutionComplete {
		return SeveritySuccess
	}
	s := Severity(strings.ToLower(strings.TrimSpace(typ)))
	if s.Valid() {
		return s
	}
	return SeverityInfo
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Command is the outbound analysis request.
type Command struct {
	Type        string `json:"type"`
	CompanyName string `json:"company_name"`
	StockCode   string `json:"stock_code"`
}

// NewExecuteCommand builds the analysis request for a company and stock code.
func NewExecuteCommand(company, code string) Command {
	return Command{
		Type:        TypeExecuteMultiAgent,
		CompanyName: company,
		StockCode:   code,
	}
}

// Event is an inbound progress document.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsComplete reports whether the event ends the current run.
func (e Event) IsComplete() bool {
	return e.Type == TypeExecutionComplete
}

// Severity returns the display severity for the event.
func (e Event) Severity() Severity {
	return SeverityForType(e.Type)
}

// ErrMalformed is returned by DecodeEvent for payloads that are not a JSON object.
var ErrMalformed = errors.New("malformed event payload")

// EncodeCommand serializes a command for a text frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}

// DecodeEvent parses an inbound frame. Callers treat ErrMalformed as a plain
// informational line carrying the raw payload.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return ev, nil
}
