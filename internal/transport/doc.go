// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport carries text frames between stockdesk and the analysis
// backend over a single WebSocket.
//
// # Key Types
//
//   - Dialer: Opens a connection and attaches a Sink to it
//   - Conn: Sends frames and closes the connection
//   - Sink: Receives inbound frames and exactly one close notification
//   - WebSocketDialer: gorilla/websocket implementation
//
// Each connection runs one read goroutine that delivers frames to its Sink.
// OnClose is always the last callback for a connection.
package transport
