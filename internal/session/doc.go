// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the connection to the analysis backend and the state
// of the current run.
//
// A Controller runs one goroutine that drains an event queue. User actions
// (connect, submit, download), transport events (frames, closes, dial
// results) and reconnect timer fires all become events on that queue, so
// every state transition happens in one place and in order.
//
// # Key Types
//
//   - Controller: The session state machine and its event loop
//   - State: Disconnected, Connecting, Connected or Running
//   - ReconnectPolicy: Fixed-delay reconnect with a hard attempt cap
//   - Snapshot: A consistent copy of the controller state for observers
//
// # Usage
//
//	ctrl := session.NewController(session.Options{URL: url, Logbook: lb, Writer: w})
//	ctrl.Start(ctx)
//	defer ctrl.Close()
//	ctrl.Connect()
//	if err := ctrl.Execute("贵州茅台", "sh.600519"); err != nil {
//	    // already logged to the console
//	}
package session
