// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console holds the ordered, append-only log shown in the client's
// scrolling console.
//
// # Key Types
//
//   - Entry: one timestamped, severity-tagged message with its cached rendering
//   - Logbook: thread-safe entry list that also captures the final report
//
// Appending a message that carries the report marker stores the text after
// the marker as the report artifact. Only the first marker per run is kept;
// ResetReport starts a new run.
package console
