// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the JSON documents exchanged with the multi-agent
// orchestration server over its WebSocket endpoint.
//
// # Outbound
//
// The client sends a single command shape:
//
//	{"type": "execute_multi_agent", "company_name": "贵州茅台", "stock_code": "sh.600519"}
//
// # Inbound
//
// The server streams progress documents:
//
//	{"type": "info", "message": "...", "timestamp": "15:04:05"}
//
// A type of "execution_complete" ends the current run. Payloads that are not
// valid JSON are surfaced verbatim as informational lines; see DecodeEvent.
package protocol
