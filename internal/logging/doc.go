// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger stockdesk writes its diagnostics to.
//
// The TUI owns the terminal, so diagnostics go to a JSON log file
// (~/.stockdesk/stockdesk.log by default). The console pane shown to the
// user is a separate thing; see package console.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Level: "info", Path: path})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
package logging
