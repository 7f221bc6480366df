// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"github.com/jeranaias/stockdesk-tui/internal/config"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionUpdateMsg is delivered after the session state or console changed.
type SessionUpdateMsg struct{}

// SessionClosedMsg is delivered once the session has stopped.
type SessionClosedMsg struct{}

// =============================================================================
// ACTION RESULTS
// =============================================================================

// SubmitResultMsg carries the outcome of an analysis submission.
type SubmitResultMsg struct {
	Run session.Run
	Err error
}

// TemplateLoadedMsg carries a resolved template.
type TemplateLoadedMsg struct {
	Template templates.Template
	Err      error
}

// ReportSavedMsg carries the outcome of a report download.
type ReportSavedMsg struct {
	Paths export.ReportPaths
	Err   error
}

// LogsExportedMsg carries the outcome of a log export.
type LogsExportedMsg struct {
	Path string
	Err  error
}

// ActionErrMsg reports a failed action without a dedicated result.
type ActionErrMsg struct {
	Err error
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ConfigReloadedMsg delivers a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}
