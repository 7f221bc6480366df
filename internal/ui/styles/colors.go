// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stockdesk-tui/internal/protocol"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, focused inputs, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, headers, key hints
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success lines, connected state
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, disconnected state
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, connecting and running states
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Sky - Informational lines
var Sky = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var (
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
)

// =============================================================================
// SEVERITY INDICATORS
// =============================================================================

// StatusIndicatorSet holds the ASCII markers printed in front of console
// lines so severity is readable without colour.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
}

// StatusIndicators are the markers used throughout the desk.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// SeverityColor returns the foreground colour for a log severity.
func SeverityColor(sev protocol.Severity) lipgloss.AdaptiveColor {
	switch sev {
	case protocol.SeveritySuccess:
		return Emerald
	case protocol.SeverityWarning:
		return Amber
	case protocol.SeverityError:
		return Rose
	default:
		return Sky
	}
}

// SeverityIndicator returns the ASCII marker for a log severity.
func SeverityIndicator(sev protocol.Severity) string {
	switch sev {
	case protocol.SeveritySuccess:
		return StatusIndicators.Success
	case protocol.SeverityWarning:
		return StatusIndicators.Warning
	case protocol.SeverityError:
		return StatusIndicators.Error
	default:
		return StatusIndicators.Info
	}
}

// RenderSeverity renders message with the marker and colour of sev.
func RenderSeverity(sev protocol.Severity, message string) string {
	style := lipgloss.NewStyle().Foreground(SeverityColor(sev))
	if sev == protocol.SeverityError || sev == protocol.SeveritySuccess {
		style = style.Bold(true)
	}
	return style.Render(SeverityIndicator(sev) + " " + message)
}

// RenderSuccess renders a success message for CLI output.
func RenderSuccess(message string) string {
	return RenderSeverity(protocol.SeveritySuccess, message)
}

// RenderError renders an error message for CLI output.
func RenderError(message string) string {
	return RenderSeverity(protocol.SeverityError, message)
}

// RenderWarning renders a warning message for CLI output.
func RenderWarning(message string) string {
	return RenderSeverity(protocol.SeverityWarning, message)
}
