// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
	"github.com/jeranaias/stockdesk-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar.
type Header struct {
	Title    string // Main title (default: "stockdesk")
	Subtitle string // Tagline under the title
	URL      string // Backend endpoint
	Width    int    // Available width
	theme    *styles.Theme
}

// NewHeader creates a Header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:    "stockdesk",
		Subtitle: "Multi-agent stock analysis",
		Width:    80,
		theme:    theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header. Narrow terminals get a single line.
func (h *Header) View() string {
	if h.Width < 60 {
		return h.ViewCompact()
	}

	// Border and padding take six columns.
	inner := h.Width - 6
	if inner < 20 {
		inner = 20
	}

	title := h.theme.HeaderTitle.Render(h.Title)
	subtitle := h.Subtitle
	if h.URL != "" {
		subtitle += "  " + h.URL
	}
	subtitle = util.TruncateWidth(subtitle, inner)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		h.theme.HeaderSubtitle.Render(subtitle),
	)
	return h.theme.Header.Width(h.Width - 2).Render(content)
}

// ViewCompact renders "stockdesk | url" on one line.
func (h *Header) ViewCompact() string {
	line := h.theme.HeaderTitle.Render(h.Title)
	if h.URL != "" {
		room := h.Width - util.StringWidth(h.Title) - 3
		if room > 3 {
			line += h.theme.HeaderSubtitle.Render(" | " + util.TruncateWidth(h.URL, room))
		}
	}
	return line
}
