// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint shown on the right of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are the hints shown when the caller sets none.
var DefaultShortcuts = []Shortcut{
	{"enter", "analyse"},
	{"ctrl+r", "reconnect"},
	{"ctrl+d", "report"},
	{"ctrl+e", "export"},
	{"ctrl+a", "scroll"},
}

// StatusBar is the bottom status line.
type StatusBar struct {
	State          session.State
	Attempts       int
	MaxAttempts    int
	RetryPending   bool
	RetryExhausted bool
	LogCount       int
	HasReport      bool
	AutoScroll     bool
	Width          int
	ShowShortcuts  bool
	Shortcuts      []Shortcut
	theme          *styles.Theme
}

// NewStatusBar creates a StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		State:         session.Disconnected,
		AutoScroll:    true,
		Width:         80,
		ShowShortcuts: true,
		Shortcuts:     DefaultShortcuts,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetSnapshot copies the session fields the bar displays.
func (s *StatusBar) SetSnapshot(snap session.Snapshot) {
	s.State = snap.State
	s.Attempts = snap.Attempts
	s.MaxAttempts = snap.MaxAttempts
	s.RetryPending = snap.RetryPending
	s.RetryExhausted = snap.RetryExhausted
	s.LogCount = snap.LogCount
	s.HasReport = snap.HasReport
}

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders "[state] n lines".
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.renderState()}
	if r := s.renderReconnect(); r != "" {
		parts = append(parts, r)
	}
	parts = append(parts, s.theme.StatsValue.Render(strconv.Itoa(s.LogCount)))

	return s.theme.StatusBar.Width(s.Width).Render(strings.Join(parts, " "))
}

// viewWide renders state and counters on the left and key hints on the right.
func (s *StatusBar) viewWide() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	left := []string{s.renderState()}
	if r := s.renderReconnect(); r != "" {
		left = append(left, r)
	}
	left = append(left,
		s.theme.StatsValue.Render(strconv.Itoa(s.LogCount))+s.theme.StatsLabel.Render(" lines"))
	if s.HasReport {
		left = append(left, lipgloss.NewStyle().Foreground(styles.Emerald).Render("report ready"))
	}
	scroll := "auto-scroll off"
	if s.AutoScroll {
		scroll = "auto-scroll on"
	}
	left = append(left, s.theme.StatsLabel.Render(scroll))
	leftSection := strings.Join(left, sep)

	rightSection := ""
	if s.ShowShortcuts {
		rightSection = s.renderShortcuts()
	}

	// The bar has one column of padding on each side.
	spacing := s.Width - 2 - lipgloss.Width(leftSection) - lipgloss.Width(rightSection)
	if spacing < 1 {
		// Drop the hints rather than wrap.
		rightSection = ""
		spacing = 1
	}

	return s.theme.StatusBar.
		Width(s.Width).
		Render(leftSection + strings.Repeat(" ", spacing) + rightSection)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

func (s *StatusBar) renderState() string {
	return s.stateStyle().Render(stateIcon(s.State) + " " + s.State.Label())
}

func (s *StatusBar) stateStyle() lipgloss.Style {
	switch s.State {
	case session.Connected:
		return s.theme.StateConnected
	case session.Connecting:
		return s.theme.StateConnecting
	case session.Running:
		return s.theme.StateRunning
	default:
		return s.theme.StateDisconnected
	}
}

// stateIcon gives each state a distinct ASCII shape.
func stateIcon(state session.State) string {
	switch state {
	case session.Connected:
		return "[*]"
	case session.Connecting:
		return "[~]"
	case session.Running:
		return "[>]"
	default:
		return "[ ]"
	}
}

// renderReconnect shows the attempt counter while retrying or after giving up.
func (s *StatusBar) renderReconnect() string {
	switch {
	case s.RetryExhausted:
		return lipgloss.NewStyle().Foreground(styles.Rose).
			Render(fmt.Sprintf("retry %d/%d, reconnect manually", s.Attempts, s.MaxAttempts))
	case s.RetryPending || (s.Attempts > 0 && !s.State.Open()):
		return lipgloss.NewStyle().Foreground(styles.Amber).
			Render(fmt.Sprintf("retry %d/%d", s.Attempts, s.MaxAttempts))
	default:
		return ""
	}
}

func (s *StatusBar) renderShortcuts() string {
	parts := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(parts, "  ")
}
