// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/ui/components"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
	"github.com/jeranaias/stockdesk-tui/internal/util"
)

// Button labels.
const (
	labelAnalyse   = "Start analysis"
	labelAnalysing = "Analysing..."
)

// entryPrefixWidth is the widest "[time] marker " prefix.
const entryPrefixWidth = 16

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the console to whatever the chrome leaves.
func (m *Model) layout() {
	chrome := lipgloss.Height(m.header.View()) +
		lipgloss.Height(m.renderForm()) +
		lipgloss.Height(m.status.View()) +
		lipgloss.Height(m.renderHelp())
	if t := m.renderToasts(); t != "" {
		chrome += lipgloss.Height(t)
	}
	// Console border (2) and title line (1).
	h := m.height - chrome - 3
	if h < 3 {
		h = 3
	}
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w - 4
	m.viewport.Height = h
}

// =============================================================================
// RENDERING
// =============================================================================

func (m Model) render() string {
	parts := []string{
		m.header.View(),
		m.renderForm(),
		m.renderConsoleBox(),
	}
	if t := m.renderToasts(); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, m.status.View(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderForm renders the two fields, the submit button and the template hint.
func (m Model) renderForm() string {
	field := func(label string, input string, focused bool) string {
		box := m.theme.InputBlurred
		if focused {
			box = m.theme.InputFocused
		}
		return lipgloss.JoinHorizontal(lipgloss.Center,
			m.theme.InputLabel.Render(label),
			box.Render(input),
		)
	}

	company := field("Company", m.company.View(), m.focus == focusCompany)
	code := field("Code", m.code.View(), m.focus == focusCode)
	button := m.renderButton()

	var form string
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		form = lipgloss.JoinVertical(lipgloss.Left, company, code, button)
	} else {
		form = lipgloss.JoinHorizontal(lipgloss.Center, company, "  ", code, "  ", button)
	}

	hint := m.renderTemplateHint()
	if hint == "" {
		return form
	}
	return lipgloss.JoinVertical(lipgloss.Left, form, hint)
}

func (m Model) renderButton() string {
	switch {
	case m.snap.Busy():
		return m.theme.ButtonBusy.Render(m.spinner.View() + " " + labelAnalysing)
	case !m.snap.State.Open():
		return m.theme.ButtonDisabled.Render(labelAnalyse)
	default:
		return m.theme.Button.Render(labelAnalyse)
	}
}

func (m Model) renderTemplateHint() string {
	keys := m.sess.Templates().Keys()
	if len(keys) == 0 {
		return ""
	}
	hint := "Templates: " + strings.Join(keys, "  ") + "  (" + m.keys.NextTemplate.Help().Key + ")"
	return m.theme.StatsLabel.Render(util.TruncateWidth(hint, m.width))
}

// renderConsoleBox renders the titled, bordered log viewport.
func (m Model) renderConsoleBox() string {
	title := m.theme.ConsoleTitle.Render("Agent log")
	if !m.viewport.AtBottom() && m.viewport.TotalLineCount() > m.viewport.Height {
		title += m.theme.StatsLabel.Render("  (scrolled)")
	}
	body := lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View())
	return m.theme.Console.Width(m.viewport.Width + 2).Render(body)
}

// renderConsole formats every entry as "[time] marker body". Continuation
// lines are indented under the body.
func (m Model) renderConsole(entries []console.RenderedEntry) string {
	if len(entries) == 0 {
		return m.theme.StatsLabel.Render("Waiting for agent output...")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderEntry(e))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEntry(e console.RenderedEntry) string {
	stamp := "[" + e.Timestamp + "]"
	marker := styles.SeverityIndicator(e.Severity)
	prefix := m.theme.Timestamp.Render(stamp) + " " +
		lipgloss.NewStyle().Foreground(styles.SeverityColor(e.Severity)).Bold(true).Render(marker) + " "
	indent := strings.Repeat(" ", util.StringWidth(stamp)+1+util.StringWidth(marker)+1)

	body := strings.Split(e.Body, "\n")
	for i := 1; i < len(body); i++ {
		body[i] = indent + body[i]
	}
	return prefix + strings.Join(body, "\n")
}

func (m Model) renderToasts() string {
	return components.RenderToastStack(m.toasts.Toasts(), m.width)
}

func (m Model) renderHelp() string {
	return m.help.View(m.keys)
}
