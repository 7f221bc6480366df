// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/markup"
	"github.com/jeranaias/stockdesk-tui/internal/protocol"
	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/ui/components"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
)

// Session is the part of session.Controller the desk drives.
type Session interface {
	Snapshot() session.Snapshot
	Updates() <-chan struct{}
	Done() <-chan struct{}
	Logbook() *console.Logbook
	Templates() *templates.Loader

	Connect() error
	ManualConnect() error
	Execute(company, code string) (session.Run, error)
	LoadTemplate(key string) (templates.Template, error)
	DownloadReport() (export.ReportPaths, error)
	ExportLogs() (string, error)
	ClearLogs() error
}

// Focus targets of the form.
const (
	focusCompany = iota
	focusCode
	focusCount
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Model.
type Options struct {
	// Session is the controller the desk observes and drives. Required.
	Session Session

	// Theme styles the chrome. Default: styles.NewTheme()
	Theme *styles.Theme

	// Renderer is the logbook's Markdown renderer. When set, its wrap width
	// follows the console width unless WordWrap is fixed.
	Renderer *markup.Terminal

	// WordWrap fixes the console wrap width. 0 follows the window.
	WordWrap int

	// AutoScroll is the initial auto-scroll setting.
	AutoScroll bool

	// Keys overrides the default key map.
	Keys *KeyMap
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the analysis desk.
type Model struct {
	sess     Session
	theme    *styles.Theme
	keys     KeyMap
	renderer *markup.Terminal
	wordWrap int

	header *components.Header
	status *components.StatusBar
	toasts *components.ToastManager
	help   help.Model

	company  textinput.Model
	code     textinput.Model
	focus    int
	viewport viewport.Model
	spinner  spinner.Model

	// reconnects throttles the manual reconnect key.
	reconnects *rate.Limiter

	snap        session.Snapshot
	lastSeq     uint64
	lastLen     int
	autoScroll  bool
	showHelp    bool
	templateIdx int

	width  int
	height int
}

// reconnectInterval is the minimum spacing of manual reconnects.
const reconnectInterval = time.Second

// New creates the desk model.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	company := textinput.New()
	company.Placeholder = "贵州茅台"
	company.Prompt = ""
	company.CharLimit = 64
	company.Focus()

	code := textinput.New()
	code.Placeholder = "sh.600519"
	code.Prompt = ""
	code.CharLimit = 32

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = opts.Theme.ButtonBusy.UnsetPadding().UnsetBackground()

	m := Model{
		sess:       opts.Session,
		theme:      opts.Theme,
		keys:       keys,
		renderer:   opts.Renderer,
		wordWrap:   opts.WordWrap,
		header:     components.NewHeader(opts.Theme),
		status:     components.NewStatusBar(opts.Theme),
		toasts:     components.NewToastManager(),
		help:       help.New(),
		company:    company,
		code:       code,
		viewport:   viewport.New(80, 10),
		spinner:    sp,
		reconnects: rate.NewLimiter(rate.Every(reconnectInterval), 1),
		autoScroll: opts.AutoScroll,
		width:      80,
		height:     24,
	}
	m.snap = m.sess.Snapshot()
	m.header.URL = m.snap.URL
	m.status.AutoScroll = m.autoScroll
	m.status.SetSnapshot(m.snap)
	m.refreshConsole(true)
	return m
}

// Init connects and starts listening for session updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForUpdate(),
		m.connectCmd(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionUpdateMsg:
		cmd := m.refresh()
		return m, tea.Batch(cmd, m.waitForUpdate())

	case SessionClosedMsg:
		return m, tea.Quit

	case SubmitResultMsg:
		// Rejections are already in the console.
		return m, nil

	case TemplateLoadedMsg:
		if msg.Err == nil {
			m.company.SetValue(msg.Template.Company)
			m.code.SetValue(msg.Template.Code)
			m.company.CursorEnd()
			m.code.CursorEnd()
		}
		return m, nil

	case ReportSavedMsg:
		switch {
		case msg.Err == nil:
			return m.toast(fmt.Sprintf("Report saved to %s", msg.Paths.Text), protocol.SeveritySuccess)
		case errors.Is(msg.Err, session.ErrNoReport):
			return m.toast("No report to download yet", protocol.SeverityWarning)
		default:
			return m.toast(fmt.Sprintf("Saving the report failed: %v", msg.Err), protocol.SeverityError)
		}

	case LogsExportedMsg:
		switch {
		case msg.Err == nil:
			return m.toast(fmt.Sprintf("Logs exported to %s", msg.Path), protocol.SeveritySuccess)
		case errors.Is(msg.Err, export.ErrEmptyDocument):
			return m.toast("No logs to export", protocol.SeverityWarning)
		default:
			return m.toast(fmt.Sprintf("Log export failed: %v", msg.Err), protocol.SeverityError)
		}

	case ActionErrMsg:
		if errors.Is(msg.Err, session.ErrClosed) {
			return m, tea.Quit
		}
		return m.toast(msg.Err.Error(), protocol.SeverityError)

	case ConfigReloadedMsg:
		return m.applyConfig(msg)

	case components.ToastTickMsg:
		more := m.toasts.Tick()
		m.layout()
		if more {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// View renders the desk.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.help.Width = m.width

	inputWidth := m.width/2 - 16
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.company.Width = inputWidth
	m.code.Width = inputWidth

	m.layout()

	if m.renderer != nil && m.wordWrap <= 0 {
		// Leave room for the "[15:04:05] [OK] " prefix.
		before := m.renderer.Options().WordWrap
		m.renderer.SetWordWrap(m.viewport.Width - entryPrefixWidth)
		if m.renderer.Options().WordWrap != before {
			m.sess.Logbook().Invalidate()
		}
	}
	m.refreshConsole(true)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.snap.Busy() {
			return m, nil
		}
		return m, m.submitCmd(m.company.Value(), m.code.Value())

	case key.Matches(msg, m.keys.NextField):
		return m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.keys.PrevField):
		return m.setFocus((m.focus + focusCount - 1) % focusCount)

	case key.Matches(msg, m.keys.Reconnect):
		if !m.reconnects.Allow() {
			return m.toast("Reconnect already requested; try again shortly", protocol.SeverityInfo)
		}
		return m, m.reconnectCmd()

	case key.Matches(msg, m.keys.Download):
		return m, m.downloadCmd()

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Clear):
		return m, m.clearCmd()

	case key.Matches(msg, m.keys.AutoScroll):
		m.autoScroll = !m.autoScroll
		m.status.AutoScroll = m.autoScroll
		if m.autoScroll {
			m.viewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTemplate):
		keys := m.sess.Templates().Keys()
		if len(keys) == 0 {
			return m, nil
		}
		k := keys[m.templateIdx%len(keys)]
		m.templateIdx = (m.templateIdx + 1) % len(keys)
		return m, m.templateCmd(k)

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) setFocus(target int) (tea.Model, tea.Cmd) {
	m.focus = target
	if target == focusCompany {
		m.code.Blur()
		return m, m.company.Focus()
	}
	m.company.Blur()
	return m, m.code.Focus()
}

// updateFocused forwards msg to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusCompany {
		m.company, cmd = m.company.Update(msg)
	} else {
		m.code, cmd = m.code.Update(msg)
	}
	return m, cmd
}

func (m Model) applyConfig(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	m.autoScroll = msg.Config.UI.AutoScroll
	m.status.AutoScroll = m.autoScroll
	if err := m.sess.Templates().SetExtras(msg.Config.ExtraTemplates()); err != nil {
		return m.toast(fmt.Sprintf("Config reloaded with template errors: %v", err), protocol.SeverityWarning)
	}
	return m.toast("Configuration reloaded", protocol.SeverityInfo)
}

func (m Model) toast(message string, sev protocol.Severity) (tea.Model, tea.Cmd) {
	first := len(m.toasts.Toasts()) == 0
	m.toasts.Add(message, sev)
	m.layout()
	if first {
		return m, components.ToastTickCmd()
	}
	return m, nil
}

// =============================================================================
// SESSION STATE
// =============================================================================

// refresh pulls the latest snapshot and console. It returns a spinner tick
// when a run just started.
func (m *Model) refresh() tea.Cmd {
	wasBusy := m.snap.Busy()
	m.snap = m.sess.Snapshot()
	m.status.SetSnapshot(m.snap)
	m.refreshConsole(false)

	if m.snap.Busy() && !wasBusy {
		return m.spinner.Tick
	}
	return nil
}

// refreshConsole rebuilds the viewport content when the logbook changed.
func (m *Model) refreshConsole(force bool) {
	book := m.sess.Logbook()
	seq, n := book.LastSeq(), book.Len()
	if !force && seq == m.lastSeq && n == m.lastLen {
		return
	}
	m.lastSeq, m.lastLen = seq, n

	m.viewport.SetContent(m.renderConsole(book.Rendered()))
	if m.autoScroll {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) waitForUpdate() tea.Cmd {
	updates, done := m.sess.Updates(), m.sess.Done()
	return func() tea.Msg {
		select {
		case <-updates:
			return SessionUpdateMsg{}
		case <-done:
			return SessionClosedMsg{}
		}
	}
}

func (m Model) connectCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		if err := sess.Connect(); err != nil {
			return ActionErrMsg{Err: err}
		}
		return nil
	}
}

func (m Model) reconnectCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		if err := sess.ManualConnect(); err != nil {
			return ActionErrMsg{Err: err}
		}
		return nil
	}
}

func (m Model) submitCmd(company, code string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		run, err := sess.Execute(company, code)
		return SubmitResultMsg{Run: run, Err: err}
	}
}

func (m Model) templateCmd(k string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		t, err := sess.LoadTemplate(k)
		return TemplateLoadedMsg{Template: t, Err: err}
	}
}

func (m Model) downloadCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		paths, err := sess.DownloadReport()
		return ReportSavedMsg{Paths: paths, Err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		path, err := sess.ExportLogs()
		return LogsExportedMsg{Path: path, Err: err}
	}
}

func (m Model) clearCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		if err := sess.ClearLogs(); err != nil {
			return ActionErrMsg{Err: err}
		}
		return nil
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// AutoScroll reports whether the console follows new entries.
func (m Model) AutoScroll() bool {
	return m.autoScroll
}

// Busy reports whether the submit button shows "Analysing...".
func (m Model) Busy() bool {
	return m.snap.Busy()
}

// Values returns the form contents.
func (m Model) Values() (company, code string) {
	return m.company.Value(), m.code.Value()
}
