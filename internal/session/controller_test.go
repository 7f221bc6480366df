// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/protocol"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
)

type harness struct {
	ctrl   *Controller
	dialer *fakeDialer
	sched  *fakeScheduler
	book   *console.Logbook
	outDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dialer: &fakeDialer{},
		sched:  &fakeScheduler{},
		book:   console.NewLogbook(console.Options{}),
		outDir: t.TempDir(),
	}
	h.ctrl = NewController(Options{
		URL:       "ws://backend.test/ws/multi",
		Dialer:    h.dialer,
		Policy:    DefaultReconnectPolicy(),
		Logbook:   h.book,
		Writer:    export.NewWriter(export.WriterOptions{Options: export.Options{OutputDir: h.outDir}}),
		Scheduler: h.sched,
	})
	h.ctrl.Start(context.Background())
	t.Cleanup(func() { _ = h.ctrl.Close() })
	return h
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().State == want
	}, 2*time.Second, 2*time.Millisecond, "state never became %s", want)
}

// waitTimers waits until n reconnect timers were scheduled in total.
func (h *harness) waitTimers(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.sched.all()) == n
	}, 2*time.Second, 2*time.Millisecond, "expected %d scheduled reconnects", n)
	require.NoError(t, h.ctrl.Flush())
}

func (h *harness) connect(t *testing.T) *fakeConn {
	t.Helper()
	require.NoError(t, h.ctrl.Connect())
	h.waitState(t, Connected)
	return h.dialer.last()
}

func (h *harness) countSeverity(sev protocol.Severity) int {
	n := 0
	for _, e := range h.book.Entries() {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

func (h *harness) lastMessage() string {
	entries := h.book.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Message
}

// =============================================================================
// CONNECTION MANAGER
// =============================================================================

func TestConnect_OpensConnection(t *testing.T) {
	h := newHarness(t)

	h.connect(t)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, Connected, snap.State)
	assert.Equal(t, "Connected", snap.State.Label())
	assert.Equal(t, 0, snap.Attempts)
	assert.Equal(t, 1, h.countSeverity(protocol.SeveritySuccess))
}

func TestConnect_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.connect(t)

	require.NoError(t, h.ctrl.Connect())
	require.NoError(t, h.ctrl.Connect())
	require.NoError(t, h.ctrl.Flush())

	assert.Equal(t, 1, h.dialer.count())
}

func TestReconnect_StopsAfterMaxAttempts(t *testing.T) {
	h := newHarness(t)
	h.dialer.failNext(10, errRefused)

	require.NoError(t, h.ctrl.Connect())

	for i := 1; i <= 3; i++ {
		h.waitTimers(t, i)
		snap := h.ctrl.Snapshot()
		assert.Equal(t, i, snap.Attempts)
		assert.True(t, snap.RetryPending)
		assert.Equal(t, 3*time.Second, h.sched.all()[i-1].delay)
		require.Len(t, h.sched.active(), 1, "exactly one outstanding retry timer")

		h.sched.all()[i-1].fire()
	}

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().RetryExhausted
	}, 2*time.Second, 2*time.Millisecond)
	require.NoError(t, h.ctrl.Flush())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 4, h.dialer.count(), "initial attempt plus three retries")
	assert.Len(t, h.sched.all(), 3, "no fourth retry is scheduled")
	assert.False(t, snap.RetryPending)
	assert.Equal(t, Disconnected, snap.State)
	assert.Contains(t, h.lastMessage(), "reconnect manually")

	// A manual reconnect starts over.
	require.NoError(t, h.ctrl.ManualConnect())
	h.waitTimers(t, 4)
	assert.Equal(t, 5, h.dialer.count())
	assert.Equal(t, 1, h.ctrl.Snapshot().Attempts)
	assert.False(t, h.ctrl.Snapshot().RetryExhausted)
}

func TestReconnect_ZeroPolicyUsesDefaultCap(t *testing.T) {
	dialer := &fakeDialer{}
	sched := &fakeScheduler{}
	ctrl := NewController(Options{URL: "ws://backend.test/ws/multi", Dialer: dialer, Scheduler: sched})
	ctrl.Start(context.Background())
	t.Cleanup(func() { _ = ctrl.Close() })

	dialer.failNext(1, errRefused)
	require.NoError(t, ctrl.Connect())
	require.Eventually(t, func() bool {
		return len(sched.all()) == 1
	}, 2*time.Second, 2*time.Millisecond)
	require.NoError(t, ctrl.Flush())

	snap := ctrl.Snapshot()
	assert.Equal(t, 3, snap.MaxAttempts)
	assert.Equal(t, 1, snap.Attempts)
	assert.True(t, snap.RetryPending)
	assert.Equal(t, 3*time.Second, sched.all()[0].delay)
}

func TestReconnect_DisabledPolicy(t *testing.T) {
	dialer := &fakeDialer{}
	sched := &fakeScheduler{}
	book := console.NewLogbook(console.Options{})
	ctrl := NewController(Options{
		URL:       "ws://backend.test/ws/multi",
		Dialer:    dialer,
		Scheduler: sched,
		Logbook:   book,
		Policy:    ReconnectPolicy{Disabled: true},
	})
	ctrl.Start(context.Background())
	t.Cleanup(func() { _ = ctrl.Close() })

	dialer.failNext(1, errRefused)
	require.NoError(t, ctrl.Connect())
	require.Eventually(t, func() bool {
		return ctrl.Snapshot().RetryExhausted
	}, 2*time.Second, 2*time.Millisecond)

	assert.Empty(t, sched.all())
	assert.Equal(t, 0, ctrl.Snapshot().MaxAttempts)
	entries := book.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "Automatic reconnect is off; reconnect manually", entries[len(entries)-1].Message)
}

func TestReconnect_SucceedsAndResetsCounter(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	conn.drop(errors.New("unexpected EOF"))
	h.waitTimers(t, 1)
	assert.Equal(t, Disconnected, h.ctrl.Snapshot().State)
	assert.Equal(t, 1, h.ctrl.Snapshot().Attempts)

	h.sched.all()[0].fire()
	h.waitState(t, Connected)
	assert.Equal(t, 0, h.ctrl.Snapshot().Attempts)
	assert.Equal(t, 2, h.dialer.count())
}

func TestManualConnect_ResetsCounterAndCancelsRetry(t *testing.T) {
	h := newHarness(t)
	h.dialer.failNext(2, errRefused)

	require.NoError(t, h.ctrl.Connect())
	h.waitTimers(t, 1)
	h.sched.all()[0].fire()
	h.waitTimers(t, 2)
	require.Equal(t, 2, h.ctrl.Snapshot().Attempts)
	pending := h.sched.all()[1]

	require.NoError(t, h.ctrl.ManualConnect())
	h.waitState(t, Connected)

	assert.False(t, pending.active(), "pending retry was cancelled")
	assert.Equal(t, 0, h.ctrl.Snapshot().Attempts)
	dials := h.dialer.count()

	// A fire that raced the cancellation is ignored.
	pending.fire()
	require.NoError(t, h.ctrl.Flush())
	assert.Equal(t, dials, h.dialer.count())
}

func TestClose_CleanCloseDoesNotRetry(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	conn.mu.Lock()
	conn.closed = true
	conn.mu.Unlock()
	conn.sink.OnClose(true, nil)
	require.NoError(t, h.ctrl.Flush())

	assert.Equal(t, Disconnected, h.ctrl.Snapshot().State)
	assert.Empty(t, h.sched.all())
	assert.Equal(t, "Connection closed", h.lastMessage())
}

func TestUncleanClose_LogsErrorAndWarning(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	conn.drop(errors.New("broken pipe"))
	h.waitTimers(t, 1)

	assert.Equal(t, 1, h.countSeverity(protocol.SeverityError))
	assert.Equal(t, 1, h.countSeverity(protocol.SeverityWarning))
}

func TestTeardown(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)
	conn.drop(errRefused)
	h.waitTimers(t, 1)
	timer := h.sched.all()[0]

	require.NoError(t, h.ctrl.Close())

	assert.False(t, timer.active(), "retry timer cancelled on teardown")
	assert.Equal(t, Disconnected, h.ctrl.Snapshot().State)
	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ctrl.Connect(), ErrClosed)
	assert.NoError(t, h.ctrl.Close(), "Close is idempotent")

	select {
	case <-h.ctrl.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestTeardown_ClosesOpenSocket(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	require.NoError(t, h.ctrl.Close())
	assert.True(t, conn.isClosed())
}

func TestClose_BeforeStart(t *testing.T) {
	c := NewController(Options{Dialer: &fakeDialer{}})
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Connect(), ErrClosed)
}

func TestContextCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(Options{Dialer: &fakeDialer{}, Scheduler: &fakeScheduler{}})
	c.Start(ctx)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
	assert.NoError(t, c.Close())
}

// =============================================================================
// INBOUND FRAMES
// =============================================================================

func TestFrame_NonJSONLoggedVerbatim(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	conn.deliver("plain text <not json>")
	require.NoError(t, h.ctrl.Flush())

	entries := h.book.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, "plain text <not json>", last.Message)
	assert.Equal(t, protocol.SeverityInfo, last.Severity)
}

func TestFrame_SeverityAndTimestamp(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	conn.deliver(`{"type":"warning","message":"估值偏高","timestamp":"10:11:12"}`)
	conn.deliver(`{"type":"agent_progress","message":"fundamentals done"}`)
	require.NoError(t, h.ctrl.Flush())

	entries := h.book.Entries()
	require.GreaterOrEqual(t, len(entries), 2)
	warn := entries[len(entries)-2]
	assert.Equal(t, protocol.SeverityWarning, warn.Severity)
	assert.Equal(t, "10:11:12", warn.Timestamp)
	assert.Equal(t, protocol.SeverityInfo, entries[len(entries)-1].Severity)
}

// =============================================================================
// SUBMISSION CONTROLLER
// =============================================================================

func TestExecute_RejectedWhileDisconnected(t *testing.T) {
	h := newHarness(t)
	before := h.countSeverity(protocol.SeverityError)

	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, before+1, h.countSeverity(protocol.SeverityError))
	assert.Zero(t, h.dialer.count())
}

func TestExecute_RejectedWhileBusy(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")
	require.NoError(t, err)
	before := h.countSeverity(protocol.SeverityError)

	_, err = h.ctrl.Execute("比亚迪", "sz.002594")

	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before+1, h.countSeverity(protocol.SeverityError))
	assert.Len(t, conn.sentFrames(), 1)
}

func TestExecute_RequiresBothFields(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	_, err := h.ctrl.Execute("  ", "sh.600519")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = h.ctrl.Execute("贵州茅台", "")
	assert.ErrorIs(t, err, ErrMissingField)

	assert.Empty(t, conn.sentFrames())
	assert.Equal(t, 2, h.countSeverity(protocol.SeverityError))
	assert.Equal(t, Connected, h.ctrl.Snapshot().State)
}

func TestExecute_EndToEnd(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	run, err := h.ctrl.Execute(" 贵州茅台 ", "sh.600519")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "贵州茅台", run.Company)

	frames := conn.sentFrames()
	require.Len(t, frames, 1)
	var cmd map[string]string
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &cmd))
	assert.Equal(t, map[string]string{
		"type":         "execute_multi_agent",
		"company_name": "贵州茅台",
		"stock_code":   "sh.600519",
	}, cmd)

	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Busy())
	assert.Equal(t, run, snap.Run)

	conn.deliver(`{"type":"execution_complete","message":"分析完成"}`)
	require.NoError(t, h.ctrl.Flush())

	snap = h.ctrl.Snapshot()
	assert.False(t, snap.Busy())
	assert.Equal(t, "Connected", snap.State.Label())
	assert.Equal(t, "分析完成", h.lastMessage())
}

func TestExecute_NormalizesFullWidthInput(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)

	run, err := h.ctrl.Execute("贵州茅台\u3000", "ｓｈ．６００５１９")
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", run.Company)
	assert.Equal(t, "sh.600519", run.Code)

	frames := conn.sentFrames()
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0], `"stock_code":"sh.600519"`)
}

func TestExecute_SendFailureStaysConnected(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)
	conn.mu.Lock()
	conn.sendErr = errors.New("write: broken pipe")
	conn.mu.Unlock()

	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")

	require.Error(t, err)
	assert.Equal(t, Connected, h.ctrl.Snapshot().State)
	assert.Contains(t, h.lastMessage(), "Failed to send")
}

func TestCloseWhileRunningClearsBusy(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)
	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")
	require.NoError(t, err)

	conn.drop(errors.New("reset by peer"))
	h.waitTimers(t, 1)

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Busy())
	assert.Equal(t, Disconnected, snap.State)
}

// =============================================================================
// REPORT ARTIFACT
// =============================================================================

func TestReport_OncePerRunAndResetOnSubmit(t *testing.T) {
	h := newHarness(t)
	conn := h.connect(t)
	_, err := h.ctrl.Execute("贵州茅台", "sh.600519")
	require.NoError(t, err)

	assert.False(t, h.ctrl.Snapshot().HasReport)

	conn.deliver(`{"type":"success","message":"【最终报告】\n# 结论\n持有"}`)
	conn.deliver(`{"type":"success","message":"【最终报告】 duplicate"}`)
	conn.deliver(`{"type":"execution_complete","message":"done"}`)
	require.NoError(t, h.ctrl.Flush())

	assert.True(t, h.ctrl.Snapshot().HasReport)
	report, ok := h.book.Report()
	require.True(t, ok)
	assert.Equal(t, "# 结论\n持有", report)

	_, err = h.ctrl.Execute("比亚迪", "sz.002594")
	require.NoError(t, err)
	assert.False(t, h.ctrl.Snapshot().HasReport)
}

func TestDownloadReport(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctrl.DownloadReport()
	assert.ErrorIs(t, err, ErrNoReport)
	assert.Equal(t, 1, h.countSeverity(protocol.SeverityWarning))

	conn := h.connect(t)
	_, err = h.ctrl.Execute("贵州茅台", "sh.600519")
	require.NoError(t, err)
	conn.deliver(`{"type":"success","message":"【最终报告】买入评级"}`)
	require.NoError(t, h.ctrl.Flush())

	paths, err := h.ctrl.DownloadReport()
	require.NoError(t, err)
	assert.Equal(t, h.outDir, filepath.Dir(paths.Text))
	assert.True(t, strings.HasPrefix(filepath.Base(paths.Text), "report_贵州茅台_sh.600519_"))

	data, err := os.ReadFile(paths.Text)
	require.NoError(t, err)
	assert.Contains(t, string(data), "买入评级")
	assert.Contains(t, string(data), "Company:    贵州茅台")
}

// =============================================================================
// CONSOLE ACTIONS
// =============================================================================

func TestExportAndClearLogs(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Log("**hello**", protocol.SeverityInfo, "08:00:00"))

	path, err := h.ctrl.ExportLogs()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "agent-logs_"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[08:00:00] **hello**")

	require.NoError(t, h.ctrl.ClearLogs())
	assert.Equal(t, 1, h.book.Len())
	assert.Equal(t, "Logs cleared", h.lastMessage())
	assert.Equal(t, 1, h.ctrl.Snapshot().LogCount)
}

func TestLoadTemplate(t *testing.T) {
	h := newHarness(t)

	tpl, err := h.ctrl.LoadTemplate("茅台")
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", tpl.Company)
	assert.Equal(t, "sh.600519", tpl.Code)
	assert.Contains(t, h.lastMessage(), "Loaded template")

	_, err = h.ctrl.LoadTemplate("苹果")
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
	assert.Contains(t, h.lastMessage(), "苹果")
}

func TestUpdates_Signalled(t *testing.T) {
	h := newHarness(t)

	// Drain anything published during start-up.
	select {
	case <-h.ctrl.Updates():
	default:
	}

	require.NoError(t, h.ctrl.Log("ping", protocol.SeverityInfo, ""))
	select {
	case <-h.ctrl.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update after Log")
	}
}

// =============================================================================
// STATE
// =============================================================================

func TestStateLabels(t *testing.T) {
	tests := []struct {
		state State
		name  string
		label string
		open  bool
	}{
		{Disconnected, "Disconnected", "Disconnected", false},
		{Connecting, "Connecting", "Connecting...", false},
		{Connected, "Connected", "Connected", true},
		{Running, "Running", "Running", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.state.String())
		assert.Equal(t, tt.label, tt.state.Label())
		assert.Equal(t, tt.open, tt.state.Open())
	}
	assert.Equal(t, "Unknown", State(42).String())
}
