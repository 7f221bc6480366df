// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package features

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/protocol"
	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/transport"
)

const (
	waitFor       = 5 * time.Second
	pollInterval  = 5 * time.Millisecond
	retryDelay    = 20 * time.Millisecond
	retryAttempts = 3
)

// world holds one scenario's server, client and last results.
type world struct {
	backend *backend
	ctrl    *session.Controller
	book    *console.Logbook
	outDir  string
	started bool

	lastErr     error
	lastPaths   export.ReportPaths
	lastExport  string
	errorsSince uint64
}

func (w *world) start() {
	if w.started {
		return
	}
	w.started = true
	w.ctrl.Start(context.Background())
}

func (w *world) teardown() {
	if w.ctrl != nil {
		_ = w.ctrl.Close()
	}
	if w.backend != nil {
		w.backend.close()
	}
	if w.outDir != "" {
		_ = os.RemoveAll(w.outDir)
	}
}

// eventually polls cond until it holds or waitFor elapses.
func eventually(cond func() bool, format string, args ...any) error {
	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf(format, args...)
}

// =============================================================================
// SERVER STEPS
// =============================================================================

func (w *world) anAnalysisServer() error {
	dir, err := os.MkdirTemp("", "stockdesk-features-")
	if err != nil {
		return err
	}
	w.outDir = dir
	w.backend = newBackend()
	w.book = console.NewLogbook(console.Options{})
	w.ctrl = session.NewController(session.Options{
		URL:     w.backend.url(),
		Dialer:  &transport.WebSocketDialer{HandshakeTimeout: 2 * time.Second},
		Policy:  session.ReconnectPolicy{MaxAttempts: retryAttempts, Delay: retryDelay},
		Logbook: w.book,
		Writer:  export.NewWriter(export.WriterOptions{Options: export.Options{OutputDir: dir}}),
	})
	return nil
}

func (w *world) theServerRepliesWithTheReport(report string) error {
	w.backend.setScript([]protocol.Event{
		{Type: "info", Message: "报告撰写员 正在汇总"},
		{Type: "success", Message: strings.ReplaceAll(report, `\n`, "\n")},
	})
	return nil
}

func (w *world) theServerRepliesWith(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("table needs a header and at least one row")
	}
	var events []protocol.Event
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return fmt.Errorf("want 2 cells, got %d", len(row.Cells))
		}
		events = append(events, protocol.Event{Type: row.Cells[0].Value, Message: row.Cells[1].Value})
	}
	w.backend.setScript(events)
	return nil
}

func (w *world) theServerNeverCompletesARun() error {
	w.backend.setNoComplete()
	return nil
}

func (w *world) theServerRefusesConnections() error {
	w.backend.setRefuse(true)
	return nil
}

func (w *world) theServerAcceptsConnectionsAgain() error {
	w.backend.setRefuse(false)
	return nil
}

func (w *world) theServerDropsTheConnection() error {
	w.backend.drop()
	return nil
}

func (w *world) theServerClosesTheConnectionNormally() error {
	w.backend.closeNormally()
	return nil
}

func (w *world) iCloseTheSession() error {
	return w.ctrl.Close()
}

func (w *world) theServerReceivesAnExecuteCommand(company, code string) error {
	return eventually(func() bool {
		for _, cmd := range w.backend.received() {
			if cmd.CompanyName == company && cmd.StockCode == code {
				return true
			}
		}
		return false
	}, "no execute command for %s (%s); got %v", company, code, w.backend.received())
}

func (w *world) theServerReceivedExecuteCommands(n int) error {
	// Give a stray second command time to arrive.
	time.Sleep(50 * time.Millisecond)
	if got := len(w.backend.received()); got != n {
		return fmt.Errorf("server received %d execute commands, want %d", got, n)
	}
	return nil
}

// =============================================================================
// CONNECTION STEPS
// =============================================================================

func (w *world) theClientConnects() error {
	w.start()
	return w.ctrl.Connect()
}

func (w *world) theClientIsConnected() error {
	if err := w.theClientConnects(); err != nil {
		return err
	}
	return w.theConnectionStateBecomes("Connected")
}

func (w *world) iReconnectManually() error {
	w.start()
	return w.ctrl.ManualConnect()
}

func (w *world) theConnectionStateBecomes(state string) error {
	return eventually(func() bool {
		return w.ctrl.Snapshot().State.String() == state
	}, "state is %s, want %s", w.ctrl.Snapshot().State, state)
}

func (w *world) theClientReconnectsAutomatically() error {
	return eventually(func() bool {
		accepted, _ := w.backend.counts()
		return accepted == 2 && w.ctrl.Snapshot().State == session.Connected
	}, "client did not reconnect (snapshot %+v)", w.ctrl.Snapshot())
}

func (w *world) theClientGivesUpAfterReconnectAttempts(n int) error {
	if err := eventually(func() bool {
		return w.ctrl.Snapshot().RetryExhausted
	}, "reconnects never exhausted (snapshot %+v)", w.ctrl.Snapshot()); err != nil {
		return err
	}
	snap := w.ctrl.Snapshot()
	if snap.Attempts != n {
		return fmt.Errorf("attempts = %d, want %d", snap.Attempts, n)
	}
	if _, refused := w.backend.counts(); refused != n {
		return fmt.Errorf("server refused %d dials, want %d", refused, n)
	}
	if snap.RetryPending {
		return errors.New("a retry is still pending after giving up")
	}
	return nil
}

func (w *world) noReconnectIsScheduled() error {
	time.Sleep(3 * retryDelay)
	snap := w.ctrl.Snapshot()
	if snap.RetryPending || snap.Attempts != 0 {
		return fmt.Errorf("unexpected reconnect: %+v", snap)
	}
	if accepted, _ := w.backend.counts(); accepted != 1 {
		return fmt.Errorf("server accepted %d connections, want 1", accepted)
	}
	return nil
}

// =============================================================================
// SUBMISSION STEPS
// =============================================================================

func (w *world) iSubmitWithCode(company, code string) error {
	w.start()
	w.errorsSince = w.book.LastSeq()
	_, w.lastErr = w.ctrl.Execute(company, code)
	return nil
}

func (w *world) theSubmissionIsAccepted() error {
	return w.lastErr
}

func (w *world) theSubmissionIsRejectedAs(text string) error {
	if w.lastErr == nil {
		return errors.New("submission was accepted")
	}
	if !strings.Contains(w.lastErr.Error(), text) {
		return fmt.Errorf("rejected with %q, want %q", w.lastErr, text)
	}
	return nil
}

func (w *world) theConsoleShowsExactlyNewErrorEntries(n int) error {
	count := 0
	for _, e := range w.book.Since(w.errorsSince) {
		if e.Severity == protocol.SeverityError {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("%d new error entries, want %d", count, n)
	}
	return nil
}

func (w *world) theRunCompletes() error {
	return eventually(func() bool {
		snap := w.ctrl.Snapshot()
		return snap.State == session.Connected && !snap.Busy()
	}, "run did not complete (snapshot %+v)", w.ctrl.Snapshot())
}

// =============================================================================
// CONSOLE AND REPORT STEPS
// =============================================================================

func (w *world) theConsoleContainsEntry(sev, message string) error {
	for _, e := range w.book.Entries() {
		if e.Severity.String() == sev && e.Message == message {
			return nil
		}
	}
	return fmt.Errorf("no %s entry %q", sev, message)
}

func (w *world) aReportIsAvailable() error {
	return eventually(func() bool {
		return w.ctrl.Snapshot().HasReport
	}, "no report captured")
}

func (w *world) noReportIsAvailable() error {
	if w.book.HasReport() {
		return errors.New("a report was captured")
	}
	return nil
}

func (w *world) iDownloadTheReport() error {
	w.start()
	w.lastPaths, w.lastErr = w.ctrl.DownloadReport()
	return nil
}

func (w *world) theSavedReportContains(text string) error {
	if w.lastErr != nil {
		return w.lastErr
	}
	data, err := os.ReadFile(w.lastPaths.Text)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("report does not contain %q:\n%s", text, data)
	}
	return nil
}

func (w *world) theDownloadFailsWith(text string) error {
	if w.lastErr == nil {
		return errors.New("download succeeded")
	}
	if !strings.Contains(w.lastErr.Error(), text) {
		return fmt.Errorf("failed with %q, want %q", w.lastErr, text)
	}
	return nil
}

func (w *world) iExportTheLogs() error {
	w.start()
	w.lastExport, w.lastErr = w.ctrl.ExportLogs()
	return w.lastErr
}

func (w *world) theExportedLogContains(text string) error {
	data, err := os.ReadFile(w.lastExport)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("exported log does not contain %q", text)
	}
	return nil
}

// =============================================================================
// SUITE
// =============================================================================

func InitializeScenario(sc *godog.ScenarioContext) {
	w := &world{}

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		w.teardown()
		return ctx, err
	})

	sc.Step(`^an analysis server$`, w.anAnalysisServer)
	sc.Step(`^the server replies with the report "([^"]*)"$`, w.theServerRepliesWithTheReport)
	sc.Step(`^the server replies with:$`, w.theServerRepliesWith)
	sc.Step(`^the server never completes a run$`, w.theServerNeverCompletesARun)
	sc.Step(`^the server refuses connections$`, w.theServerRefusesConnections)
	sc.Step(`^the server accepts connections again$`, w.theServerAcceptsConnectionsAgain)
	sc.Step(`^the server drops the connection$`, w.theServerDropsTheConnection)
	sc.Step(`^the server closes the connection normally$`, w.theServerClosesTheConnectionNormally)
	sc.Step(`^the server receives an execute command for "([^"]*)" with code "([^"]*)"$`, w.theServerReceivesAnExecuteCommand)
	sc.Step(`^the server received (\d+) execute commands?$`, w.theServerReceivedExecuteCommands)

	sc.Step(`^the client connects$`, w.theClientConnects)
	sc.Step(`^the client is connected$`, w.theClientIsConnected)
	sc.Step(`^I reconnect manually$`, w.iReconnectManually)
	sc.Step(`^I close the session$`, w.iCloseTheSession)
	sc.Step(`^the connection state becomes "([^"]*)"$`, w.theConnectionStateBecomes)
	sc.Step(`^the client reconnects automatically$`, w.theClientReconnectsAutomatically)
	sc.Step(`^the client gives up after (\d+) reconnect attempts$`, w.theClientGivesUpAfterReconnectAttempts)
	sc.Step(`^no reconnect is scheduled$`, w.noReconnectIsScheduled)

	sc.Step(`^I submit "([^"]*)" with code "([^"]*)"$`, w.iSubmitWithCode)
	sc.Step(`^the submission is accepted$`, w.theSubmissionIsAccepted)
	sc.Step(`^the submission is rejected as "([^"]*)"$`, w.theSubmissionIsRejectedAs)
	sc.Step(`^the console shows exactly (\d+) new error entr(?:y|ies)$`, w.theConsoleShowsExactlyNewErrorEntries)
	sc.Step(`^the run completes$`, w.theRunCompletes)

	sc.Step(`^the console contains a "([^"]*)" entry "([^"]*)"$`, w.theConsoleContainsEntry)
	sc.Step(`^a report is available$`, w.aReportIsAvailable)
	sc.Step(`^no report is available$`, w.noReportIsAvailable)
	sc.Step(`^I download the report$`, w.iDownloadTheReport)
	sc.Step(`^the saved report contains "([^"]*)"$`, w.theSavedReportContains)
	sc.Step(`^the download fails with "([^"]*)"$`, w.theDownloadFailsWith)
	sc.Step(`^I export the logs$`, w.iExportTheLogs)
	sc.Step(`^the exported log contains "([^"]*)"$`, w.theExportedLogContains)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"."},
			Tags:     "~@wip",
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
