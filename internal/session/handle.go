// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/protocol"
	"github.com/jeranaias/stockdesk-tui/internal/transport"
)

// =============================================================================
// EVENTS
// =============================================================================

type event interface{}

type result struct {
	value any
	err   error
}

type reply chan result

func newReply() reply { return make(reply, 1) }

func (r reply) send(v any, err error) {
	if r != nil {
		r <- result{value: v, err: err}
	}
}

type (
	// transport and timer events
	dialResult struct {
		gen  uint64
		conn transport.Conn
		err  error
	}
	frameEvent struct {
		gen  uint64
		data []byte
	}
	closeEvent struct {
		gen   uint64
		clean bool
		err   error
	}
	retryFired struct {
		seq uint64
	}

	// user actions
	connectReq struct {
		manual bool
		reply  reply
	}
	executeReq struct {
		company, code string
		reply         reply
	}
	logReq struct {
		message   string
		severity  protocol.Severity
		timestamp string
		reply     reply
	}
	templateReq struct {
		key   string
		reply reply
	}
	downloadReq struct{ reply reply }
	exportReq   struct{ reply reply }
	clearReq    struct{ reply reply }
	flushReq    struct{ reply reply }
)

// handle is the single place where session state changes.
func (c *Controller) handle(ev event) {
	switch ev := ev.(type) {
	case dialResult:
		c.onDialResult(ev)
	case frameEvent:
		c.onFrame(ev)
	case closeEvent:
		c.onClose(ev)
	case retryFired:
		c.onRetryFired(ev)

	case connectReq:
		if ev.manual {
			c.manualConnect()
		} else {
			c.connect()
		}
		ev.reply.send(nil, nil)
	case executeReq:
		run, err := c.execute(ev.company, ev.code)
		ev.reply.send(run, err)
	case logReq:
		c.log(ev.message, ev.severity, ev.timestamp)
		ev.reply.send(nil, nil)
	case templateReq:
		t, err := c.loadTemplate(ev.key)
		ev.reply.send(t, err)
	case downloadReq:
		paths, err := c.downloadReport()
		ev.reply.send(paths, err)
	case exportReq:
		path, err := c.exportLogs()
		ev.reply.send(path, err)
	case clearReq:
		c.clearLogs()
		ev.reply.send(nil, nil)
	case flushReq:
		ev.reply.send(nil, nil)

	default:
		c.logger.Warn("unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

// =============================================================================
// CONNECTION MANAGER
// =============================================================================

func (c *Controller) connect() {
	if c.state != Disconnected {
		return
	}
	c.cancelRetry()
	c.gen++
	c.setState(Connecting)
	c.log(fmt.Sprintf("Connecting to %s...", c.opts.URL), protocol.SeverityInfo, "")
	c.logger.Info("connecting", zap.String("url", c.opts.URL), zap.Int("attempt", c.attempts))
	c.dial(c.gen)
}

func (c *Controller) manualConnect() {
	c.attempts = 0
	c.exhausted = false
	c.cancelRetry()
	if c.state.Open() {
		c.log("Already connected", protocol.SeverityInfo, "")
		return
	}
	c.log("Manual reconnect requested", protocol.SeverityInfo, "")
	c.connect()
}

func (c *Controller) onDialResult(ev dialResult) {
	if ev.gen != c.gen {
		if ev.conn != nil {
			_ = ev.conn.Close()
		}
		return
	}
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}

	if ev.err != nil {
		c.setState(Disconnected)
		c.log(fmt.Sprintf("Connection error: %v", ev.err), protocol.SeverityError, "")
		c.logger.Warn("dial failed", zap.Error(ev.err), zap.Int("attempt", c.attempts))
		c.onUnclean()
		return
	}

	c.conn = ev.conn
	c.attempts = 0
	c.exhausted = false
	c.setState(Connected)
	c.log("Connected to the multi-agent backend", protocol.SeveritySuccess, "")
	c.logger.Info("connected", zap.String("url", c.opts.URL))
}

func (c *Controller) onFrame(ev frameEvent) {
	if ev.gen != c.gen {
		return
	}

	msg, err := protocol.DecodeEvent(ev.data)
	if err != nil {
		c.log(string(ev.data), protocol.SeverityInfo, "")
		return
	}

	text := msg.Message
	if text == "" && msg.IsComplete() {
		text = "Analysis complete"
	}
	c.log(text, msg.Severity(), msg.Timestamp)

	if msg.IsComplete() && c.state == Running {
		c.setState(Connected)
		c.logger.Info("run complete",
			zap.String("run_id", c.run.ID),
			zap.Duration("elapsed", c.opts.Now().Sub(c.run.Started)))
	}
}

func (c *Controller) onClose(ev closeEvent) {
	if ev.gen != c.gen {
		return
	}
	c.conn = nil
	wasRunning := c.state == Running
	c.setState(Disconnected)
	if wasRunning {
		c.logger.Warn("connection lost during run", zap.String("run_id", c.run.ID))
	}

	if ev.clean {
		c.log("Connection closed", protocol.SeverityInfo, "")
		c.logger.Info("closed", zap.Bool("clean", true))
		return
	}
	c.logger.Warn("closed", zap.Bool("clean", false), zap.Error(ev.err))
	if ev.err != nil {
		c.log(fmt.Sprintf("Connection error: %v", ev.err), protocol.SeverityError, "")
	}
	c.onUnclean()
}

// onUnclean schedules a reconnect while below the cap, otherwise gives up
// until a manual reconnect.
func (c *Controller) onUnclean() {
	limit := c.opts.Policy.MaxAttempts
	if c.attempts < limit {
		c.attempts++
		c.log(fmt.Sprintf("Connection lost, retrying in %s (attempt %d/%d)...",
			c.opts.Policy.Delay, c.attempts, limit), protocol.SeverityWarning, "")
		c.scheduleRetry()
		return
	}
	c.exhausted = true
	if c.opts.Policy.Disabled {
		c.log("Automatic reconnect is off; reconnect manually", protocol.SeverityError, "")
		return
	}
	c.log(fmt.Sprintf("Reached the maximum of %d reconnect attempts; reconnect manually", limit),
		protocol.SeverityError, "")
	c.logger.Warn("reconnect attempts exhausted", zap.Int("attempt", c.attempts))
}

func (c *Controller) scheduleRetry() {
	c.cancelRetry()
	seq := c.retrySeq
	c.retry = c.opts.Scheduler.AfterFunc(c.opts.Policy.Delay, func() {
		c.post(retryFired{seq: seq})
	})
	c.logger.Info("reconnect scheduled",
		zap.Int("attempt", c.attempts),
		zap.Duration("delay", c.opts.Policy.Delay))
}

// cancelRetry stops the armed timer and invalidates a fire already queued.
func (c *Controller) cancelRetry() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.retrySeq++
}

func (c *Controller) onRetryFired(ev retryFired) {
	if c.retry == nil || ev.seq != c.retrySeq {
		return
	}
	c.retry = nil
	c.connect()
}

// =============================================================================
// SUBMISSION CONTROLLER
// =============================================================================

func (c *Controller) execute(company, code string) (Run, error) {
	if !c.state.Open() {
		c.log("Not connected to the backend; wait for the connection to open", protocol.SeverityError, "")
		return Run{}, ErrNotConnected
	}
	if c.state == Running {
		c.log("An analysis is already running; wait for it to finish", protocol.SeverityError, "")
		return Run{}, ErrBusy
	}
	// Full-width input from CJK keyboards folds to ASCII.
	company = strings.TrimSpace(norm.NFKC.String(company))
	code = strings.TrimSpace(norm.NFKC.String(code))
	if company == "" || code == "" {
		c.log("Enter both a company name and a stock code", protocol.SeverityError, "")
		return Run{}, ErrMissingField
	}

	c.opts.Logbook.ResetReport()

	payload, err := protocol.EncodeCommand(protocol.NewExecuteCommand(company, code))
	if err != nil {
		c.log(fmt.Sprintf("Failed to encode analysis request: %v", err), protocol.SeverityError, "")
		return Run{}, err
	}
	if err := c.conn.Send(payload); err != nil {
		c.log(fmt.Sprintf("Failed to send analysis request: %v", err), protocol.SeverityError, "")
		c.logger.Error("send failed", zap.Error(err))
		return Run{}, fmt.Errorf("send request: %w", err)
	}

	c.run = Run{
		ID:      uuid.NewString(),
		Company: company,
		Code:    code,
		Started: c.opts.Now(),
	}
	c.setState(Running)
	c.log(fmt.Sprintf("Started multi-agent analysis for %s (%s)", company, code), protocol.SeverityInfo, "")
	c.logger.Info("run started",
		zap.String("run_id", c.run.ID),
		zap.String("company", company),
		zap.String("code", code))
	return c.run, nil
}

// =============================================================================
// CONSOLE, TEMPLATES AND EXPORT
// =============================================================================

func (c *Controller) log(message string, sev protocol.Severity, timestamp string) {
	_, captured := c.opts.Logbook.Append(message, sev, timestamp)
	if captured {
		c.logger.Info("report captured", zap.String("run_id", c.run.ID))
		c.opts.Logbook.Append("Final report received and ready to download", protocol.SeveritySuccess, "")
	}
}

func (c *Controller) loadTemplate(key string) (any, error) {
	t, err := c.opts.Templates.Load(key)
	if err != nil {
		c.log(fmt.Sprintf("Unknown template: %s", key), protocol.SeverityError, "")
		return nil, err
	}
	c.log(fmt.Sprintf("Loaded template %s: %s (%s)", t.Key, t.Company, t.Code), protocol.SeverityInfo, "")
	return t, nil
}

func (c *Controller) downloadReport() (export.ReportPaths, error) {
	report, ok := c.opts.Logbook.Report()
	if !ok {
		c.log("No report to download yet", protocol.SeverityWarning, "")
		return export.ReportPaths{}, ErrNoReport
	}

	paths, err := c.opts.Writer.WriteReport(export.Document{
		Company: c.run.Company,
		Code:    c.run.Code,
		RunID:   c.run.ID,
		Body:    report,
	})
	if paths.Text != "" {
		c.log(fmt.Sprintf("Report saved to %s", paths.Text), protocol.SeveritySuccess, "")
	}
	if paths.HTML != "" {
		c.log(fmt.Sprintf("HTML report saved to %s", paths.HTML), protocol.SeveritySuccess, "")
	}
	if err != nil {
		c.log(fmt.Sprintf("Failed to save report: %v", err), protocol.SeverityError, "")
		c.logger.Error("report download failed", zap.Error(err), zap.String("run_id", c.run.ID))
	}
	return paths, err
}

func (c *Controller) exportLogs() (string, error) {
	path, err := c.opts.Writer.WriteLogs(export.Document{
		Company: c.run.Company,
		Code:    c.run.Code,
		RunID:   c.run.ID,
		Body:    c.opts.Logbook.PlainText(),
	})
	if err != nil {
		if errors.Is(err, export.ErrEmptyDocument) {
			c.log("No logs to export", protocol.SeverityWarning, "")
		} else {
			c.log(fmt.Sprintf("Failed to export logs: %v", err), protocol.SeverityError, "")
		}
		return "", err
	}
	c.log(fmt.Sprintf("Logs exported to %s", path), protocol.SeveritySuccess, "")
	return path, nil
}

func (c *Controller) clearLogs() {
	c.opts.Logbook.Clear()
	c.log("Logs cleared", protocol.SeverityInfo, "")
}
