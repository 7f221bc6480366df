// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/protocol"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
)

// Every action below is queued to the event loop and returns once the loop
// has handled it. After Close they return ErrClosed.

// Connect opens the connection unless one is open or being opened.
func (c *Controller) Connect() error {
	r := newReply()
	_, err := c.call(connectReq{reply: r}, r)
	return err
}

// ManualConnect resets the reconnect counter, cancels a pending retry and connects.
func (c *Controller) ManualConnect() error {
	r := newReply()
	_, err := c.call(connectReq{manual: true, reply: r}, r)
	return err
}

// Execute submits an analysis request. Rejections are logged to the console
// and returned as ErrNotConnected, ErrBusy or ErrMissingField.
func (c *Controller) Execute(company, code string) (Run, error) {
	r := newReply()
	v, err := c.call(executeReq{company: company, code: code, reply: r}, r)
	run, _ := v.(Run)
	return run, err
}

// Log appends a console entry. An empty timestamp uses the current time.
func (c *Controller) Log(message string, sev protocol.Severity, timestamp string) error {
	r := newReply()
	_, err := c.call(logReq{message: message, severity: sev, timestamp: timestamp, reply: r}, r)
	return err
}

// LoadTemplate resolves a template key and logs the outcome.
func (c *Controller) LoadTemplate(key string) (templates.Template, error) {
	r := newReply()
	v, err := c.call(templateReq{key: key, reply: r}, r)
	t, _ := v.(templates.Template)
	return t, err
}

// DownloadReport saves the captured report. Without one it logs a warning
// and returns ErrNoReport.
func (c *Controller) DownloadReport() (export.ReportPaths, error) {
	r := newReply()
	v, err := c.call(downloadReq{reply: r}, r)
	paths, _ := v.(export.ReportPaths)
	return paths, err
}

// ExportLogs saves the console as plain text and returns the file path.
func (c *Controller) ExportLogs() (string, error) {
	r := newReply()
	v, err := c.call(exportReq{reply: r}, r)
	path, _ := v.(string)
	return path, err
}

// ClearLogs empties the console and logs a confirmation.
func (c *Controller) ClearLogs() error {
	r := newReply()
	_, err := c.call(clearReq{reply: r}, r)
	return err
}

// Flush returns after every event queued before it was handled.
func (c *Controller) Flush() error {
	r := newReply()
	_, err := c.call(flushReq{reply: r}, r)
	return err
}
