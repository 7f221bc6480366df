// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/jeranaias/stockdesk-tui/internal/protocol"
)

// TimeFormat is the default entry timestamp layout.
const TimeFormat = "15:04:05"

// Renderer converts a message body into display text.
type Renderer interface {
	Render(text string) string
}

type plainRenderer struct{}

func (plainRenderer) Render(text string) string { return text }

// Entry is one console line.
type Entry struct {
	Seq       uint64
	Timestamp string
	Severity  protocol.Severity
	Message   string
}

// Logbook is the ordered list of console entries.
// All methods are safe for concurrent use.
type Logbook struct {
	mu       sync.RWMutex
	entries  []Entry
	rendered []string // parallel to entries; "" means not rendered yet
	seq      uint64
	renderer Renderer
	marker   string

	report    string
	hasReport bool

	now func() time.Time
}

// Options configures a Logbook.
type Options struct {
	// Renderer turns message Markdown into display text. Default: identity.
	Renderer Renderer
	// ReportMarker tags the final report. Default: protocol.DefaultReportMarker.
	ReportMarker string
	// Now supplies the clock for default timestamps.
	Now func() time.Time
}

// NewLogbook creates an empty logbook.
func NewLogbook(opts Options) *Logbook {
	if opts.Renderer == nil {
		opts.Renderer = plainRenderer{}
	}
	if opts.ReportMarker == "" {
		opts.ReportMarker = protocol.DefaultReportMarker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Logbook{
		renderer: opts.Renderer,
		marker:   opts.ReportMarker,
		now:      opts.Now,
	}
}

// =============================================================================
// WRITES
// =============================================================================

// Append adds an entry. An empty timestamp is filled from the clock and an
// unknown severity becomes info. captured is true when this message supplied
// the report artifact.
func (l *Logbook) Append(message string, sev protocol.Severity, timestamp string) (e Entry, captured bool) {
	if !sev.Valid() {
		sev = protocol.SeverityInfo
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if timestamp == "" {
		timestamp = l.now().Format(TimeFormat)
	}
	l.seq++
	e = Entry{
		Seq:       l.seq,
		Timestamp: timestamp,
		Severity:  sev,
		Message:   message,
	}
	l.entries = append(l.entries, e)
	l.rendered = append(l.rendered, "")

	if !l.hasReport {
		if body, ok := protocol.ExtractReport(message, l.marker); ok {
			l.report = body
			l.hasReport = true
			captured = true
		}
	}
	return e, captured
}

// Clear removes every entry. Sequence numbers keep increasing so observers
// holding an old sequence see only new entries afterwards.
func (l *Logbook) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.rendered = nil
}

// ResetReport drops the stored report so the next marker is captured.
func (l *Logbook) ResetReport() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = ""
	l.hasReport = false
}

// SetRenderer swaps the renderer and drops cached renderings.
func (l *Logbook) SetRenderer(r Renderer) {
	if r == nil {
		r = plainRenderer{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.renderer = r
	for i := range l.rendered {
		l.rendered[i] = ""
	}
}

// Invalidate drops cached renderings, e.g. after the renderer changed width.
func (l *Logbook) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rendered {
		l.rendered[i] = ""
	}
}

// =============================================================================
// READS
// =============================================================================

// Len returns the number of entries.
func (l *Logbook) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// LastSeq returns the sequence number of the newest entry ever appended.
func (l *Logbook) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// Entries returns a copy of all entries.
func (l *Logbook) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns entries with a sequence number greater than seq.
func (l *Logbook) Since(seq uint64) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := len(l.entries)
	for i > 0 && l.entries[i-1].Seq > seq {
		i--
	}
	out := make([]Entry, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}

// Report returns the captured report artifact.
func (l *Logbook) Report() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report, l.hasReport
}

// HasReport reports whether a report is available for download.
func (l *Logbook) HasReport() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasReport
}

// Rendered returns each entry paired with its rendered body, rendering any
// entry that has no cached output yet.
func (l *Logbook) Rendered() []RenderedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RenderedEntry, len(l.entries))
	for i, e := range l.entries {
		if l.rendered[i] == "" {
			l.rendered[i] = l.renderer.Render(e.Message)
		}
		out[i] = RenderedEntry{Entry: e, Body: l.rendered[i]}
	}
	return out
}

// RenderedEntry is an entry with its display body.
type RenderedEntry struct {
	Entry
	Body string
}

// Line formats the entry as "[time] body", indenting continuation lines.
func (r RenderedEntry) Line() string {
	prefix := fmt.Sprintf("[%s] ", r.Timestamp)
	indent := strings.Repeat(" ", len(prefix))
	lines := strings.Split(r.Body, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return prefix + strings.Join(lines, "\n")
}

// PlainText returns the rendered console with ANSI sequences removed.
func (l *Logbook) PlainText() string {
	rendered := l.Rendered()
	var sb strings.Builder
	for _, r := range rendered {
		sb.WriteString(stripansi.Strip(r.Line()))
		sb.WriteString("\n")
	}
	return sb.String()
}
