// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"time"
)

// Writer bundles the report and log exporters behind the client's download
// and export actions.
type Writer struct {
	opts Options
	html bool
	now  func() time.Time
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	Options
	// HTML also writes an HTML rendering next to each text report.
	HTML bool
	// Now supplies the export time. Default: time.Now
	Now func() time.Time
}

// NewWriter creates a writer.
func NewWriter(opts WriterOptions) *Writer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Writer{opts: opts.Options, html: opts.HTML, now: opts.Now}
}

// ReportPaths lists the files one report download produced.
type ReportPaths struct {
	Text string
	HTML string
}

// WriteReport writes the text report and, when enabled, the HTML rendering.
// A failed HTML write is returned alongside the text path.
func (w *Writer) WriteReport(doc Document) (ReportPaths, error) {
	doc.Kind = KindReport
	if doc.Generated.IsZero() {
		doc.Generated = w.now()
	}

	var paths ReportPaths
	textPath, err := ExportToFile(doc, NewTextReportExporter(), &w.opts)
	if err != nil {
		return paths, err
	}
	paths.Text = textPath

	if w.html {
		opts := w.opts
		opts.OpenAfterExport = false
		htmlPath, err := ExportToFile(doc, NewHTMLReportExporter(), &opts)
		if err != nil {
			return paths, fmt.Errorf("html report: %w", err)
		}
		paths.HTML = htmlPath
	}
	return paths, nil
}

// WriteLogs writes the console text.
func (w *Writer) WriteLogs(doc Document) (string, error) {
	doc.Kind = KindLogs
	if doc.Generated.IsZero() {
		doc.Generated = w.now()
	}
	opts := w.opts
	opts.OpenAfterExport = false
	return ExportToFile(doc, NewLogExporter(), &opts)
}

// OutputDir returns the directory files are written to.
func (w *Writer) OutputDir() string {
	return w.opts.OutputDir
}
