// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
)

const rule = "=================================================="

// =============================================================================
// TEXT REPORT EXPORTER
// =============================================================================

// TextReportExporter writes the report as a plain-text document.
type TextReportExporter struct{}

// NewTextReportExporter creates a text report exporter.
func NewTextReportExporter() *TextReportExporter {
	return &TextReportExporter{}
}

// Export renders header, body and footer.
func (e *TextReportExporter) Export(doc Document) ([]byte, error) {
	body := strings.TrimSpace(doc.Body)
	if body == "" {
		return nil, ErrEmptyDocument
	}

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString("Multi-Agent Stock Analysis Report\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Company:    %s\n", orDash(doc.Company))
	fmt.Fprintf(&sb, "Stock code: %s\n", orDash(doc.Code))
	fmt.Fprintf(&sb, "Generated:  %s\n", formatTimestamp(doc.Generated))
	if doc.RunID != "" {
		fmt.Fprintf(&sb, "Run ID:     %s\n", doc.RunID)
	}
	sb.WriteString(rule + "\n\n")

	sb.WriteString(body)
	sb.WriteString("\n\n")

	sb.WriteString(rule + "\n")
	sb.WriteString("Generated by the stockdesk multi-agent analysis client.\n")
	sb.WriteString("For reference only. Not investment advice.\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for text.
func (e *TextReportExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for text.
func (e *TextReportExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}

// =============================================================================
// LOG EXPORTER
// =============================================================================

// LogExporter writes the console text as-is.
type LogExporter struct{}

// NewLogExporter creates a log exporter.
func NewLogExporter() *LogExporter {
	return &LogExporter{}
}

// Export returns the body with a trailing newline.
func (e *LogExporter) Export(doc Document) ([]byte, error) {
	if doc.Body == "" {
		return nil, ErrEmptyDocument
	}
	body := doc.Body
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return []byte(body), nil
}

// FileExtension returns the file extension for text.
func (e *LogExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for text.
func (e *LogExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
