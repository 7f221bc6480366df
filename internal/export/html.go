// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/stockdesk-tui/internal/markup"
)

// =============================================================================
// HTML REPORT EXPORTER
// =============================================================================

// HTMLReportExporter exports the report as a standalone HTML page with embedded CSS.
type HTMLReportExporter struct {
	render func(string) string
}

// NewHTMLReportExporter creates an HTML exporter using the markup HTML chain.
func NewHTMLReportExporter() *HTMLReportExporter {
	return &HTMLReportExporter{render: markup.RenderHTML}
}

// Export converts the report body to HTML.
func (e *HTMLReportExporter) Export(doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Body) == "" {
		return nil, ErrEmptyDocument
	}

	title := "Analysis Report"
	if doc.Company != "" {
		title = fmt.Sprintf("%s (%s) Analysis Report", doc.Company, orDash(doc.Code))
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html>\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("    <meta name=\"generator\" content=\"stockdesk\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", doc.Generated.Format(time.RFC3339))
	sb.WriteString(css)
	sb.WriteString("</head>\n<body>\n")

	sb.WriteString("    <header class=\"header\">\n")
	fmt.Fprintf(&sb, "        <h1>%s</h1>\n", html.EscapeString(title))
	sb.WriteString("        <div class=\"metadata\">\n")
	fmt.Fprintf(&sb, "            <span><strong>Company:</strong> %s</span>\n", html.EscapeString(orDash(doc.Company)))
	fmt.Fprintf(&sb, "            <span><strong>Stock code:</strong> %s</span>\n", html.EscapeString(orDash(doc.Code)))
	fmt.Fprintf(&sb, "            <span><strong>Generated:</strong> %s</span>\n", formatTimestamp(doc.Generated))
	sb.WriteString("        </div>\n    </header>\n")

	sb.WriteString("    <main class=\"report\">\n")
	sb.WriteString(e.render(doc.Body))
	sb.WriteString("\n    </main>\n")

	sb.WriteString("    <footer class=\"footer\">For reference only. Not investment advice.</footer>\n")
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLReportExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLReportExporter) MimeType() string {
	return "text/html"
}

const css = `    <style>
        body { font-family: -apple-system, "PingFang SC", "Microsoft YaHei", sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1f2933; line-height: 1.6; }
        .header { border-bottom: 2px solid #3e4c59; margin-bottom: 1.5rem; }
        .metadata span { margin-right: 1.5rem; color: #52606d; font-size: 0.9rem; }
        table { border-collapse: collapse; margin: 1rem 0; }
        th, td { border: 1px solid #cbd2d9; padding: 0.4rem 0.8rem; }
        th { background: #f5f7fa; }
        .markdown-table { width: 100%; }
        .footer { margin-top: 2rem; color: #7b8794; font-size: 0.8rem; border-top: 1px solid #e4e7eb; padding-top: 0.5rem; }
    </style>
`
