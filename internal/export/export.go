// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/stockdesk-tui/internal/util"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Kind selects the file name prefix of a document.
type Kind int

const (
	KindReport Kind = iota
	KindLogs
)

// Prefix returns the file name prefix for the kind.
func (k Kind) Prefix() string {
	if k == KindLogs {
		return "agent-logs"
	}
	return "report"
}

// Document is the content handed to an exporter.
type Document struct {
	Kind Kind

	// Company and Code identify the run. Both may be empty for a log export
	// taken before the first submission.
	Company string
	Code    string
	RunID   string

	// Generated is the export time. Zero means now.
	Generated time.Time

	// Body is the report text or the plain-text console.
	Body string
}

// ErrEmptyDocument is returned for a document with no body.
var ErrEmptyDocument = errors.New("nothing to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for document exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".txt", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a document to a file using the specified exporter.
// Returns the output file path or an error. The file is written atomically.
func ExportToFile(doc Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if doc.Generated.IsZero() {
		doc.Generated = time.Now()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, FileName(doc, exporter.FileExtension()))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			return outputPath, fmt.Errorf("exported but could not open file: %w", err)
		}
	}

	return outputPath, nil
}

// FileName builds "<prefix>_<company>_<code>_<yyyymmdd_hhmmss><ext>".
// Empty company and code parts are left out.
func FileName(doc Document, ext string) string {
	parts := []string{doc.Kind.Prefix()}
	if doc.Company != "" {
		parts = append(parts, sanitizeFilename(doc.Company))
	}
	if doc.Code != "" {
		parts = append(parts, sanitizeFilename(doc.Code))
	}
	generated := doc.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	parts = append(parts, generated.Format("20060102_150405"))
	return strings.Join(parts, "_") + ext
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	// Windows and Unix
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '-',
		'_':  '-',
		'\t': '-',
		'\n': '-',
		'\r': '-',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "unnamed"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for document headers.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
