// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "strings"

// DefaultReportMarker tags a message whose trailing content is the final report.
const DefaultReportMarker = "【最终报告】"

// ExtractReport looks for marker in text and returns the content after its
// first occurrence. Leading colons and whitespace after the marker are dropped.
// ok is false when the marker is absent or empty.
func ExtractReport(text, marker string) (report string, ok bool) {
	if marker == "" {
		return "", false
	}
	idx := strings.Index(text, marker)
	if idx < 0 {
		return "", false
	}
	rest := text[idx+len(marker):]
	rest = strings.TrimLeft(rest, ":： \t\r\n")
	return strings.TrimRight(rest, " \t\r\n"), true
}
