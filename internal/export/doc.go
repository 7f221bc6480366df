// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes analysis reports and console logs to disk.
//
// # Key Types
//
//   - Document: The report or log text plus the run it belongs to
//   - Exporter: Converts a Document into file content
//   - Options: Output directory and post-export behaviour
//
// # Supported Formats
//
//   - Text report: header, report body, footer
//   - HTML report: the report body rendered as sanitized HTML
//   - Log export: the console as plain text
//
// # Usage
//
//	doc := export.Document{Kind: export.KindReport, Company: "贵州茅台", Code: "sh.600519", Body: report}
//	path, err := export.ExportToFile(doc, export.NewTextReportExporter(), opts)
package export
