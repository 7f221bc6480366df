// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import "strings"

// =============================================================================
// LINE SCANNER
// =============================================================================

// Table is a run of consecutive pipe-delimited rows. The first row of a run
// is always the header: it is either the first line of the text or follows a
// non-table line.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns returns the widest row length in the table.
func (t *Table) Columns() int {
	n := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Block is either a plain text line or a table.
type Block struct {
	Text  string
	Table *Table
}

// IsTable reports whether the block holds a table.
func (b Block) IsTable() bool {
	return b.Table != nil
}

// ParseBlocks splits text into plain lines and tables. Separator rows made of
// dashes and colons are skipped. Plain lines are trimmed and kept one block
// per line so callers can re-join them with their own line break.
func ParseBlocks(text string) []Block {
	lines := trimmedLines(text)
	marks := tableLines(lines)
	var blocks []Block
	var current *Table

	flush := func() {
		if current != nil {
			blocks = append(blocks, Block{Table: current})
			current = nil
		}
	}

	for i, line := range lines {
		if !marks[i] {
			flush()
			blocks = append(blocks, Block{Text: line})
			continue
		}

		cells := splitRow(line)
		if isSeparatorRow(cells) {
			continue
		}
		if current == nil {
			current = &Table{Header: cells}
			continue
		}
		current.Rows = append(current.Rows, cells)
	}
	flush()
	return blocks
}

// HasTableRows reports whether any line of text belongs to a table.
func HasTableRows(text string) bool {
	for _, t := range tableLines(trimmedLines(text)) {
		if t {
			return true
		}
	}
	return false
}

func trimmedLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// tableLines marks the trimmed lines that belong to a table. A run of
// consecutive lines containing pipes is a table when one of them has outer
// pipes, or when the run has at least two lines and holds a separator row.
// Any other run, such as "PE | 25", is prose.
func tableLines(lines []string) []bool {
	marks := make([]bool, len(lines))
	for i := 0; i < len(lines); {
		if !hasPipe(lines[i]) {
			i++
			continue
		}
		j := i
		bordered, separated := false, false
		for ; j < len(lines) && hasPipe(lines[j]); j++ {
			if isBordered(lines[j]) {
				bordered = true
			}
			if isSeparatorRow(splitRow(lines[j])) {
				separated = true
			}
		}
		if bordered || (separated && j-i >= 2) {
			for k := i; k < j; k++ {
				marks[k] = true
			}
		}
		i = j
	}
	return marks
}

func hasPipe(line string) bool {
	return strings.Contains(line, "|")
}

func isBordered(line string) bool {
	return len(line) >= 2 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// splitRow drops one leading and one trailing pipe, then splits on the rest.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if c == "" || !strings.Contains(c, "-") {
			return false
		}
		if strings.Trim(c, "-:") != "" {
			return false
		}
	}
	return true
}
