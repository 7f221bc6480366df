// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// FENCED CODE
// =============================================================================

// codeFence collects the lines of an open ``` block.
type codeFence struct {
	lang  string
	lines []string
}

func (f *codeFence) render() string {
	return strings.TrimRight(highlightCode(strings.Join(f.lines, "\n"), f.lang), "\n")
}

// source returns the fence unrendered, for blocks that never closed.
func (f *codeFence) source() []string {
	return append([]string{"```" + f.lang}, f.lines...)
}

// openFence reports whether line opens a fenced block and returns its
// info string.
func openFence(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "```")), true
}

func isFence(line string) bool {
	return strings.TrimSpace(line) == "```"
}

// highlightCode colours code for a 256-colour terminal. The lexer comes from
// the fence language, else content analysis, else plain text.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
