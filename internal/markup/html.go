// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// =============================================================================
// HTML TARGET
// =============================================================================

var (
	htmlPolicy = sync.OnceValue(func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("table", "div", "span")
		return p
	})
	htmlChain = sync.OnceValue(func() *Chain {
		return NewChain(escapeWithBreaks, GoldmarkHTML(), FallbackHTML())
	})
)

// HTML returns the shared HTML chain: goldmark first, then the line scanner.
func HTML() *Chain {
	return htmlChain()
}

// RenderHTML renders text with the shared HTML chain.
func RenderHTML(text string) string {
	return HTML().Render(text)
}

// GoldmarkHTML renders GitHub-flavoured Markdown with hard line breaks and
// sanitizes the result. It fails with ErrNoTable when text carries pipe rows
// that did not come out as a <table>.
func GoldmarkHTML() Strategy {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	return StrategyFunc{
		Label: "goldmark",
		Fn: func(text string) (string, error) {
			var buf bytes.Buffer
			if err := md.Convert([]byte(spaceTables(text)), &buf); err != nil {
				return "", err
			}
			out := sanitize(buf.String())
			if HasTableRows(text) && !strings.Contains(out, "<table") {
				return "", ErrNoTable
			}
			return out, nil
		},
	}
}

// FallbackHTML formats tables with the line scanner and turns remaining line
// breaks into <br>.
func FallbackHTML() Strategy {
	return StrategyFunc{
		Label: "table-fallback",
		Fn: func(text string) (string, error) {
			return sanitize(blocksToHTML(ParseBlocks(text))), nil
		},
	}
}

func blocksToHTML(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if !b.IsTable() {
			sb.WriteString(html.EscapeString(b.Text))
			if i < len(blocks)-1 {
				sb.WriteString("<br>")
			}
			continue
		}
		t := b.Table
		cols := t.Columns()
		sb.WriteString(`<table class="markdown-table">`)
		writeHTMLRow(&sb, "th", padRow(t.Header, cols))
		for _, row := range t.Rows {
			writeHTMLRow(&sb, "td", padRow(row, cols))
		}
		sb.WriteString("</table>")
	}
	return sb.String()
}

func writeHTMLRow(sb *strings.Builder, tag string, cells []string) {
	sb.WriteString("<tr>")
	for _, c := range cells {
		sb.WriteString("<" + tag + ">")
		sb.WriteString(html.EscapeString(c))
		sb.WriteString("</" + tag + ">")
	}
	sb.WriteString("</tr>")
}

func escapeWithBreaks(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

func sanitize(s string) string {
	return htmlPolicy().Sanitize(s)
}
