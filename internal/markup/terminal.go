// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// =============================================================================
// TERMINAL TARGET
// =============================================================================

// TerminalOptions configures terminal rendering.
type TerminalOptions struct {
	// Style is a glamour standard style: "auto", "dark", "light", "notty", "ascii".
	// Default: "auto"
	Style string

	// WordWrap is the wrap width in columns. Default: 100
	WordWrap int
}

// Terminal renders Markdown to ANSI text for the console.
type Terminal struct {
	mu    sync.Mutex
	opts  TerminalOptions
	chain *Chain
}

// NewTerminal creates a terminal renderer. When glamour cannot be initialized
// the chain falls straight through to the line scanner.
func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Style == "" {
		opts.Style = "auto"
	}
	if opts.WordWrap <= 0 {
		opts.WordWrap = 100
	}
	t := &Terminal{opts: opts}
	t.chain = t.build()
	return t
}

// Options returns the active options.
func (t *Terminal) Options() TerminalOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts
}

// SetWordWrap rebuilds the renderer for a new width.
func (t *Terminal) SetWordWrap(width int) {
	if width <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if width == t.opts.WordWrap {
		return
	}
	t.opts.WordWrap = width
	t.chain = t.build()
}

// Render converts text to terminal output. It never fails.
func (t *Terminal) Render(text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chain.Render(text)
}

func (t *Terminal) build() *Chain {
	var strategies []Strategy
	if s, err := GlamourANSI(t.opts); err == nil {
		strategies = append(strategies, s)
	}
	plain := t.opts.Style == "notty" || t.opts.Style == "ascii"
	strategies = append(strategies, FallbackANSI(!plain))
	return NewChain(func(s string) string { return s }, strategies...)
}

// GlamourANSI renders with glamour. Text with pipe rows that goldmark does not
// parse into a table node is rejected with ErrNoTable.
func GlamourANSI(opts TerminalOptions) (Strategy, error) {
	styleOpt := glamour.WithStandardStyle(opts.Style)
	if opts.Style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.WordWrap))
	if err != nil {
		return nil, err
	}
	return StrategyFunc{
		Label: "glamour",
		Fn: func(src string) (string, error) {
			spaced := spaceTables(src)
			if HasTableRows(src) && !containsTable(spaced) {
				return "", ErrNoTable
			}
			out, err := r.Render(spaced)
			if err != nil {
				return "", err
			}
			return strings.Trim(out, "\n"), nil
		},
	}, nil
}

// FallbackANSI prints plain lines as-is and tables through lipgloss. With
// highlight set, fenced code blocks are coloured by chroma.
func FallbackANSI(highlight bool) Strategy {
	return StrategyFunc{
		Label: "table-fallback",
		Fn: func(src string) (string, error) {
			return blocksToANSI(ParseBlocks(src), highlight), nil
		},
	}
}

func blocksToANSI(blocks []Block, highlight bool) string {
	parts := make([]string, 0, len(blocks))
	var fence *codeFence
	for _, b := range blocks {
		if !b.IsTable() {
			if !highlight {
				parts = append(parts, b.Text)
				continue
			}
			if fence == nil {
				if lang, ok := openFence(b.Text); ok {
					fence = &codeFence{lang: lang}
					continue
				}
				parts = append(parts, b.Text)
				continue
			}
			if isFence(b.Text) {
				parts = append(parts, fence.render())
				fence = nil
				continue
			}
			fence.lines = append(fence.lines, b.Text)
			continue
		}
		if fence != nil {
			parts = append(parts, fence.source()...)
			fence = nil
		}
		cols := b.Table.Columns()
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(padRow(b.Table.Header, cols)...)
		for _, row := range b.Table.Rows {
			tbl.Row(padRow(row, cols)...)
		}
		parts = append(parts, tbl.String())
	}
	if fence != nil {
		parts = append(parts, fence.source()...)
	}
	return strings.Join(parts, "\n")
}

var tableParser = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
})

// containsTable parses src as GFM and reports whether a table node exists.
func containsTable(src string) bool {
	source := []byte(src)
	doc := tableParser().Parser().Parse(text.NewReader(source))
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == extast.KindTable {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
