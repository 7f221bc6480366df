// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTable is returned by a full renderer that left table rows unconverted.
var ErrNoTable = errors.New("table rows were not rendered as a table")

// Strategy renders text into one markup target.
type Strategy interface {
	Name() string
	Render(text string) (string, error)
}

// StrategyFunc adapts a plain function into a Strategy.
type StrategyFunc struct {
	Label string
	Fn    func(text string) (string, error)
}

// Name returns the strategy label.
func (s StrategyFunc) Name() string { return s.Label }

// Render calls the wrapped function.
func (s StrategyFunc) Render(text string) (string, error) { return s.Fn(text) }

// Chain tries each strategy in order and returns the first successful output.
type Chain struct {
	strategies []Strategy
	// last is applied when every strategy fails.
	last func(text string) string

	// OnFallback, if set, is called each time a strategy is skipped.
	OnFallback func(strategy string, err error)
}

// NewChain builds a chain. last must never fail.
func NewChain(last func(text string) string, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, last: last}
}

// Render returns the output of the first strategy that succeeds.
func (c *Chain) Render(text string) string {
	for _, s := range c.strategies {
		out, err := safeRender(s, text)
		if err == nil {
			return out
		}
		if c.OnFallback != nil {
			c.OnFallback(s.Name(), err)
		}
	}
	return c.last(text)
}

// Strategies returns the strategy names in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// safeRender converts a panicking renderer into an error.
func safeRender(s Strategy, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Render(text)
}

// padRow extends row to n cells.
func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// spaceTables puts a blank line between table rows and adjacent prose so
// Markdown parsers see the table as its own block.
func spaceTables(text string) string {
	lines := strings.Split(text, "\n")
	marks := tableLines(trimmedLines(text))
	out := make([]string, 0, len(lines)+4)
	prevTable := false
	prevBlank := true
	for i, line := range lines {
		isTable := marks[i]
		blank := strings.TrimSpace(line) == ""
		if !blank && !prevBlank && isTable != prevTable {
			out = append(out, "")
		}
		out = append(out, line)
		prevTable = isTable
		prevBlank = blank
	}
	return strings.Join(out, "\n")
}
