// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup converts streamed Markdown log messages into display markup.
//
// Two targets are supported: sanitized HTML (goldmark + bluemonday) for file
// exports, and ANSI terminal output (glamour) for the console. Each target is
// a Chain of strategies tried in order. The full Markdown renderer goes first;
// when it errors, panics, or leaves pipe-delimited rows unconverted, the line
// scanner in blocks.go takes over and formats tables itself.
//
// # Usage
//
//	out := markup.HTML().Render("| a | b |\n|---|---|\n| 1 | 2 |")
//
//	term := markup.NewTerminal(markup.TerminalOptions{Style: "dark", WordWrap: 100})
//	fmt.Println(term.Render(msg))
package markup
