// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the stockdesk command line.
//
// # Commands
//
//   - stockdesk: the interactive analysis desk (Bubble Tea)
//   - run: one headless analysis streamed to stdout, report saved on completion
//   - templates: list built-in and configured quick-fill templates
//   - config show|path|init|get|set|keys: configuration management
//   - version: build information
//
// Every command loads the configuration the same way: the file named by
// --config or the default location, STOCKDESK_* environment overrides, then
// the --url and --log-level flags.
//
// # Usage
//
//	os.Exit(cli.Execute())
package cli
