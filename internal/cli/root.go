// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
)

// Version information, set by main at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags every command sees.
type globalFlags struct {
	configPath string
	url        string
	logLevel   string
	verbose    bool
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the stockdesk command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "stockdesk",
		Short: "Terminal client for a multi-agent stock analysis server",
		Long: `stockdesk connects to a multi-agent stock analysis server over WebSocket,
submits a company name and stock code, streams the agents' progress into a
console and captures the final report for download.

Run without arguments to start the interactive desk.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default ~/.stockdesk/config.toml)")
	pf.StringVar(&flags.url, "url", "", "backend WebSocket URL, overrides server.url")
	pf.StringVar(&flags.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "also write diagnostics to stderr (headless commands)")

	root.AddCommand(
		newRunCommand(flags),
		newTemplatesCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError("Error: "+err.Error()))
		return 1
	}
	return 0
}
