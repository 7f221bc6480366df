// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
	"github.com/jeranaias/stockdesk-tui/internal/util"
)

var (
	// ErrConnectFailed is returned when the server stays unreachable after
	// every automatic reconnect.
	ErrConnectFailed = errors.New("could not connect to the analysis server")
	// ErrRunInterrupted is returned when the connection drops mid-analysis.
	ErrRunInterrupted = errors.New("connection lost before the analysis completed")
)

// runOptions are the flags of the run command.
type runOptions struct {
	Company    string
	Code       string
	Template   string
	OutputDir  string
	HTML       bool
	Open       bool
	NoDownload bool
	Timeout    time.Duration
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one analysis without the desk and save the report",
		Long: `Connects, submits one analysis and streams the agent log to stdout.
When the server reports completion the final report is saved to the output
directory.

Examples:
  stockdesk run --company 贵州茅台 --code sh.600519
  stockdesk run --template 茅台 --html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd.Context(), flags, *opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Company, "company", "", "company name")
	f.StringVar(&opts.Code, "code", "", "stock code, e.g. sh.600519")
	f.StringVarP(&opts.Template, "template", "t", "", "fill company and code from a template")
	f.StringVarP(&opts.OutputDir, "output", "o", "", "directory for the report (overrides report.output_dir)")
	f.BoolVar(&opts.HTML, "html", false, "also write an HTML report")
	f.BoolVar(&opts.Open, "open", false, "open the report when saved")
	f.BoolVar(&opts.NoDownload, "no-download", false, "stream the log only; do not save the report")
	f.DurationVar(&opts.Timeout, "timeout", 0, "give up after this long (0 waits indefinitely)")
	return cmd
}

// runHeadless builds a runtime and drives one analysis until completion,
// interrupt or timeout.
func runHeadless(ctx context.Context, flags *globalFlags, opts runOptions, stdout, stderr io.Writer) error {
	if opts.Template == "" && (strings.TrimSpace(opts.Company) == "" || strings.TrimSpace(opts.Code) == "") {
		return errors.New("--company and --code are required unless --template is given")
	}

	cfg, err := loadConfig(flags, stderr)
	if err != nil {
		return err
	}
	applyColorProfile()

	rt, err := newRuntime(cfg, runtimeOptions{
		Style:     markdownStyle(cfg.UI.Theme),
		WordWrap:  GetTerminalWidth() - entryIndent,
		Stderr:    flags.verbose,
		OutputDir: opts.OutputDir,
		HTML:      opts.HTML,
		Open:      opts.Open,
	})
	if err != nil {
		return err
	}
	defer rt.close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rt.ctrl.Start(ctx)

	finished := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(finished)
		// Saved paths are echoed from the console.
		_, err := driveRun(gctx, rt.ctrl, stdout, opts)
		return err
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			// Interrupt or timeout: close the socket cleanly right away.
			return rt.ctrl.Close()
		case <-finished:
			return nil
		}
	})
	err = g.Wait()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("analysis timed out after %s", opts.Timeout)
	case errors.Is(err, context.Canceled):
		return errors.New("interrupted")
	}
	return err
}

// =============================================================================
// RUN DRIVER
// =============================================================================

// runSession is the part of session.Controller a headless run drives.
type runSession interface {
	Snapshot() session.Snapshot
	Updates() <-chan struct{}
	Done() <-chan struct{}
	Logbook() *console.Logbook
	Connect() error
	Execute(company, code string) (session.Run, error)
	LoadTemplate(key string) (templates.Template, error)
	DownloadReport() (export.ReportPaths, error)
}

type runPhase int

const (
	phaseConnecting runPhase = iota
	phaseRunning
	phaseDone
)

// driveRun connects, submits once and waits for the run to end, echoing new
// console entries to out. It returns the saved report paths, which are empty
// when no report arrived or NoDownload is set.
func driveRun(ctx context.Context, sess runSession, out io.Writer, opts runOptions) (export.ReportPaths, error) {
	company, code := opts.Company, opts.Code
	if opts.Template != "" {
		t, err := sess.LoadTemplate(opts.Template)
		if err != nil {
			return export.ReportPaths{}, err
		}
		if strings.TrimSpace(company) == "" {
			company = t.Company
		}
		if strings.TrimSpace(code) == "" {
			code = t.Code
		}
	}

	if err := sess.Connect(); err != nil {
		return export.ReportPaths{}, err
	}

	echo := &entryPrinter{book: sess.Logbook(), out: out}
	defer echo.flush()

	phase := phaseConnecting
	for phase != phaseDone {
		echo.flush()
		snap := sess.Snapshot()

		switch phase {
		case phaseConnecting:
			if snap.State.Open() {
				if _, err := sess.Execute(company, code); err != nil {
					return export.ReportPaths{}, err
				}
				phase = phaseRunning
				continue
			}
			if snap.State == session.Disconnected && !snap.RetryPending {
				return export.ReportPaths{}, ErrConnectFailed
			}

		case phaseRunning:
			switch snap.State {
			case session.Connected:
				phase = phaseDone
				continue
			case session.Disconnected, session.Connecting:
				return export.ReportPaths{}, ErrRunInterrupted
			}
		}

		select {
		case <-ctx.Done():
			return export.ReportPaths{}, ctx.Err()
		case <-sess.Done():
			return export.ReportPaths{}, session.ErrClosed
		case <-sess.Updates():
		}
	}

	if opts.NoDownload {
		return export.ReportPaths{}, nil
	}
	// A run without a report is not an error; the console says so.
	paths, err := sess.DownloadReport()
	if errors.Is(err, session.ErrNoReport) {
		return export.ReportPaths{}, nil
	}
	return paths, err
}

// =============================================================================
// ENTRY OUTPUT
// =============================================================================

// entryIndent is the width of the "[15:04:05] [OK] " prefix.
const entryIndent = 16

// entryPrinter writes logbook entries it has not written yet.
type entryPrinter struct {
	book *console.Logbook
	out  io.Writer
	last uint64
}

func (p *entryPrinter) flush() {
	for _, e := range p.book.Rendered() {
		if e.Seq <= p.last {
			continue
		}
		fmt.Fprintln(p.out, formatEntry(e))
		p.last = e.Seq
	}
}

// formatEntry renders "[time] marker body" with continuation lines aligned
// under the body.
func formatEntry(e console.RenderedEntry) string {
	stamp := "[" + e.Timestamp + "]"
	marker := styles.SeverityIndicator(e.Severity)
	styled := lipgloss.NewStyle().Foreground(styles.SeverityColor(e.Severity)).Bold(true).Render(marker)

	body := strings.TrimRight(e.Body, "\n")
	indent := strings.Repeat(" ", util.StringWidth(stamp)+1+util.StringWidth(marker)+1)
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return stamp + " " + styled + " " + strings.Join(lines, "\n")
}
