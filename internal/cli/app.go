// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/stockdesk-tui/internal/config"
	"github.com/jeranaias/stockdesk-tui/internal/console"
	"github.com/jeranaias/stockdesk-tui/internal/export"
	"github.com/jeranaias/stockdesk-tui/internal/logging"
	"github.com/jeranaias/stockdesk-tui/internal/markup"
	"github.com/jeranaias/stockdesk-tui/internal/session"
	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/transport"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig loads the file named by --config, or the default locations.
// An unreadable default-location file is a warning; the defaults are used.
func loadConfig(flags *globalFlags, stderr io.Writer) (*config.Config, error) {
	var cfg *config.Config
	if flags.configPath != "" {
		c, err := config.LoadFromPath(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c, err := config.Load()
		if c == nil {
			return nil, err
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
		}
		cfg = c
	}

	if flags.url != "" {
		cfg.Server.URL = flags.url
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// resolveConfigPath returns the file --config names, or the default TOML path.
func (f *globalFlags) resolveConfigPath() (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// RUNTIME
// =============================================================================

// runtime is everything one session needs, built from a config.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	renderer *markup.Terminal
	ctrl     *session.Controller
}

// runtimeOptions adjusts a runtime for the command building it.
type runtimeOptions struct {
	// Style is the glamour style for console Markdown.
	Style string
	// WordWrap is the initial Markdown wrap width.
	WordWrap int
	// Stderr mirrors diagnostics to standard error.
	Stderr bool
	// OutputDir overrides report.output_dir when set.
	OutputDir string
	// HTML forces an HTML report next to the text one.
	HTML bool
	// Open opens each saved report.
	Open bool
}

// newRuntime wires logging, rendering, the logbook, the exporters and the
// session controller. The controller is not started.
func newRuntime(cfg *config.Config, opts runtimeOptions) (*runtime, error) {
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Path:   logPath,
		Stderr: opts.Stderr,
	})
	if err != nil {
		return nil, err
	}

	renderer := markup.NewTerminal(markup.TerminalOptions{
		Style:    opts.Style,
		WordWrap: opts.WordWrap,
	})
	book := console.NewLogbook(console.Options{
		Renderer:     renderer,
		ReportMarker: cfg.Report.Marker,
	})

	loader := templates.NewLoader()
	if err := loader.SetExtras(cfg.ExtraTemplates()); err != nil {
		logger.Warn("ignoring invalid templates", zap.Error(err))
	}

	outputDir := cfg.Report.OutputDir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	writer := export.NewWriter(export.WriterOptions{
		Options: export.Options{
			OutputDir:       outputDir,
			OpenAfterExport: opts.Open,
		},
		HTML: cfg.Report.HTML || opts.HTML,
	})

	ctrl := session.NewController(session.Options{
		URL: cfg.Server.URL,
		Dialer: &transport.WebSocketDialer{
			HandshakeTimeout: cfg.Server.HandshakeTimeout(),
			Logger:           logger,
		},
		Policy: session.ReconnectPolicy{
			MaxAttempts: cfg.Reconnect.MaxAttempts,
			Delay:       cfg.Reconnect.Delay(),
			Disabled:    cfg.Reconnect.MaxAttempts == 0,
		},
		Logbook:   book,
		Writer:    writer,
		Templates: loader,
		Logger:    logger,
	})

	logger.Info("session configured",
		zap.String("url", cfg.Server.URL),
		zap.Int("max_reconnects", cfg.Reconnect.MaxAttempts),
		zap.String("output_dir", outputDir),
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		renderer: renderer,
		ctrl:     ctrl,
	}, nil
}

// close stops the controller and flushes the log.
func (r *runtime) close() {
	_ = r.ctrl.Close()
	_ = r.logger.Sync()
}
