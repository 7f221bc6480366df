// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/stockdesk-tui/internal/config"
	"github.com/jeranaias/stockdesk-tui/internal/ui/desk"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
)

// runTUI starts the interactive desk and blocks until it exits.
func runTUI(ctx context.Context, flags *globalFlags) error {
	if !IsTTY() || !IsStdoutTTY() {
		return fmt.Errorf("the desk needs a terminal; use 'stockdesk run' for headless analysis")
	}

	cfg, err := loadConfig(flags, os.Stderr)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, runtimeOptions{
		Style:    cfg.UI.Theme,
		WordWrap: cfg.UI.WordWrap,
	})
	if err != nil {
		return err
	}
	defer rt.close()

	if ctx == nil {
		ctx = context.Background()
	}
	rt.ctrl.Start(ctx)

	model := desk.New(desk.Options{
		Session:    rt.ctrl,
		Theme:      styles.NewThemeNamed(cfg.UI.Theme),
		Renderer:   rt.renderer,
		WordWrap:   cfg.UI.WordWrap,
		AutoScroll: cfg.UI.AutoScroll,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if w := startConfigWatcher(flags, rt.logger, func(c *config.Config) {
		config.SetGlobal(c)
		program.Send(desk.ConfigReloadedMsg{Config: c})
	}); w != nil {
		defer w.Close()
	}

	if _, err := program.Run(); err != nil && err != tea.ErrProgramKilled {
		return fmt.Errorf("desk: %w", err)
	}
	return nil
}

// startConfigWatcher watches the active config file. Failures are logged and
// the desk runs without live reload.
func startConfigWatcher(flags *globalFlags, logger *zap.Logger, onChange func(*config.Config)) *config.Watcher {
	path, err := flags.resolveConfigPath()
	if err != nil {
		logger.Warn("config reload disabled", zap.Error(err))
		return nil
	}
	w, err := config.NewWatcher(path, config.WatcherOptions{
		OnChange: onChange,
		OnError: func(err error) {
			logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
		},
	})
	if err != nil {
		logger.Warn("config reload disabled", zap.Error(err))
		return nil
	}
	if err := w.Start(); err != nil {
		_ = w.Close()
		logger.Warn("config reload disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return w
}
