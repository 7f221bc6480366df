// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package desk is the interactive analysis desk: a company and stock code
// form, the streaming agent log and a status bar, built on Bubble Tea.
//
// The model never changes session state itself. Key presses become commands
// that call the session.Controller, and the controller's update signal is
// turned into SessionUpdateMsg so the view re-reads the snapshot and the
// logbook.
//
// # Usage
//
//	m := desk.New(desk.Options{
//		Session:    ctrl,
//		Theme:      styles.NewThemeNamed(cfg.UI.Theme),
//		Renderer:   renderer,
//		AutoScroll: cfg.UI.AutoScroll,
//	})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package desk
