// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable views of the stockdesk TUI.

# Display Components

Header (header.go) - Title bar with the backend endpoint.
StatusBar (statusbar.go) - Connection state, reconnect attempts, console
size, report and auto-scroll indicators and key hints.

# Feedback

ToastManager (toast.go) - Short-lived notices such as "Report saved" or a
config reload, shown in the corner and dismissed on a tick.

# Usage

	bar := components.NewStatusBar(theme)
	bar.SetWidth(width)
	bar.SetSnapshot(ctrl.Snapshot())
	bar.AutoScroll = autoScroll
	view := bar.View()
*/
package components
