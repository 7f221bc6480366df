// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the stockdesk TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Focused inputs, the submit button, running state
  - Cyan - Brand color and key hints
  - Emerald - Success lines and the connected state
  - Amber - Warnings, connecting state, busy button
  - Rose - Errors and the disconnected state
  - Sky - Informational lines

Console severities map onto colors and ASCII markers so a line stays
readable on monochrome terminals:

	styles.RenderSeverity(protocol.SeverityWarning, "Connection lost")
	// "[!] Connection lost" in amber

# Theme System (theme.go)

	theme := styles.NewThemeNamed(cfg.UI.Theme)
	theme.SetSize(width, height)
	switch theme.GetLayoutMode() {
	case styles.LayoutNarrow:
		// stack the form fields
	}
*/
package styles
