// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the casefile panel.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values so they follow the terminal
background. The accents mirror the case file look:

  - Magenta - Badge, focused fields, first track
  - Cyan - Speed readout, second track
  - Purple - Borders, third track
  - Emerald / Rose - Granted and failed attempts
  - Amber - Lock countdown

Every status color is paired with an ASCII indicator ([OK], [X], [!], [i],
[#]) so meaning never depends on color alone.

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
		// stack the track buttons
	}

"dark" and "light" force the background; "auto" asks the terminal.

# Animation System (animations.go)

LockSpinner and EqualizerSpinner convert to bubbles spinners via Spinner().
RenderProgressBar draws the ASCII bar used for the lock countdown.
*/
package styles
