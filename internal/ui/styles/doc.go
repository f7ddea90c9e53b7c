// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the mpcchat TUI.

All colors use Lip Gloss AdaptiveColor so they follow the terminal's light or
dark background. The background can be forced with the ui.theme setting.

# Color System (colors.go)

  - Purple - Primary accent, assistant messages and the active tab
  - Cyan - Brand color, info toasts and user highlights
  - Emerald - Success states
  - Amber - Warnings and cost figures
  - Rose - Errors

Every status color is paired with an ASCII indicator from StatusIndicators
([OK], [X], [!], [i]) so that meaning does not depend on color.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	bubble := theme.BotBubble.Width(theme.BubbleWidth()).Render(text)

# Animation System (animations.go)

SpinnerConfig values convert to bubbles spinners:

	s := spinner.New(spinner.WithSpinner(styles.DotsSpinner.Bubbles()))

RenderProgressBar draws the similarity bars of search results.
*/
package styles
