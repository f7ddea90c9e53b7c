// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// =============================================================================
// SEARCH RESULTS
// =============================================================================

// RenderSearchResult renders one retrieval hit as a card.
func RenderSearchResult(theme *styles.Theme, r api.SearchResult, index, width int) string {
	title := fmt.Sprintf("#%d", index+1)
	if r.ID != "" {
		title += " " + r.ID
	}
	score := theme.Score.Render(fmt.Sprintf("%s %.1f%%",
		styles.RenderProgressBar(10, r.Similarity), r.Similarity*100))

	lines := []string{theme.ResultTitle.Render(title) + "  " + score}
	if r.Namespace != "" {
		lines = append(lines, theme.Muted.Render("namespace: "+r.Namespace))
	}
	lines = append(lines, r.Content)
	if len(r.Metadata) > 0 {
		if meta, err := json.Marshal(r.Metadata); err == nil {
			lines = append(lines, theme.Muted.Render("metadata: "+string(meta)))
		}
	}

	return theme.ResultCard.Width(max(width-2, 10)).Render(strings.Join(lines, "\n"))
}

// RenderSearchResults renders every result, or a placeholder when empty.
func RenderSearchResults(theme *styles.Theme, results []api.SearchResult, width int) string {
	if len(results) == 0 {
		return theme.Hint.Render("No results.")
	}
	cards := make([]string, 0, len(results))
	for i, r := range results {
		cards = append(cards, RenderSearchResult(theme, r, i, width))
	}
	return strings.Join(cards, "\n")
}
