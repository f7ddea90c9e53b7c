// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mpcchat/internal/model"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message  model.Message
	Width    int
	ShowCost bool
	markdown *MarkdownRenderer
	theme    *styles.Theme
}

// NewMessageBubble creates a bubble for msg. A nil markdown renderer shows
// bot replies as plain text.
func NewMessageBubble(msg model.Message, theme *styles.Theme, md *MarkdownRenderer) *MessageBubble {
	return &MessageBubble{
		Message:  msg,
		Width:    80,
		ShowCost: true,
		markdown: md,
		theme:    theme,
	}
}

// View renders the bubble aligned left for bot replies and right for the user.
func (b *MessageBubble) View() string {
	t := b.theme
	bubbleWidth := t.BubbleWidth()
	if bubbleWidth > b.Width || bubbleWidth <= 0 {
		bubbleWidth = b.Width
	}
	// Border and padding take four columns.
	textWidth := max(bubbleWidth-4, 10)

	header := t.BubbleLabel.Render(b.Message.Type.DisplayName()) + " " + t.Timestamp.Render(b.Message.ShortTime())

	var body []string
	if b.Message.IsUser() {
		if b.Message.Text != "" {
			body = append(body, b.Message.Text)
		}
		if b.Message.AttachmentName != "" {
			body = append(body, t.MetaLine.Render("[audio] "+b.Message.AttachmentName))
		}
	} else {
		if b.Message.Transcription != "" {
			body = append(body, t.MetaLine.Render("Transcription: "+b.Message.Transcription))
		}
		text := b.Message.Text
		if b.markdown != nil {
			text = b.markdown.Render(text, textWidth)
		}
		body = append(body, text)
		if meta := b.metaLine(); meta != "" {
			body = append(body, t.MetaLine.Render(meta))
		}
		if b.ShowCost && b.Message.CostAnalysis != nil {
			body = append(body, t.CostLine.Render("Cost: "+b.Message.CostAnalysis.Summary()))
		}
	}

	style := t.BotBubble
	align := lipgloss.Left
	if b.Message.IsUser() {
		style = t.UserBubble
		align = lipgloss.Right
	}
	bubble := style.Width(bubbleWidth).Render(strings.Join(body, "\n"))

	return lipgloss.PlaceHorizontal(b.Width, align,
		lipgloss.JoinVertical(align, header, bubble))
}

func (b *MessageBubble) metaLine() string {
	var parts []string
	if b.Message.Model != "" {
		parts = append(parts, "Model: "+b.Message.Model)
	}
	if c := b.Message.ConfidencePercent(); c != "" {
		parts = append(parts, "Confidence: "+c)
	}
	if b.Message.HasAudio() {
		parts = append(parts, "[audio] reply available")
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders a whole transcript.
type MessageList struct {
	Width    int
	ShowCost bool
	markdown *MarkdownRenderer
	theme    *styles.Theme
}

// NewMessageList creates a list renderer.
func NewMessageList(theme *styles.Theme, md *MarkdownRenderer) *MessageList {
	return &MessageList{Width: 80, ShowCost: true, markdown: md, theme: theme}
}

// SetWidth sets the list width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders messages separated by blank lines, or a welcome hint when
// the transcript is empty.
func (ml *MessageList) View(messages []model.Message) string {
	if len(messages) == 0 {
		return ml.emptyView()
	}

	rendered := make([]string, 0, len(messages))
	for _, msg := range messages {
		b := NewMessageBubble(msg, ml.theme, ml.markdown)
		b.Width = ml.Width
		b.ShowCost = ml.ShowCost
		rendered = append(rendered, b.View())
	}
	return strings.Join(rendered, "\n\n")
}

func (ml *MessageList) emptyView() string {
	t := ml.theme
	lines := []string{
		t.HeaderTitle.Render("Start a conversation"),
		"",
		t.Hint.Render("Type a message and press Enter to send."),
		t.Hint.Render(fmt.Sprintf("Press %s to attach an audio file instead.", "ctrl+o")),
	}
	return lipgloss.Place(ml.Width, 6, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}
