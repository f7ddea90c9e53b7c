// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/export"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat screen.
type Options struct {
	// ShowCost adds the cost line under bot replies.
	ShowCost bool
	// AudioDir is where saved audio replies are written.
	AudioDir string
	// Markdown renders bot replies; nil shows plain text.
	Markdown *components.MarkdownRenderer
	Logger   *zap.Logger
}

// promptKind identifies the single-line prompt shown above the input.
type promptKind int

const (
	promptNone promptKind = iota
	promptAttach
	promptExport
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	session *chatsession.Session
	opts    Options
	keys    KeyMap
	theme   *styles.Theme
	logger  *zap.Logger

	// Dimensions
	width  int
	height int

	// Widgets
	viewport viewport.Model
	input    textarea.Model
	prompt   textinput.Model
	spinner  spinner.Model
	messages *components.MessageList

	promptKind promptKind

	// sendingAudio is set while a send carrying an attachment is in flight.
	sendingAudio bool

	// cancel aborts the send in flight, nil when idle.
	cancel context.CancelFunc
}

// New creates the chat screen for session.
func New(session *chatsession.Session, theme *styles.Theme, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = ""

	sp := spinner.New(spinner.WithSpinner(styles.DotsSpinner.Bubbles()))
	sp.Style = theme.Warning

	ml := components.NewMessageList(theme, opts.Markdown)
	ml.ShowCost = opts.ShowCost

	return Model{
		session:  session,
		opts:     opts,
		keys:     keys,
		theme:    theme,
		logger:   logger.Named("ui.chat"),
		viewport: viewport.New(80, 20),
		input:    ta,
		prompt:   ti,
		spinner:  sp,
		messages: ml,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// SetSize resizes the screen to width x height.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.input.SetWidth(max(width-4, 10))
	m.prompt.Width = max(width-30, 10)
	m.messages.SetWidth(max(width-2, 10))

	m.viewport.Width = width
	m.viewport.Height = max(height-m.chromeHeight(), 3)
	m.refresh(false)
}

// chromeHeight is the number of rows below the viewport.
func (m Model) chromeHeight() int {
	// input box with border, plus the attachment/prompt line
	return m.input.Height() + 2 + 1
}

// Focus gives keyboard focus to the input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.input.Blur()
	m.prompt.Blur()
}

// Busy returns the status label of the request in flight, or "".
func (m Model) Busy() string {
	switch {
	case m.session.SendState().IsBusy():
		if m.sendingAudio {
			return "Uploading audio"
		}
		return "Sending"
	case m.session.ClearState().IsBusy():
		return "Clearing memory"
	}
	return ""
}

// CapturesInput reports whether a prompt is open, so the root model must
// not treat keys as global shortcuts.
func (m Model) CapturesInput() bool {
	return m.promptKind != promptNone
}

// Hints returns the status bar key hints.
func (m Model) Hints() []components.KeyHint {
	return m.keys.Hints()
}

// Session returns the chat session backing the screen.
func (m Model) Session() *chatsession.Session {
	return m.session
}

// refresh re-renders the transcript into the viewport. Scrolls to the
// bottom when follow is set or the view was already there.
func (m *Model) refresh(follow bool) {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.messages.View(m.session.Transcript().Messages()))
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) exportOptions() *export.Options {
	opts := export.DefaultOptions()
	opts.IncludeCost = m.opts.ShowCost
	return opts
}
