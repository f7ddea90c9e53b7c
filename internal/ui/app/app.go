// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the root Bubble Tea model of the mpcchat TUI.
//
// The root owns the header, status bar and toast stack, switches between
// the Chat, RAG and Settings screens, and routes asynchronous results back
// to the screen that started them. The screens share one settings store.
package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	ragsvc "github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/ui/chat"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/ui/rag"
	"github.com/jeranaias/mpcchat/internal/ui/settings"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// Tab identifies a screen.
type Tab int

const (
	TabChat Tab = iota
	TabRag
	TabSettings
)

var tabNames = []string{"Chat", "RAG", "Settings"}

// String returns the tab title.
func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// HealthChecker probes the backend at startup.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*api.HealthStatus, error)
}

// HealthMsg carries the startup health probe result.
type HealthMsg struct {
	Status *api.HealthStatus
	Err    error
}

// Deps are the collaborators of the root model.
type Deps struct {
	Session    *chatsession.Session
	Manager    *ragsvc.Manager
	Health     HealthChecker
	BackendURL string
	Theme      *styles.Theme
	Chat       chat.Options
	Logger     *zap.Logger
}

// KeyMap defines the global bindings.
type KeyMap struct {
	Quit         key.Binding
	ChatTab      key.Binding
	RagTab       key.Binding
	SettingsTab  key.Binding
	NextTab      key.Binding
	DismissToast key.Binding
}

// DefaultKeyMap returns the default global bindings. They avoid printable
// keys so they never collide with text fields.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		ChatTab:      key.NewBinding(key.WithKeys("f1", "alt+1"), key.WithHelp("f1", "chat")),
		RagTab:       key.NewBinding(key.WithKeys("f2", "alt+2"), key.WithHelp("f2", "rag")),
		SettingsTab:  key.NewBinding(key.WithKeys("f3", "alt+3"), key.WithHelp("f3", "settings")),
		NextTab:      key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+right", "next tab")),
		DismissToast: key.NewBinding(key.WithKeys(components.DismissKey), key.WithHelp(components.DismissKey, "dismiss")),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	keys   KeyMap
	theme  *styles.Theme
	logger *zap.Logger

	width  int
	height int

	active   Tab
	chat     chat.Model
	rag      rag.Model
	settings settings.Model

	header    *components.Header
	statusBar *components.StatusBar
	toasts    *components.ToastManager
	ticking   bool
}

// New creates the root model.
func New(deps Deps) Model {
	theme := deps.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Chat.Logger == nil {
		deps.Chat.Logger = logger
	}

	header := components.NewHeader(theme, tabNames...)
	header.SetBackend(deps.BackendURL)

	m := Model{
		deps:      deps,
		keys:      DefaultKeyMap(),
		theme:     theme,
		logger:    logger.Named("ui"),
		chat:      chat.New(deps.Session, theme, deps.Chat),
		rag:       rag.New(deps.Manager, theme, logger),
		settings:  settings.New(deps.Session.Settings(), theme),
		header:    header,
		statusBar: components.NewStatusBar(theme),
		toasts:    components.NewToastManager(),
	}
	m.rag.Blur()
	m.settings.Blur()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.healthCmd())
}

func (m Model) healthCmd() tea.Cmd {
	if m.deps.Health == nil {
		return nil
	}
	checker := m.deps.Health
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		status, err := checker.HealthCheck(ctx)
		return HealthMsg{Status: status, Err: err}
	}
}

// Active returns the visible tab.
func (m Model) Active() Tab {
	return m.active
}

// Toasts returns the active toasts.
func (m Model) Toasts() []components.Toast {
	return m.toasts.Toasts()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.ToastMsg:
		m.toasts.Add(components.NewToast(msg.Kind, msg.Message))
		if m.ticking {
			return m, nil
		}
		m.ticking = true
		return m, components.ToastTickCmd()

	case components.ToastTickMsg:
		if m.toasts.Tick(msg.Time) {
			return m, components.ToastTickCmd()
		}
		m.ticking = false
		return m, nil

	case HealthMsg:
		return m, m.healthToast(msg)

	case spinner.TickMsg:
		// Spinner ticks carry the spinner ID, so each screen ignores the other's.
		var chatCmd, ragCmd tea.Cmd
		m.chat, chatCmd = updateChat(m.chat, msg)
		m.rag, ragCmd = updateRag(m.rag, msg)
		return m, tea.Batch(chatCmd, ragCmd)

	case chat.SendResultMsg, chat.ClearResultMsg, chat.AttachResultMsg, chat.AudioSavedMsg, chat.ExportedMsg, tea.MouseMsg:
		var cmd tea.Cmd
		m.chat, cmd = updateChat(m.chat, msg)
		return m, cmd

	case rag.SearchResultMsg, rag.IndexResultMsg, rag.FilesLoadedMsg:
		var cmd tea.Cmd
		m.rag, cmd = updateRag(m.rag, msg)
		return m, cmd
	}

	return m.updateActive(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.capturesInput() {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.ChatTab):
		return m, m.switchTo(TabChat)
	case key.Matches(msg, m.keys.RagTab):
		return m, m.switchTo(TabRag)
	case key.Matches(msg, m.keys.SettingsTab):
		return m, m.switchTo(TabSettings)
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTo((m.active + 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.DismissToast):
		m.toasts.DismissNewest()
		return m, nil
	}
	return m.updateActive(msg)
}

func (m Model) capturesInput() bool {
	switch m.active {
	case TabChat:
		return m.chat.CapturesInput()
	case TabRag:
		return m.rag.CapturesInput()
	}
	return false
}

// switchTo moves keyboard focus to tab.
func (m *Model) switchTo(tab Tab) tea.Cmd {
	if tab == m.active {
		return nil
	}
	m.chat.Blur()
	m.rag.Blur()
	m.settings.Blur()
	m.active = tab
	m.header.SetActive(int(tab))

	switch tab {
	case TabRag:
		return m.rag.Focus()
	case TabSettings:
		return m.settings.Focus()
	default:
		return m.chat.Focus()
	}
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.active {
	case TabRag:
		m.rag, cmd = updateRag(m.rag, msg)
	case TabSettings:
		var next tea.Model
		next, cmd = m.settings.Update(msg)
		m.settings = next.(settings.Model)
	default:
		m.chat, cmd = updateChat(m.chat, msg)
	}
	return m, cmd
}

func updateChat(c chat.Model, msg tea.Msg) (chat.Model, tea.Cmd) {
	next, cmd := c.Update(msg)
	return next.(chat.Model), cmd
}

func updateRag(r rag.Model, msg tea.Msg) (rag.Model, tea.Cmd) {
	next, cmd := r.Update(msg)
	return next.(rag.Model), cmd
}

func (m Model) healthToast(msg HealthMsg) tea.Cmd {
	switch {
	case msg.Err != nil:
		m.logger.Warn("health check failed", zap.String("backend", m.deps.BackendURL), zap.Error(msg.Err))
		return components.ShowToast(components.ToastKindWarning, "Backend unavailable: "+api.UserMessage(msg.Err))
	case !msg.Status.Healthy():
		return components.ShowToast(components.ToastKindWarning, "Backend reports status "+msg.Status.Status)
	}
	m.logger.Info("backend healthy", zap.String("backend", m.deps.BackendURL))
	return nil
}

// resize lays out the screens below the header and above the status bar.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)

	contentHeight := max(height-2, 5)
	m.chat.SetSize(width, contentHeight)
	m.rag.SetSize(width, contentHeight)
	m.settings.SetSize(width, contentHeight)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	var content string
	var hints []components.KeyHint
	switch m.active {
	case TabRag:
		content = m.rag.View()
		hints = m.rag.Hints()
	case TabSettings:
		content = m.settings.View()
		hints = m.settings.Hints()
	default:
		content = m.chat.View()
		hints = m.chat.Hints()
	}

	m.statusBar.SetSettings(m.deps.Session.Settings().Snapshot())
	m.statusBar.SetBusy(joinNonEmpty(m.chat.Busy(), m.rag.Busy()))
	m.statusBar.SetHints(hints...)

	content = m.overlayToasts(content)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), content, m.statusBar.View())
}

// overlayToasts draws the toast stack over the top-right of content,
// replacing the covered lines.
func (m Model) overlayToasts(content string) string {
	stack := components.RenderToastStack(m.toasts.Toasts(), m.width, time.Now())
	if stack == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	toastLines := strings.Split(lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack), "\n")
	if len(toastLines) >= len(lines) {
		return strings.Join(toastLines, "\n")
	}
	return strings.Join(append(toastLines, lines[len(toastLines):]...), "\n")
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
