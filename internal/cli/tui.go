// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/ui/app"
	"github.com/jeranaias/mpcchat/internal/ui/chat"
	"github.com/jeranaias/mpcchat/internal/ui/components"
	"github.com/jeranaias/mpcchat/internal/ui/styles"
)

// newAppModel wires the root TUI model from the loaded configuration.
func (r *runner) newAppModel() app.Model {
	cfg := r.cfg
	store := r.newStore()

	session := chatsession.NewSession(r.client, store).WithLogger(r.logger)
	manager := rag.NewManager(r.client).WithLogger(r.logger)
	manager.SetNamespace(cfg.Defaults.RagNamespace)
	manager.SetTopK(cfg.Defaults.RagTopK)

	chatOpts := chat.Options{
		ShowCost: cfg.UI.ShowCost,
		AudioDir: cfg.UI.AudioDir,
		Logger:   r.logger,
	}
	if cfg.UI.Markdown {
		chatOpts.Markdown = components.NewMarkdownRenderer(markdownStyle(cfg.UI.Theme))
	}

	return app.New(app.Deps{
		Session:    session,
		Manager:    manager,
		Health:     r.client,
		BackendURL: cfg.API.BaseURL,
		Theme:      styles.NewTheme(cfg.UI.Theme),
		Chat:       chatOpts,
		Logger:     r.logger,
	})
}

// runTUI starts the full-screen interface.
func (r *runner) runTUI(cmd *cobra.Command) error {
	if !IsTTY() {
		return fmt.Errorf("the interactive interface needs a terminal; try 'mpcchat ask' or 'mpcchat chat'")
	}

	r.logger.Info("starting TUI", zap.String("backend", r.cfg.API.BaseURL))
	p := tea.NewProgram(r.newAppModel(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	r.logger.Info("TUI exited")
	return nil
}
