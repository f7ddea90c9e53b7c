// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/config"
	"github.com/jeranaias/mpcchat/internal/logging"
	"github.com/jeranaias/mpcchat/internal/settings"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	apiURL     string
	phone      string
	model      string
	verbose    bool
}

// runner carries the state shared by every command of one invocation.
type runner struct {
	opts globalOptions

	cfg      *config.Config
	client   *api.Client
	logger   *zap.Logger
	closeLog func() error
}

// NewRootCommand builds the mpcchat command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRoot()
	return root
}

// newRoot builds the command tree and returns the runner so the caller can
// close the log file when a command fails and post-run hooks are skipped.
func newRoot() (*cobra.Command, *runner) {
	r := &runner{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "mpcchat",
		Short: "Terminal client for the multi-provider chat router",
		Long: `mpcchat talks to a chat router backend that picks an LLM per message,
optionally grounds replies in a retrieval index and can answer with audio.

Run without arguments for the full-screen interface with Chat, RAG and
Settings tabs, or use the subcommands from scripts and plain terminals.

Quick Start:
  mpcchat                              # Full-screen TUI
  mpcchat ask "What is RAG?"           # One-shot question
  mpcchat search "refund policy" -k 3  # Query the retrieval index
  mpcchat index docs/*.md -n handbook  # Index files`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return r.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runTUI(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&r.opts.configPath, "config", "", "configuration file (default ~/.mpcchat/config.toml)")
	flags.StringVar(&r.opts.apiURL, "api-url", "", "backend base URL (overrides "+config.EnvAPIURL+")")
	flags.StringVar(&r.opts.phone, "phone", "", "sender phone identity for server-side memory")
	flags.StringVar(&r.opts.model, "model", "", "preferred model (empty lets the router decide)")
	flags.BoolVarP(&r.opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newChatCommand(r),
		newAskCommand(r),
		newSearchCommand(r),
		newIndexCommand(r),
		newClearMemoryCommand(r),
		newHealthCommand(r),
		newConfigCommand(r),
		newLogsCommand(r),
		newVersionCommand(),
	)
	return root, r
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	root, r := newRoot()
	err := root.Execute()
	_ = r.close()
	if err != nil {
		configureColor(os.Stderr)
		fmt.Fprintln(os.Stderr, errorText("Error:"), err)
		os.Exit(1)
	}
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads configuration, applies flags and builds the logger and client.
func (r *runner) setup(cmd *cobra.Command, args []string) error {
	configureColor(cmd.OutOrStdout())

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warnText("Warning:"), err)
	}

	cfg, err := r.loadConfig()
	if err != nil {
		if cfg == nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), warnText("Warning:"), err, "(using defaults)")
	}
	r.applyFlags(cfg)
	r.cfg = cfg

	// The TUI owns the terminal, so only plain commands echo logs.
	logOpts := logging.Options{
		Path:    cfg.LogPath(),
		Level:   cfg.Logging.Level,
		Verbose: r.opts.verbose,
	}
	if r.opts.verbose && cmd.Name() != "mpcchat" {
		logOpts.Console = cmd.ErrOrStderr()
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warnText("Warning:"), "file logging disabled:", err)
		logger, closeLog = zap.NewNop(), func() error { return nil }
	}
	r.logger = logger
	r.closeLog = closeLog

	r.client = api.NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout()).
		WithLogger(logger)

	logger.Debug("command started",
		zap.String("command", cmd.CommandPath()),
		zap.String("backend", cfg.API.BaseURL))
	return nil
}

func (r *runner) loadConfig() (*config.Config, error) {
	if r.opts.configPath != "" {
		return config.LoadFromPath(r.opts.configPath)
	}
	return config.Load()
}

// applyFlags gives command-line flags the final say over the config.
func (r *runner) applyFlags(cfg *config.Config) {
	if r.opts.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(r.opts.apiURL), "/")
	}
	if r.opts.phone != "" {
		cfg.Defaults.SenderPhone = strings.TrimSpace(r.opts.phone)
	}
	if r.opts.model != "" {
		cfg.Defaults.Model = strings.TrimSpace(r.opts.model)
	}
}

func (r *runner) close() error {
	if r.closeLog == nil {
		return nil
	}
	err := r.closeLog()
	r.closeLog = nil
	return err
}

// newStore creates the session settings for one invocation.
func (r *runner) newStore() *settings.Store {
	return settings.NewStore(r.cfg.InitialSettings())
}
