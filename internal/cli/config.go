// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mpcchat/internal/config"
	"github.com/jeranaias/mpcchat/internal/util"
)

func newConfigCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration file",
		Long: `Show or edit ~/.mpcchat/config.toml (or the file given with --config).

Keys use dot notation with the TOML names, for example api.base_url or
defaults.rag_top_k. Run 'mpcchat config keys' for the full list.`,
		// The config commands must work even when the file is broken.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureColor(cmd.OutOrStdout())
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.configInit(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (phone redacted)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := r.effectiveConfig()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := r.configFile()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), path)
				if !fileExists(path) {
					fmt.Fprint(cmd.OutOrStdout(), " ", mutedText("(not created yet, run 'mpcchat config init')"))
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			},
		},
		initCmd,
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one effective value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := r.effectiveConfig()
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one value in the configuration file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return r.configSet(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the settable keys",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				for _, k := range config.GetAllKeys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			},
		},
	)
	return cmd
}

// configFile returns the file the config commands operate on.
func (r *runner) configFile() (string, error) {
	if r.opts.configPath != "" {
		return util.ExpandHome(r.opts.configPath), nil
	}
	return config.ConfigPathTOML()
}

// effectiveConfig loads the configuration the other commands would use.
func (r *runner) effectiveConfig() (*config.Config, error) {
	cfg, err := r.loadConfig()
	if cfg == nil {
		return nil, err
	}
	r.applyFlags(cfg)
	return cfg, err
}

func (r *runner) configInit(cmd *cobra.Command, force bool) error {
	path, err := r.configFile()
	if err != nil {
		return err
	}
	if fileExists(path) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := saveConfig(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successText("Wrote"), path)
	return nil
}

// configSet edits the file itself, so environment overrides and flags are
// never written back.
func (r *runner) configSet(cmd *cobra.Command, key, value string) error {
	path, err := r.configFile()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if fileExists(path) {
		if isJSON(path) {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveConfig(cfg, path); err != nil {
		return err
	}

	v, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %v\n", successText("Set"), strings.TrimSpace(key), v)
	return nil
}

func saveConfig(cfg *config.Config, path string) error {
	if isJSON(path) {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
