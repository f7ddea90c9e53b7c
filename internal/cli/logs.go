// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mpcchat/internal/logging"
)

type logsOptions struct {
	level string
	limit int
	json  bool
}

func newLogsCommand(r *runner) *cobra.Command {
	var opts logsOptions
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent records from the log file, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.level != "" && !logging.ValidLevel(opts.level) {
				return fmt.Errorf("unknown level %q (debug, info, warn, error)", opts.level)
			}
			// The command's own records would otherwise lead the list.
			if err := r.close(); err != nil {
				return err
			}

			path := r.cfg.LogPath()
			entries, err := logging.ReadEntries(path, opts.level, opts.limit)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, mutedText("No log records in "+path))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s %s%s\n", mutedText(e.Timestamp), levelText(e.Level), e.Message, formatFields(e.Fields))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.level, "level", "l", "", "only show this level")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 50, "maximum records (0 for all)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print records as JSON")
	return cmd
}

func levelText(level string) string {
	padded := fmt.Sprintf("%-5s", level)
	switch level {
	case "ERROR", "FATAL", "PANIC", "DPANIC":
		return errorText(padded)
	case "WARN":
		return warnText(padded)
	case "DEBUG":
		return mutedText(padded)
	}
	return infoText(padded)
}

// formatFields renders structured fields as sorted key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return mutedText(b.String())
}
