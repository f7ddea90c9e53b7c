// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(r *runner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			start := time.Now()
			status, err := r.client.HealthCheck(cmd.Context())
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				return fmt.Errorf("backend %s unavailable: %s", r.client.BaseURL(), describeError(err))
			}
			if asJSON {
				return printJSON(out, status)
			}

			line := fmt.Sprintf("%s (%s)", r.client.BaseURL(), elapsed)
			if !status.Healthy() {
				fmt.Fprintln(out, warnText("[!] "+status.Status), line)
				if status.Message != "" {
					fmt.Fprintln(out, "    "+status.Message)
				}
				return fmt.Errorf("backend reports status %q", status.Status)
			}
			fmt.Fprintln(out, successText("[OK] "+status.Status), line)
			if status.Message != "" {
				fmt.Fprintln(out, "     "+mutedText(status.Message))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the health payload as JSON")
	return cmd
}
