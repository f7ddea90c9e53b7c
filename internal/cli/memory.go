// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	chatsession "github.com/jeranaias/mpcchat/internal/chat"
)

func newClearMemoryCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-memory",
		Short: "Erase the server-side conversation memory for the phone",
		Long: `Erase the conversation memory the backend keeps for the sender phone.
The phone comes from --phone, MPCCHAT_PHONE or defaults.sender_phone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := chatsession.NewSession(r.client, r.newStore()).WithLogger(r.logger)
			if err := session.ClearMemory(cmd.Context()); err != nil {
				return fmt.Errorf("clear memory: %s", describeError(err))
			}
			phone := session.Settings().Snapshot().SenderPhone
			fmt.Fprintln(cmd.OutOrStdout(), successText("Memory cleared"), "for", phone)
			return nil
		},
	}
}
