// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mpcchat/internal/audio"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/util"
)

type askOptions struct {
	audioPath string
	json      bool
}

func newAskCommand(r *runner) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one message and print the reply",
		Long: `Send a single message and print the reply, rendered as markdown on a
terminal. With no prompt and piped input, the prompt is read from stdin.`,
		Example: `  mpcchat ask "Summarize the refund policy"
  mpcchat ask --audio question.mp3
  git diff | mpcchat ask --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runAsk(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.audioPath, "audio", "", "send this audio file instead of text")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the raw backend response as JSON")
	return cmd
}

func (r *runner) runAsk(cmd *cobra.Command, args []string, opts askOptions) error {
	prompt := strings.Join(args, " ")
	if prompt == "" && opts.audioPath == "" && !IsTTY() {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	session := chatsession.NewSession(r.client, r.newStore()).WithLogger(r.logger)
	if opts.audioPath != "" {
		file, err := audio.LoadAttachment(util.ExpandHome(opts.audioPath))
		if err != nil {
			return err
		}
		session.StageAttachment(file)
	}

	pending, err := session.Begin(prompt)
	if err != nil {
		if errors.Is(err, chatsession.ErrNothingToSend) {
			return fmt.Errorf("give a prompt or --audio file")
		}
		return err
	}
	outcome := session.Run(cmd.Context(), pending)
	msg, err := session.Finish(outcome)
	if err != nil {
		return fmt.Errorf("%s", describeError(err))
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return printJSON(out, outcome.Response)
	}
	r.newBotPrinter(out).Print(msg)
	return nil
}
