// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/audio"
	chatsession "github.com/jeranaias/mpcchat/internal/chat"
	"github.com/jeranaias/mpcchat/internal/config"
	"github.com/jeranaias/mpcchat/internal/export"
	"github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/settings"
	"github.com/jeranaias/mpcchat/internal/util"
)

func newChatCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive line-mode chat with input history",
		Long: `Chat with the backend from a plain terminal. Arrow keys browse the
input history, which is kept in ~/.mpcchat/chat_history.

Type /help inside the session for the slash commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runChat(cmd)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineInput provides line editing and history for the REPL.
type lineInput struct {
	line        *liner.State
	historyFile string
}

func newLineInput() *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &lineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Read prompts for one line and records it in the history.
func (in *lineInput) Read(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

// Close saves the history with owner-only permissions and restores the terminal.
func (in *lineInput) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = in.line.WriteHistory(f)
			f.Close()
		}
	}
	return in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl executes chat input lines against a session.
type repl struct {
	session  *chatsession.Session
	out      io.Writer
	printer  *botPrinter
	audioDir string
	showCost bool
	logger   *zap.Logger
}

func (r *runner) newREPL(out io.Writer) *repl {
	return &repl{
		session:  chatsession.NewSession(r.client, r.newStore()).WithLogger(r.logger),
		out:      out,
		printer:  r.newBotPrinter(out),
		audioDir: r.cfg.UI.AudioDir,
		showCost: r.cfg.UI.ShowCost,
		logger:   r.logger,
	}
}

func (r *runner) runChat(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	c := r.newREPL(out)

	input := newLineInput()
	defer input.Close()

	c.printWelcome()
	for {
		line, err := input.Read(promptText("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or closed stdin.
			fmt.Fprintln(out)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		more, err := c.handle(ctx, line)
		stop()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorText("[Error]"), describeError(err))
		}
		if !more {
			return nil
		}
	}
}

// handle executes one input line. It returns false when the session should end.
func (c *repl) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return true, nil
	case strings.EqualFold(line, "exit"), strings.EqualFold(line, "quit"):
		return false, nil
	case strings.HasPrefix(line, "/"):
		return c.command(ctx, line)
	}
	return true, c.send(ctx, line)
}

func (c *repl) send(ctx context.Context, text string) error {
	if att, ok := c.session.Attachment(); ok {
		fmt.Fprintln(c.out, mutedText("Uploading "+att.Name+"..."))
	}
	msg, err := c.session.Send(ctx, text)
	if err != nil {
		return err
	}
	c.printer.Print(msg)
	return nil
}

func (c *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return false, nil

	case "/help", "/?":
		c.printHelp()

	case "/audio", "/attach":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /audio <file>")
		}
		file, err := audio.LoadAttachment(util.ExpandHome(strings.Join(args, " ")))
		if err != nil {
			return true, err
		}
		c.session.StageAttachment(file)
		fmt.Fprintln(c.out, successText("Attached"), file.Name, mutedText("(goes with the next message; /send sends it alone)"))

	case "/send":
		return true, c.send(ctx, strings.Join(args, " "))

	case "/detach":
		c.session.ClearAttachment()
		fmt.Fprintln(c.out, infoText("Attachment removed"))

	case "/clear":
		if err := c.session.ClearMemory(ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(c.out, successText("Memory cleared"))

	case "/settings":
		c.printSettings()

	case "/set":
		if len(args) < 1 {
			return true, fmt.Errorf("usage: /set <phone|model|audio|rag|namespace|topk> [value]")
		}
		if err := applySetting(c.session.Settings(), args[0], strings.Join(args[1:], " ")); err != nil {
			return true, err
		}
		c.printSettings()

	case "/save":
		msg, ok := c.session.Transcript().LastWithAudio()
		if !ok {
			return true, audio.ErrNoAudio
		}
		dir := c.audioDir
		if len(args) > 0 {
			dir = util.ExpandHome(args[0])
		}
		path, err := audio.Save(msg, dir)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(c.out, successText("Audio saved to"), path)

	case "/export":
		path, err := c.export(args)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(c.out, successText("Conversation exported to"), path)

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return true, nil
}

// export accepts "/export <path>" or "/export <format> <path>".
func (c *repl) export(args []string) (string, error) {
	var format, path string
	switch len(args) {
	case 1:
		path = util.ExpandHome(args[0])
		format = export.FormatFromPath(path)
	case 2:
		format, path = args[0], util.ExpandHome(args[1])
	default:
		return "", fmt.Errorf("usage: /export [format] <path>")
	}

	opts := export.DefaultOptions()
	opts.IncludeCost = c.showCost
	exporter, err := export.NewExporter(format, opts)
	if err != nil {
		return "", err
	}
	return export.ToFile(c.session.Transcript(), exporter, path)
}

// applySetting edits one session setting by name.
func applySetting(store *settings.Store, field, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(field) {
	case "phone":
		store.SetSenderPhone(value)
	case "model":
		if value == "auto" {
			value = ""
		}
		if settings.ModelIndex(value) < 0 {
			return fmt.Errorf("unknown model %q", value)
		}
		store.SetModel(value)
	case "audio":
		on, err := parseToggle(value)
		if err != nil {
			return err
		}
		store.SetGenerateAudio(on)
	case "rag":
		on, err := parseToggle(value)
		if err != nil {
			return err
		}
		store.SetUseRag(on)
	case "namespace", "ns":
		store.SetRagNamespace(value)
	case "topk", "top_k":
		k, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("top_k must be a number, got %q", value)
		}
		store.Update(func(s *settings.Settings) { s.RagTopK = rag.ClampTopK(k) })
	default:
		return fmt.Errorf("unknown setting %q", field)
	}
	return nil
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", value)
}

// describeError turns errors into user-facing text, using the backend detail
// when there is one.
func describeError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return api.UserMessage(err)
}

// =============================================================================
// OUTPUT
// =============================================================================

func (c *repl) printWelcome() {
	fmt.Fprintln(c.out, titleText("mpcchat")+" "+mutedText(Version))
	c.printSettings()
	fmt.Fprintln(c.out, mutedText("Type /help for commands, /quit or Ctrl+D to leave."))
	fmt.Fprintln(c.out)
}

func (c *repl) printSettings() {
	s := c.session.Settings().Snapshot()
	phone := s.SenderPhone
	if phone == "" {
		phone = warnText("not set")
	}
	rows := [][2]string{
		{"Phone", phone},
		{"Model", settings.ModelLabel(s.Model)},
		{"Audio replies", onOff(s.GenerateAudio)},
		{"RAG", onOff(s.UseRag)},
	}
	if s.UseRag {
		ns := s.RagNamespace
		if ns == "" {
			ns = "(default)"
		}
		rows = append(rows, [2]string{"Namespace", ns}, [2]string{"Top K", strconv.Itoa(s.RagTopK)})
	}
	if att, ok := c.session.Attachment(); ok {
		rows = append(rows, [2]string{"Attachment", att.Name})
	}
	for _, row := range rows {
		fmt.Fprintf(c.out, "  %s %s\n", mutedText(util.PadRight(row[0]+":", 15)), row[1])
	}
}

func (c *repl) printHelp() {
	fmt.Fprintln(c.out, titleText("Commands"))
	for _, row := range [][2]string{
		{"/audio <file>", "attach an audio file to the next message"},
		{"/send [text]", "send now, e.g. an attachment without text"},
		{"/detach", "remove the attachment"},
		{"/clear", "clear server memory and the transcript"},
		{"/settings", "show the session settings"},
		{"/set <field> <value>", "phone, model, audio, rag, namespace, topk"},
		{"/save [dir]", "save the last audio reply"},
		{"/export [fmt] <path>", "export the conversation (md, json, yaml)"},
		{"/quit", "leave the chat"},
	} {
		fmt.Fprintf(c.out, "  %s %s\n", infoText(util.PadRight(row[0], 22)), row[1])
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
