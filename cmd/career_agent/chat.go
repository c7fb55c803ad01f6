package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/observability"
	"github.com/jonathan/career-compass/internal/types"
	"github.com/spf13/cobra"
)

const chatHelp = `Ask anything about careers. Commands: /history, /reset, /exit`

var chatHistoryPath string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the career mentor",
	Long: `Start an interactive conversation with the career mentor. Each message is sent
together with the conversation so far. With --history the conversation is loaded
from and saved to a JSON file, so it survives restarts.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatHistoryPath, "history", "", "JSON file to resume the conversation from and save it to")
	rootCmd.AddCommand(chatCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runChat(cmd *cobra.Command, _ []string) error {
	seed, err := loadChatHistory(chatHistoryPath)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx, stop := stopOnSignal(cmd.Context())
	defer stop()

	invoker, client, err := a.newInvoker(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	session := careers.NewChatSession(invoker, seed...)

	fmt.Fprintln(out, chatHelp)
	if len(seed) > 0 {
		fmt.Fprintf(out, "Resumed %d earlier messages.\n", len(seed))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			session = careers.NewChatSession(invoker)
			if err := saveChatHistory(chatHistoryPath, nil); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/history":
			for _, turn := range session.History() {
				fmt.Fprintf(out, "%s: %s\n", turn.Role, turn.Content)
			}
			continue
		}

		callCtx, cancel := withCallTimeout(ctx)
		reply, err := session.Send(callCtx, line)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("chat message failed", "kind", flow.KindOf(err), "error", err)
			fmt.Fprintln(out, chatFailure(err))
			continue
		}
		printer.PrintChatReply(reply)
		if err := saveChatHistory(chatHistoryPath, session.History()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func chatFailure(err error) string {
	var ve *flow.ValidationError
	if errors.As(err, &ve) {
		return "! " + ve.Error()
	}
	return "! Something went wrong. Please try again."
}

func loadChatHistory(path string) ([]types.ChatTurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	var turns []types.ChatTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse chat history %s: %w", path, err)
	}
	if err := flow.ValidateStruct(struct {
		Turns []types.ChatTurn `json:"chatHistory" validate:"dive"`
	}{turns}); err != nil {
		return nil, fmt.Errorf("invalid chat history %s: %w", path, err)
	}
	return turns, nil
}

func saveChatHistory(path string, turns []types.ChatTurn) error {
	if path == "" {
		return nil
	}
	if turns == nil {
		turns = []types.ChatTurn{}
	}
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}
