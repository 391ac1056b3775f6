package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/billing-sync/pkg/models"
	"github.com/vpnda/billing-sync/pkg/services"
)

func newChatCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive billing assistant",
		Long:  `Start an interactive session with the canned billing assistant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			assistant := services.NewAssistant(services.WithResponseDelay(delay))
			return runChat(cmd.Context(), assistant, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", services.DefaultResponseDelay, "Simulated response time")
	return cmd
}

func printMessage(w io.Writer, msg models.Message) {
	prefix := "assistant"
	if msg.Sender == models.SenderUser {
		prefix = "you"
	}
	if msg.Type == models.MessageTypeAction {
		prefix += " [action]"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", msg.Timestamp.Format(time.Kitchen), prefix, msg.Content)
}

func runChat(ctx context.Context, assistant *services.Assistant, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Welcome to the billing assistant!")
	fmt.Fprintln(out, "Type 'exit' or 'quit' to exit, 'help' for commands.")
	fmt.Fprintln(out)

	for _, msg := range assistant.Messages() {
		printMessage(out, msg)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		trimmedLine := strings.TrimSpace(scanner.Text())

		if trimmedLine == "" {
			continue
		}

		if trimmedLine == "exit" || trimmedLine == "quit" {
			break
		}

		if trimmedLine == "help" {
			printChatHelp(out)
			continue
		}

		if trimmedLine == "history" {
			for _, msg := range assistant.Messages() {
				printMessage(out, msg)
			}
			continue
		}

		reply, err := assistant.Send(ctx, trimmedLine)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Error().Err(err).Msg("Error getting a reply")
			continue
		}
		printMessage(out, *reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, "Available commands:")
	fmt.Fprintln(w, "  help        - Show this help message")
	fmt.Fprintln(w, "  history     - Show the conversation so far")
	fmt.Fprintln(w, "  exit, quit  - Exit the assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Anything else is sent to the assistant. Try asking about invoices,")
	fmt.Fprintln(w, "payments or clients.")
}
