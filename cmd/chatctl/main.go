// chatctl is a terminal chat client for an agentchat service. It streams
// reply fragments as they arrive and prints token usage after each turn.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/velkovn/agentchat/internal/client"
	"github.com/velkovn/agentchat/internal/pricing"
	"github.com/velkovn/agentchat/internal/stream"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "chat service base URL")
	model := flag.String("model", "claude-sonnet-4-20250514", "model name used for the cost estimate")
	flag.Parse()

	c := client.New(*baseURL)
	sessionID := client.NewSessionID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			fmt.Print("> ")
			continue
		}

		var tr client.Transcript
		err := c.Chat(ctx, sessionID, message, func(ev stream.Event) error {
			if ev.Type == stream.TypeStreaming {
				var s stream.Streaming
				if derr := ev.Decode(&s); derr == nil {
					fmt.Print(s.Message)
				}
			}
			return tr.Apply(ev)
		})
		fmt.Println()

		switch {
		case errors.Is(err, context.Canceled):
			fmt.Println("[stopped]")
			return
		case err != nil:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if tr.ErrMsg != "" {
			fmt.Fprintf(os.Stderr, "agent error: %s\n", tr.ErrMsg)
		}
		if tr.HasUsage {
			u := tr.Usage
			fmt.Printf("[%d in / %d out / %d total tokens, ~$%.4f]\n",
				u.InputTokens, u.OutputTokens, u.Total(), pricing.Estimate(*model, u))
		}
		fmt.Print("> ")
	}
}
