// Package chat runs the interactive AI chat loop for an authenticated user.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vvs-dev/vvs/pkg/ai"
)

// Session is a line-oriented chat REPL. History is kept in memory for the
// lifetime of the session; conversation persistence is the server's concern.
type Session struct {
	AI       ai.Service
	In       io.Reader
	Out      io.Writer
	Greeting string
}

// Run reads messages until the user types "exit", closes stdin, or cancels
// the context. Model output streams to Out as it arrives.
func (s *Session) Run(ctx context.Context) error {
	if s.Greeting != "" {
		_, _ = fmt.Fprintf(s.Out, "%s\n", s.Greeting)
	}
	_, _ = fmt.Fprintln(s.Out, `Type your message and press Enter. Type "exit" to end the conversation.`)

	var history []ai.Message
	scanner := bufio.NewScanner(s.In)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, _ = fmt.Fprint(s.Out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		history = append(history, ai.Message{Role: ai.RoleUser, Content: line})
		reply, err := s.AI.Stream(ctx, history, func(chunk string) {
			_, _ = fmt.Fprint(s.Out, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("chat failed: %w", err)
		}
		_, _ = fmt.Fprintln(s.Out)
		history = append(history, ai.Message{Role: ai.RoleAssistant, Content: reply})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.Out, "Chat session ended.")
	return nil
}
