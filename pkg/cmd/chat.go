package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvs-dev/vvs/pkg/ai"
	"github.com/vvs-dev/vvs/pkg/chat"
)

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive AI chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			rec, err := rt.authenticatedRecord(cmd.Context())
			if err != nil {
				return err
			}

			svc, err := ai.NewGeminiFromEnv(rt.resolved.Model)
			if err != nil {
				return err
			}

			greeting := ""
			user := rt.resolveUser(cmd.Context(), rec)
			switch {
			case user.Name != "":
				greeting = fmt.Sprintf("Welcome back, %s!", user.Name)
			case user.Email != "":
				greeting = fmt.Sprintf("Welcome back, %s!", user.Email)
			}

			session := &chat.Session{
				AI:       svc,
				In:       cmd.InOrStdin(),
				Out:      rt.Writer(),
				Greeting: greeting,
			}
			return session.Run(cmd.Context())
		},
	}
}
