package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvs-dev/vvs/pkg/output"
)

type whoamiResult struct {
	User      string     `json:"user" yaml:"user"`
	Email     string     `json:"email,omitempty" yaml:"email,omitempty"`
	Scope     string     `json:"scope,omitempty" yaml:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			w := rt.Writer()

			rec, err := rt.authenticatedRecord(cmd.Context())
			if err != nil {
				return err
			}
			user := rt.resolveUser(cmd.Context(), rec)

			result := whoamiResult{
				User:      user.Name,
				Email:     user.Email,
				Scope:     rec.Scope,
				ExpiresAt: rec.ExpiresAt,
			}
			if result.User == "" {
				result.User = user.Email
			}
			if result.User == "" {
				result.User = "unknown"
			}

			switch format := output.Format(rt.resolved.OutputFormat); format {
			case output.FormatJSON, output.FormatYAML:
				return output.WriteObject(w, format, result)
			default:
				if rec.ExpiresAt != nil {
					_, _ = fmt.Fprintf(w, "Logged in as %s (token expires at %s)\n", result.User, rec.ExpiresAt.UTC().Format(time.RFC3339))
				} else {
					_, _ = fmt.Fprintf(w, "Logged in as %s\n", result.User)
				}
				return nil
			}
		},
	}
}
