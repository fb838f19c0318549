package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vvs-dev/vvs/pkg/auth"
)

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in via the device authorization flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			res := rt.resolved
			store := rt.tokenStore()
			w := rt.Writer()

			if rec := store.Load(); rec != nil && !auth.Expired(rec, auth.DefaultSafetyMargin) {
				again, err := rt.confirm(cmd, "You are already logged in. Log in again?")
				if err != nil {
					return err
				}
				if !again {
					_, _ = fmt.Fprintln(w, "Login cancelled.")
					return nil
				}
			}

			client := auth.NewClient(auth.Endpoints{
				DeviceAuthorizationURL: res.DeviceEndpoint,
				TokenURL:               res.TokenEndpoint,
			}, auth.WithLogger(rt.logger))

			authz, err := client.RequestCode(cmd.Context(), auth.Request{
				ClientID: res.ClientID,
				Scope:    res.Scope(),
			})
			if err != nil {
				return fmt.Errorf("failed to request device authorization: %w", err)
			}

			_, _ = fmt.Fprintf(w, "Visit %s and enter code: %s\n", authz.VerificationURI, authz.UserCode)
			if !rt.noBrowser {
				if err := auth.OpenBrowser(authz.VerificationTarget()); err != nil {
					_, _ = fmt.Fprintf(w, "Warning: could not open browser: %v\n", err)
				}
			}
			lifetime := time.Duration(authz.ExpiresIn) * time.Second
			_, _ = fmt.Fprintf(w, "Waiting for authorization (expires in %s)...\n", lifetime)

			rec, err := client.PollForToken(cmd.Context(), authz, res.ClientID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					_, _ = fmt.Fprintln(w, "Login cancelled.")
					return nil
				}
				return fmt.Errorf("login failed: %w", err)
			}

			if err := store.Save(rec); err != nil {
				rt.logger.Warn("token not persisted", zap.Error(err))
				_, _ = fmt.Fprintf(w, "Warning: failed to store token: %v\n", err)
				_, _ = fmt.Fprintln(w, "You are logged in for this run only; the credential was not saved and the next invocation will ask you to log in again.")
			}
			if rec.ExpiresAt != nil {
				_, _ = fmt.Fprintf(w, "Authenticated. Token expires at %s\n", rec.ExpiresAt.UTC().Format(time.RFC3339))
			} else {
				_, _ = fmt.Fprintln(w, "Authenticated.")
			}
			return nil
		},
	}
}
