package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
)

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			w := rt.Writer()
			if err := rt.tokenStore().Clear(); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					_, _ = fmt.Fprintln(w, "No stored credential.")
					return nil
				}
				return fmt.Errorf("failed to remove credential: %w", err)
			}
			_, _ = fmt.Fprintln(w, "Logged out")
			return nil
		},
	}
}
