package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvs-dev/vvs/pkg/output"
	"github.com/vvs-dev/vvs/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show vvs version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			writer := cmd.OutOrStdout()
			if rt, _ := getRuntime(cmd); rt != nil {
				writer = rt.Writer()
			}

			switch outputFormat {
			case "json":
				return output.WriteObject(writer, output.FormatJSON, info)
			case "yaml":
				return output.WriteObject(writer, output.FormatYAML, info)
			default:
				_, _ = fmt.Fprintf(writer, "vvs %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "", "Output format: json, yaml")

	return cmd
}
