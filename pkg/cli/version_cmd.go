package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch s.flags.output {
			case outputJSON, outputYAML:
				return writeOutput(cmd.OutOrStdout(), s.flags.output, map[string]string{
					"version": version,
					"commit":  commit,
				}, nil, nil)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "duck version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
