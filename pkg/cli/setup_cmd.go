package cli

import (
	"github.com/spf13/cobra"

	"duck-adapter/internal/engine"
)

func newSetupCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the schema migrations table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := s.withConnection(cmd.Context(), func(conn *engine.Connection) error {
				_, err := conn.SetupMigrations(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			status := map[string]string{"status": "ok", "table": engine.MigrationsTable}
			return writeOutput(cmd.OutOrStdout(), s.flags.output, status,
				[]string{"status", "table"}, [][]string{{"ok", engine.MigrationsTable}})
		},
	}
}
