package cli

import (
	"github.com/spf13/cobra"

	"duck-adapter/internal/engine"
)

func newExecCmd(s *session) *cobra.Command {
	var (
		file string
		inTx bool
	)

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Execute one or more SQL statements",
		Long: `Executes semicolon-separated SQL without returning rows. The text comes
from the arguments, from --file, or from stdin.`,
		Example: `  duck exec -d app.duckdb "CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR)"
  duck exec -d app.duckdb --file schema.sql --tx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			err = s.withConnection(cmd.Context(), func(conn *engine.Connection) error {
				if !inTx {
					return conn.BatchExecute(cmd.Context(), sql)
				}
				return conn.Transaction(cmd.Context(), func(tx *engine.Connection) error {
					return tx.BatchExecute(cmd.Context(), sql)
				})
			})
			if err != nil {
				return err
			}
			status := map[string]string{"status": "ok"}
			return writeOutput(cmd.OutOrStdout(), s.flags.output, status,
				[]string{"status"}, [][]string{{"ok"}})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read SQL from a file")
	cmd.Flags().BoolVar(&inTx, "tx", false, "Run all statements in one transaction")

	return cmd
}
