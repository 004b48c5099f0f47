package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"duck-adapter/internal/engine"
	"duck-adapter/internal/query"
	"duck-adapter/internal/types"
)

func newQueryCmd(s *session) *cobra.Command {
	var (
		file   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query and print its rows",
		Long: `Runs a single statement and prints the result set. Each --param binds one
? placeholder, in order, as VARCHAR; DuckDB casts it where needed.`,
		Example: `  duck query -d app.duckdb "SELECT * FROM users WHERE age > ?" --param 25
  echo "SELECT 42 AS answer" | duck query -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			stmt := query.Raw(sql)
			for _, p := range params {
				stmt = stmt.Bind(types.Varchar.Bind(p))
			}

			var res resultSet
			err = s.withConnection(cmd.Context(), func(conn *engine.Connection) error {
				cur, err := conn.Load(cmd.Context(), stmt)
				if err != nil {
					return err
				}
				res = collectResult(cur)
				return nil
			})
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), s.flags.output, res, res.Columns, res.tableRows()); err != nil {
				return err
			}
			if s.flags.output == outputTable {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\n(%d rows)\n", res.RowCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read SQL from a file")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Bind a positional parameter (repeatable)")

	return cmd
}
