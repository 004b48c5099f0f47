package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNoSQL = errors.New("provide SQL as an argument, via --file, or on stdin")

// readSQL returns the statement text from args, then file, then stdin. An
// interactive terminal on stdin is never read.
func readSQL(args []string, file string, stdin io.Reader) (string, error) {
	var sql string
	switch {
	case len(args) > 0:
		sql = strings.Join(args, " ")
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // path is caller-controlled
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		sql = string(data)
	default:
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "", errNoSQL
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		sql = string(data)
	}
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "", errNoSQL
	}
	return sql, nil
}
