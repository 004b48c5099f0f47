// Package cli implements the duck command line: ad-hoc SQL against a DuckDB
// database through the engine adapter.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"duck-adapter/internal/config"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

var (
	version = "dev"
	commit  = "none"
)

// EnvOutput selects the default output format.
const EnvOutput = "DUCK_OUTPUT"

// Execute runs the CLI.
func Execute() int {
	return run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// run executes one invocation and returns the process exit code. Failures are
// reported on stderr in the resolved output format.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd, s := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		writeError(stderr, s.errorFormat(rootCmd.PersistentFlags()), err)
		return 1
	}
	return 0
}

func writeError(w io.Writer, format string, err error) {
	errObj := map[string]interface{}{
		"error": err.Error(),
	}
	if kind, ok := domain.KindOf(err); ok {
		errObj["kind"] = kind.String()
	}
	switch format {
	case outputJSON:
		_ = printJSON(w, errObj)
	case outputYAML:
		_ = printYAML(w, errObj)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	database   string
	configFile string
	envFile    string
	logLevel   string
	output     string
	profile    string
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.database, "database", "d", "", "Database file path, or :memory:")
	fs.StringVarP(&f.configFile, "config", "c", "", "YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file read before the environment")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVarP(&f.output, "output", "o", "table", "Output format (table, json, yaml)")
	fs.StringVarP(&f.profile, "profile", "p", "", "Config profile to use")
}

// session is the resolved runtime state of one invocation.
type session struct {
	flags    globalFlags
	cfg      *config.Config
	logger   *slog.Logger
	resolved bool // output format has been resolved
}

// errorFormat returns the format used to report a failure. It falls back to
// the flag and DUCK_OUTPUT when the invocation failed before resolution.
func (s *session) errorFormat(fs *pflag.FlagSet) string {
	if s.resolved {
		return s.flags.output
	}
	if !fs.Changed("output") {
		if v := os.Getenv(EnvOutput); v != "" {
			return v
		}
	}
	return s.flags.output
}

// resolve applies precedence flag > env or --config file > profile > default.
func (s *session) resolve(fs *pflag.FlagSet, stderr io.Writer) error {
	if err := config.LoadDotEnv(s.flags.envFile); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if s.flags.configFile != "" {
		cfg, err = config.LoadFile(s.flags.configFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	user, err := loadUserConfigOrDefault()
	if err != nil {
		return err
	}
	p, err := user.ActiveProfile(s.flags.profile)
	if err != nil {
		return err
	}

	fromProfile := s.flags.configFile == ""
	database := ""
	switch {
	case fs.Changed("database"):
		database = s.flags.database
	case fromProfile && os.Getenv(config.EnvDatabaseURL) == "":
		database = p.Database
	}
	logLevel := ""
	switch {
	case fs.Changed("log-level"):
		logLevel = s.flags.logLevel
	case fromProfile && os.Getenv(config.EnvLogLevel) == "":
		logLevel = p.LogLevel
	}
	if !fs.Changed("output") {
		if v := os.Getenv(EnvOutput); v != "" {
			s.flags.output = v
		} else if p.Output != "" {
			s.flags.output = p.Output
		}
	}
	if s.flags.output == "" {
		s.flags.output = outputTable
	}
	if err := validateOutputFormat(s.flags.output); err != nil {
		return err
	}
	s.resolved = true

	if cfg, err = cfg.Override(database, logLevel); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s.cfg = cfg
	s.logger = cfg.NewLogger(stderr).With("component", "cli")
	for _, w := range cfg.Warnings {
		s.logger.Warn(w)
	}
	return nil
}

// connect opens the configured database. The caller closes it.
func (s *session) connect(ctx context.Context) (*engine.Connection, error) {
	return engine.Establish(ctx, s.cfg.DatabaseURL,
		engine.WithLogger(s.logger),
		engine.WithStatementCacheSize(s.cfg.StatementCacheSize),
		engine.WithInstrumentation(engine.NewSlogInstrumentation(s.logger)),
	)
}

// withConnection runs fn against a fresh connection and closes it afterwards.
func (s *session) withConnection(ctx context.Context, fn func(*engine.Connection) error) (err error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close connection: %w", cerr))
		}
	}()
	return fn(conn)
}

func newRootCmd() (*cobra.Command, *session) {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:           "duck",
		Short:         "DuckDB query CLI",
		Long:          "Run SQL against a DuckDB database file or an in-memory database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.resolve(cmd.Flags(), cmd.ErrOrStderr())
		},
	}

	s.flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newExecCmd(s))
	rootCmd.AddCommand(newQueryCmd(s))
	rootCmd.AddCommand(newSetupCmd(s))
	rootCmd.AddCommand(newVersionCmd(s))
	rootCmd.AddCommand(newConfigCmd(s))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd, s
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		// Completion output must not depend on a loadable configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
