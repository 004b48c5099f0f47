package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd(s))
	cmd.AddCommand(newConfigSetProfileCmd(s))
	cmd.AddCommand(newConfigUseProfileCmd(s))

	return cmd
}

func newConfigShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display configured profiles and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadUserConfigOrDefault()
			if err != nil {
				return err
			}
			if s.flags.output != outputTable {
				return writeOutput(cmd.OutOrStdout(), s.flags.output, cfg, nil, nil)
			}

			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p := cfg.Profiles[name]
				active := ""
				if name == cfg.CurrentProfile {
					active = "*"
				}
				rows = append(rows, []string{name, active, p.Database, p.Output, p.LogLevel})
			}
			if err := printTable(cmd.OutOrStdout(), []string{"profile", "active", "database", "output", "log-level"}, rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nEffective database: %s\n", s.cfg.DatabaseURL)
			return nil
		},
	}
}

func newConfigSetProfileCmd(s *session) *cobra.Command {
	var (
		name     string
		database string
		output   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			local := cmd.LocalFlags()
			if local.Changed("default-output") {
				if err := validateOutputFormat(output); err != nil {
					return err
				}
			}

			cfg, err := loadUserConfigOrDefault()
			if err != nil {
				return err
			}

			p := cfg.Profiles[name]
			if local.Changed("db") {
				p.Database = database
			}
			if local.Changed("default-output") {
				p.Output = output
			}
			if local.Changed("default-log-level") {
				p.LogLevel = logLevel
			}
			cfg.Profiles[name] = p

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if s.flags.output != outputTable {
				return writeOutput(cmd.OutOrStdout(), s.flags.output, map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				}, nil, nil)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&database, "db", "", "Database file path")
	cmd.Flags().StringVar(&output, "default-output", "", "Default output format")
	cmd.Flags().StringVar(&logLevel, "default-log-level", "", "Default log level")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if s.flags.output != outputTable {
				return writeOutput(cmd.OutOrStdout(), s.flags.output, map[string]string{
					"status":         "ok",
					"active_profile": name,
				}, nil, nil)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile set to %q\n", name)
			return nil
		},
	}
}
