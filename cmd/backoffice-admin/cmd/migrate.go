package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hromada/backoffice/pkg/migrations"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, runner, err := openRunner()
		if err != nil {
			return err
		}
		defer e.Close()

		applied, err := runner.Up(commandContext(cmd))
		out := cmd.OutOrStdout()
		for _, m := range applied {
			fmt.Fprintf(out, "applied %s\n", m)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "no pending migrations")
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, runner, err := openRunner()
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := runner.Down(commandContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if m == nil {
			fmt.Fprintln(out, "nothing to roll back")
			return nil
		}
		fmt.Fprintf(out, "rolled back %s\n", m)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, runner, err := openRunner()
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := runner.Status(commandContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if done, err := printStructured(out, entries); done {
			return err
		}

		t := newTable(out, "VERSION", "NAME", "APPLIED", "APPLIED AT")
		for _, s := range entries {
			appliedAt := "-"
			if s.AppliedAt != nil {
				appliedAt = shortTime(*s.AppliedAt)
			}
			t.AddRow(s.Version, s.Name, yesNo(s.Applied), appliedAt)
		}
		return t.Flush()
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&flagMigrationsDir, "dir", "migrations", "Directory containing migration files")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func openRunner() (*env, *migrations.Runner, error) {
	info, err := os.Stat(flagMigrationsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("migrations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("migrations directory: %s is not a directory", flagMigrationsDir)
	}

	e, err := openEnv()
	if err != nil {
		return nil, nil, err
	}
	return e, migrations.NewRunner(e.db.DB, os.DirFS(flagMigrationsDir)), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
