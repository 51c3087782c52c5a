package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/internal/infra/postgres"
	"github.com/hromada/backoffice/pkg/logger"
)

var (
	version string

	// Global flags
	flagAPIURL  string
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "backoffice-admin",
	Short: "Municipal back-office administration CLI",
	Long: `backoffice-admin runs operational tasks against the back-office database:
schema migrations, open-data registry publication and the search audit log.

Database and storage settings are read from the same environment variables
as the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Commands stop their work when ctx ends.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", envOr("BACKOFFICE_API_URL", "http://localhost:8080"), "API base URL for status checks (env: BACKOFFICE_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(searchesCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// env holds what the database-backed commands share.
type env struct {
	cfg *config.Config
	db  *postgres.DB
	log *logger.Logger
}

// openEnv loads the config and connects to the database.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &env{cfg: cfg, db: db, log: newLogger(os.Stderr)}, nil
}

func (e *env) Close() {
	_ = e.db.Close()
}

func newLogger(w io.Writer) *logger.Logger {
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "text", Output: w})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backoffice-admin version %s\n", version)
		fmt.Fprintf(out, "  Go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
