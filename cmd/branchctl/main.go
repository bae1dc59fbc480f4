// Command branchctl переключает локальный .env между ветками базы Neon.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/branchctl"
	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/RoGogDBD/gtryk-dashboard/internal/config/db"
	"github.com/RoGogDBD/gtryk-dashboard/internal/envfile"
	"github.com/RoGogDBD/gtryk-dashboard/internal/logging"
	"github.com/RoGogDBD/gtryk-dashboard/internal/neon"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envPath  string
	dbName   string
	delay    time.Duration
	apiURL   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "branchctl",
	Short: "Neon branch manager for the local .env",
	Long: `Switch, create, list, delete and reset Neon database branches.

Without a subcommand an interactive menu is shown. NEON_API_KEY and
NEON_PROJECT_ID are read from the environment or the .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(config.LogConfig{Level: logLevel, Format: "console"})
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.RunMenu(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all branches with their hosts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.List(cmd.Context())
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Point NEON_DB_URL at an existing branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.Switch(cmd.Context(), args[0])
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a branch from main and switch to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.Create(cmd.Context(), args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a branch (main is protected)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.Delete(cmd.Context(), args[0])
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Recreate a branch from main and switch to it",
	Long: `Recreate a branch from main: resolve main, delete the branch, create it
again with the same name. A fixed delay separates the steps and a failure
in the middle is not rolled back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		return m.Reset(cmd.Context(), args[0])
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the database NEON_DB_URL points at",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	dsn, err := envfile.PostgresDSN(
		os.Getenv(envfile.DBURLKey),
		os.Getenv("NEON_DB_USERNAME"),
		os.Getenv("NEON_DB_PASSWORD"),
	)
	if err != nil {
		return err
	}

	pool, err := db.Connect(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	host, _ := neon.HostFromDBURL(os.Getenv(envfile.DBURLKey))
	fmt.Printf("✅ Connected to %s\n", host)
	return nil
}

func newManager() (*branchctl.Manager, error) {
	apiKey := os.Getenv("NEON_API_KEY")
	projectID := os.Getenv("NEON_PROJECT_ID")
	if apiKey == "" || projectID == "" {
		return nil, errors.New("NEON_API_KEY and NEON_PROJECT_ID must be set in .env")
	}

	client, err := neon.NewClient(apiKey, projectID, neon.WithBaseURL(apiURL), neon.WithDelay(delay))
	if err != nil {
		return nil, err
	}
	return branchctl.NewManager(client, branchctl.NewSurveyPrompter(), os.Stdout, branchctl.Config{
		EnvPath: envPath,
		DBName:  dbName,
		DBURL:   os.Getenv(envfile.DBURLKey),
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "Path to the .env file to read and rewrite")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", envfile.DefaultDB, "Database name used in NEON_DB_URL")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", neon.DefaultDelay, "Pause between reset steps")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", neon.DefaultBaseURL, "Neon API base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level")

	rootCmd.AddCommand(listCmd, switchCmd, createCmd, deleteCmd, resetCmd, checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		zlog.Error().Err(err).Msg("branchctl failed")
		stop()
		os.Exit(1)
	}
}
