package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choreshare/internal/config"
	"github.com/dukerupert/choreshare/internal/database"
	"github.com/dukerupert/choreshare/internal/logging"
	"github.com/dukerupert/choreshare/internal/rotation"
	"github.com/dukerupert/choreshare/internal/server"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "choreshare",
	Short: "Weekly chore rotation for shared houses",
	Long: `choreshare assigns a house's chores to its roommates every week,
balancing load over recent history, and serves the JSON API and live updates
that roommates use to complete them.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with CHORESHARE_* settings")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(streaksCmd)
	rootCmd.AddCommand(sweepMissedCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds what every command needs: settings, a logger and the database.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	logs   io.Closer
}

func openApp() (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logs, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db, logs: logs}, nil
}

func (a *app) server() *server.Server {
	return server.New(a.db, server.Options{
		Location:       a.cfg.Location,
		SessionTTL:     a.cfg.SessionTTL,
		ReminderWindow: a.cfg.ReminderWindow,
		Runner: rotation.RunnerConfig{
			Interval:         a.cfg.RotationInterval,
			ReminderInterval: a.cfg.ReminderInterval,
			RunOnStart:       a.cfg.RunOnStart,
		},
	}, a.logger)
}

func (a *app) Close() {
	a.db.Close()
	a.logs.Close()
}
