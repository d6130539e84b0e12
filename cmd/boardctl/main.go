package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/app"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "boardctl",
	Short:         "Administrative commands for the Kanban board API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is what every subcommand needs: configuration, a logger and a database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) app() *app.App {
	return app.New(e.cfg, e.logger, e.db, nil)
}

func (e *env) close() {
	_ = database.Close(e.db)
	_ = e.logger.Sync()
}

func main() {
	rootCmd.AddCommand(migrateCmd, auditCmd, invitationsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
