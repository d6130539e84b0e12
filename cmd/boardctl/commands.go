package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/jobs"
)

// migrateCmd creates or updates the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := database.Migrate(e.db, e.logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log maintenance",
}

var (
	cleanupDays  int
	cleanupAsync bool
)

// auditCleanupCmd purges old audit records now or through the worker queue
var auditCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete audit records older than --days",
	Long: `Delete audit records older than --days (default AUDIT_RETENTION_DAYS).

With --async the purge is enqueued as an audit:cleanup task for the worker
instead of running in this process.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		days := cleanupDays
		if days == 0 {
			days = e.cfg.AuditRetentionDays
		}

		if cleanupAsync {
			if !e.cfg.RedisEnabled() {
				return fmt.Errorf("--async requires REDIS_HOST")
			}
			task, err := jobs.NewAuditCleanupTask(days)
			if err != nil {
				return err
			}
			client := jobs.NewClient(e.cfg)
			defer client.Close()

			info, err := client.EnqueueContext(cmd.Context(), task)
			if err != nil {
				return fmt.Errorf("enqueue audit cleanup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
			return nil
		}

		deleted, err := e.app().Audit.Cleanup(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d audit records older than %d days\n", deleted, days)
		return nil
	},
}

var (
	exportProject uint64
	exportOut     string
)

// auditExportCmd writes a project's whole audit trail as CSV
var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project's audit trail as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportProject == 0 {
			return fmt.Errorf("--project is required")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		return withOutput(cmd.OutOrStdout(), exportOut, func(w io.Writer) error {
			n, err := e.app().Audit.ExportProject(cmd.Context(), exportProject, w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d records\n", n)
			return nil
		})
	},
}

// withOutput runs write against stdout when path is empty or "-", otherwise
// against a newly created file. A failed close is reported.
func withOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return write(f)
}

var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Invitation maintenance",
}

// invitationsExpireCmd runs the expiry sweep once
var invitationsExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark overdue pending invitations as expired",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		n, err := e.app().Invitations.ExpireStale(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d invitations\n", n)
		return nil
	},
}

func init() {
	auditCleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "retention window in days (default AUDIT_RETENTION_DAYS)")
	auditCleanupCmd.Flags().BoolVar(&cleanupAsync, "async", false, "enqueue the purge for the worker")
	auditExportCmd.Flags().Uint64Var(&exportProject, "project", 0, "project ID")
	auditExportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")

	auditCmd.AddCommand(auditCleanupCmd, auditExportCmd)
	invitationsCmd.AddCommand(invitationsExpireCmd)
}
