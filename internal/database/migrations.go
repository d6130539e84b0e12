package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type indexDef struct {
	table   string
	name    string
	columns string
	unique  bool
	// where makes the index partial; skipped on dialects without support
	where string
}

var secondaryIndexes = []indexDef{
	// Ordering lookups
	{table: "task_columns", name: "idx_task_columns_project_position", columns: "project_id, position"},
	{table: "tasks", name: "idx_tasks_column_position", columns: "column_id, position"},

	// Audit filters
	{table: "audit_logs", name: "idx_audit_logs_project_created", columns: "project_id, created_at"},

	// One pending invitation per (project, email); accepted/expired/rejected history may repeat
	{table: "project_invitations", name: "idx_project_invitations_pending", columns: "project_id, email", unique: true, where: "status = 'pending'"},

	// One active invitation link per project
	{table: "project_invitation_links", name: "idx_project_invitation_links_active", columns: "project_id", unique: true, where: "is_active = TRUE"},
}

// SupportsPartialIndexes reports whether the dialect accepts CREATE INDEX ... WHERE.
func SupportsPartialIndexes(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return true
	default:
		return false
	}
}

// AddIndexes adds composite and partial indexes AutoMigrate cannot express.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	partial := SupportsPartialIndexes(db)

	for _, idx := range secondaryIndexes {
		if idx.where != "" && !partial {
			log.Warn("dialect lacks partial indexes, uniqueness enforced in application only",
				zap.String("index", idx.name))
			continue
		}

		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		kind := "INDEX"
		if idx.unique {
			kind = "UNIQUE INDEX"
		}
		sql := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, idx.name, idx.table, idx.columns)
		if idx.where != "" {
			sql += " WHERE " + idx.where
		}

		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
