package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step; its presence means the schema is current.
const sentinelTable = "public.upload_intents"

var steps = []migrationStep{
	{
		Name: "create_table_files",
		SQL: `CREATE TABLE IF NOT EXISTS files (
  id               UUID             PRIMARY KEY,
  owner_id         TEXT             NOT NULL,
  name             TEXT             NOT NULL,
  size_bytes       BIGINT           NOT NULL CHECK (size_bytes >= 0),
  mime_type        TEXT             NOT NULL,
  resource_type    TEXT             NOT NULL,
  url              TEXT,
  object_host_id   TEXT,
  inline_data      BYTEA,
  format           TEXT,
  width            INTEGER,
  height           INTEGER,
  duration_seconds DOUBLE PRECISION,
  upload_key       TEXT,
  created_at       TIMESTAMPTZ      NOT NULL DEFAULT now(),
  CONSTRAINT files_has_location CHECK (
    url IS NOT NULL OR object_host_id IS NOT NULL OR inline_data IS NOT NULL
  )
);`,
	},
	{
		Name: "create_index_files_owner_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_owner_created_at ON files (owner_id, created_at DESC);`,
	},
	{
		Name: "create_index_files_object_host_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_object_host_id ON files (object_host_id) WHERE object_host_id IS NOT NULL;`,
	},
	{
		Name: "create_unique_index_files_upload_key",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_files_owner_upload_key ON files (owner_id, upload_key) WHERE upload_key IS NOT NULL;`,
	},
	{
		Name: "create_table_upload_intents",
		SQL: `CREATE TABLE IF NOT EXISTS upload_intents (
  id         TEXT        PRIMARY KEY,
  owner_id   TEXT        NOT NULL,
  object_key TEXT        NOT NULL,
  size_bytes BIGINT      NOT NULL CHECK (size_bytes >= 0),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_upload_intents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_upload_intents_created_at ON upload_intents (created_at);`,
	},
}

// EnsureMigrated creates the files and upload_intents schema unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "database", "db_host", dbHost)
	start := time.Now()

	logger.InfoContext(ctx, "db_migration_check", "status", "starting")

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists)
	if err != nil {
		logger.ErrorContext(ctx, "db_migration_failed",
			"status", "error",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.InfoContext(ctx, "db_migration_skip",
			"status", "success",
			"reason", "schema already exists",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	logger.InfoContext(ctx, "db_migration_start", "status", "in_progress", "steps", len(steps))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.ErrorContext(ctx, "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.InfoContext(ctx, "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	logger.InfoContext(ctx, "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
