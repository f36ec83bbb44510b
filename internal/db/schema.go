package db

import "database/sql"

// SchemaSQL is the complete journal schema.
//
// This is the single source of truth for the database schema. Tests load it
// through GetSchemaSQL() instead of declaring their own tables, so a
// repository that references a missing column fails with "no such column"
// at test time.
const SchemaSQL = `
-- Task events (append-only journal of provider notifications)
CREATE TABLE IF NOT EXISTS task_events (
	id TEXT PRIMARY KEY,
	provider_type TEXT NOT NULL,
	project_path TEXT NOT NULL,
	event_type TEXT NOT NULL CHECK(event_type IN ('created', 'updated', 'deleted', 'moved')),
	task_id TEXT NOT NULL,
	task_title TEXT,
	previous_status TEXT,
	new_status TEXT,
	actor_id TEXT,
	payload_json TEXT NOT NULL DEFAULT '{}',
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_task_events_project ON task_events(project_path);
CREATE INDEX IF NOT EXISTS idx_task_events_task ON task_events(task_id);
CREATE INDEX IF NOT EXISTS idx_task_events_type ON task_events(event_type);
CREATE INDEX IF NOT EXISTS idx_task_events_timestamp ON task_events(timestamp);
`

// InitSchema creates the database schema. Every statement is idempotent.
func InitSchema(conn *sql.DB) error {
	_, err := conn.Exec(SchemaSQL)
	return err
}

// GetSchemaSQL returns the authoritative schema for tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
