package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		requester_id   TEXT NOT NULL,
		approver_id    TEXT NOT NULL,
		pnc_applicable INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stage_templates (
		code     TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		optional INTEGER NOT NULL DEFAULT 0,
		is_pnc   INTEGER NOT NULL DEFAULT 0,
		version  INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS stage_dependencies (
		from_code       TEXT NOT NULL,
		depends_on_code TEXT NOT NULL,
		version         INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (from_code, depends_on_code)
	)`,

	`CREATE TABLE IF NOT EXISTS stages (
		id                  TEXT PRIMARY KEY,
		project_id          TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		code                TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'not_started'
		                    CHECK(status IN ('not_started','in_progress','blocked','completed','skipped')),
		planned_start       TEXT,
		planned_due         TEXT,
		actual_start        TEXT,
		completed_on        TEXT,
		requires_backfill   INTEGER NOT NULL DEFAULT 0,
		is_auto_completed   INTEGER NOT NULL DEFAULT 0,
		auto_completed_from TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		UNIQUE (project_id, code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stages_project ON stages(project_id)`,

	`CREATE TABLE IF NOT EXISTS change_requests (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		stage_code       TEXT NOT NULL,
		requested_status TEXT NOT NULL,
		requested_date   TEXT,
		note             TEXT NOT NULL DEFAULT '',
		requested_by     TEXT NOT NULL,
		requested_on     TEXT NOT NULL,
		decision_status  TEXT NOT NULL DEFAULT 'pending'
		                 CHECK(decision_status IN ('pending','approved','rejected','superseded')),
		decided_by       TEXT,
		decided_on       TEXT,
		decision_note    TEXT NOT NULL DEFAULT ''
	)`,
	// One in-flight request per (project, stage). The services also run a
	// friendly existence check; this index closes the concurrent-submit race.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_change_requests_one_pending
		ON change_requests(project_id, stage_code) WHERE decision_status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_change_requests_project ON change_requests(project_id)`,

	`CREATE TABLE IF NOT EXISTS change_log (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		stage_code        TEXT NOT NULL,
		action            TEXT NOT NULL,
		from_status       TEXT,
		to_status         TEXT,
		from_actual_start TEXT,
		to_actual_start   TEXT,
		from_completed_on TEXT,
		to_completed_on   TEXT,
		actor             TEXT NOT NULL,
		note              TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_change_log_project ON change_log(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_change_log_stage ON change_log(project_id, stage_code)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		action     TEXT NOT NULL,
		actor      TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plan_durations (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		stage_code TEXT NOT NULL,
		days       INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, stage_code)
	)`,

	`CREATE TABLE IF NOT EXISTS schedule_settings (
		project_id       TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		anchor_start     TEXT,
		include_weekends INTEGER NOT NULL DEFAULT 0,
		skip_holidays    INTEGER NOT NULL DEFAULT 1,
		handoff_policy   TEXT NOT NULL DEFAULT 'next_working_day'
		                 CHECK(handoff_policy IN ('same_day','next_working_day'))
	)`,

	`CREATE TABLE IF NOT EXISTS holidays (
		day TEXT PRIMARY KEY
	)`,

	`CREATE TABLE IF NOT EXISTS plan_snapshots (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		taken_by   TEXT NOT NULL,
		taken_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plan_snapshot_rows (
		snapshot_id   TEXT NOT NULL REFERENCES plan_snapshots(id) ON DELETE CASCADE,
		stage_code    TEXT NOT NULL,
		planned_start TEXT,
		planned_due   TEXT,
		PRIMARY KEY (snapshot_id, stage_code)
	)`,
}
