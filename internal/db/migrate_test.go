package db_test

import (
	"testing"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	tables := []string{
		"projects", "stage_templates", "stage_dependencies", "stages",
		"change_requests", "change_log", "audit_events",
		"plan_durations", "schedule_settings", "holidays",
		"plan_snapshots", "plan_snapshot_rows",
	}
	for _, table := range tables {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrate_IsRerunnable(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	// OpenDB already migrated once; a second pass must be a no-op.
	assert.NoError(t, db.Migrate(database))
}

func TestMigrate_EnforcesOnePendingRequestPerStage(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(`INSERT INTO projects (id, name, requester_id, approver_id, created_at, updated_at)
		VALUES ('p1', 'P', 'po', 'hod', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	insert := `INSERT INTO change_requests
		(id, project_id, stage_code, requested_status, requested_by, requested_on, decision_status)
		VALUES (?, 'p1', 'FEASIBILITY', 'in_progress', 'po', '2026-01-02T00:00:00Z', ?)`

	_, err = database.Exec(insert, "r1", "pending")
	require.NoError(t, err)

	// A second pending request for the same stage violates the partial
	// unique index.
	_, err = database.Exec(insert, "r2", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")

	// Decided requests do not count against the limit.
	_, err = database.Exec(insert, "r3", "rejected")
	assert.NoError(t, err)
}
