package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/testutil"
)

// setupEngine prepares an in-memory database with the canonical template
// set seeded, plus a UnitOfWork and a clock pinned to 2026-06-01.
func setupEngine(t *testing.T) (*sql.DB, db.UnitOfWork, testutil.FixedClock) {
	t.Helper()
	database := testutil.NewTestDB(t)
	testutil.SeedTemplates(t, database)
	clk := testutil.FixedClock{T: testutil.Date(2026, time.June, 1)}
	return database, testutil.NewTestUoW(database), clk
}

func requesterActor() contract.Actor {
	return contract.Actor{ID: "po-1", IsRequester: true}
}

func approverActor() contract.Actor {
	return contract.Actor{ID: "hod-1", IsApprover: true}
}

func outsiderActor() contract.Actor {
	return contract.Actor{ID: "stranger"}
}

func stageRepo(database *sql.DB) repository.StageRepo {
	return repository.NewSQLiteStageRepo(database)
}

func requestRepo(database *sql.DB) repository.RequestRepo {
	return repository.NewSQLiteRequestRepo(database)
}

func changeLogRepo(database *sql.DB) repository.ChangeLogRepo {
	return repository.NewSQLiteChangeLogRepo(database)
}
