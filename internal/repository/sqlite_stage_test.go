package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"github.com/anirudhsen/stagetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRepo_CreateAndGetByCode(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))

	from := "SUPPLY_ORDER"
	st := testutil.NewTestStage(proj.ID, "SANCTION",
		testutil.WithStatus(domain.StageCompleted),
		testutil.WithActualStart(testutil.Date(2026, time.April, 1)),
		testutil.WithCompletedOn(testutil.Date(2026, time.April, 15)),
		testutil.WithPlannedDates(testutil.Date(2026, time.March, 30), testutil.Date(2026, time.April, 10)),
		testutil.WithRequiresBackfill(),
	)
	st.IsAutoCompleted = true
	st.AutoCompletedFrom = &from
	require.NoError(t, repo.Create(ctx, st))

	fetched, err := repo.GetByCode(ctx, proj.ID, "SANCTION")
	require.NoError(t, err)
	assert.Equal(t, st.ID, fetched.ID)
	assert.Equal(t, domain.StageCompleted, fetched.Status)
	require.NotNil(t, fetched.ActualStart)
	assert.Equal(t, testutil.Date(2026, time.April, 1), *fetched.ActualStart)
	require.NotNil(t, fetched.PlannedDue)
	assert.Equal(t, testutil.Date(2026, time.April, 10), *fetched.PlannedDue)
	assert.True(t, fetched.RequiresBackfill)
	assert.True(t, fetched.IsAutoCompleted)
	require.NotNil(t, fetched.AutoCompletedFrom)
	assert.Equal(t, "SUPPLY_ORDER", *fetched.AutoCompletedFrom)
}

func TestStageRepo_GetByCode_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)

	_, err := repo.GetByCode(context.Background(), "nope", "FEASIBILITY")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStageRepo_Update_RoundTripsNilDates(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))

	st := testutil.NewTestStage(proj.ID, "FEASIBILITY",
		testutil.WithStatus(domain.StageInProgress),
		testutil.WithActualStart(testutil.Date(2026, time.April, 1)),
	)
	require.NoError(t, repo.Create(ctx, st))

	// Reverting to not_started clears the date.
	st.Status = domain.StageNotStarted
	st.ActualStart = nil
	require.NoError(t, repo.Update(ctx, st))

	fetched, err := repo.GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Equal(t, domain.StageNotStarted, fetched.Status)
	assert.Nil(t, fetched.ActualStart)
}

func TestStageRepo_ListRequiringBackfill(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))

	debt := testutil.NewTestStage(proj.ID, "SANCTION",
		testutil.WithStatus(domain.StageCompleted),
		testutil.WithRequiresBackfill(),
	)
	clean := testutil.NewTestStage(proj.ID, "FEASIBILITY",
		testutil.WithStatus(domain.StageCompleted),
		testutil.WithActualStart(testutil.Date(2026, time.April, 1)),
		testutil.WithCompletedOn(testutil.Date(2026, time.April, 15)),
	)
	require.NoError(t, repo.Create(ctx, debt))
	require.NoError(t, repo.Create(ctx, clean))

	owing, err := repo.ListRequiringBackfill(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, owing, 1)
	assert.Equal(t, "SANCTION", owing[0].Code)
}

func TestStageRepo_UpdatePlannedDates(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))

	st := testutil.NewTestStage(proj.ID, "FEASIBILITY")
	require.NoError(t, repo.Create(ctx, st))

	start := testutil.Date(2026, time.March, 2)
	due := testutil.Date(2026, time.March, 4)
	require.NoError(t, repo.UpdatePlannedDates(ctx, proj.ID, "FEASIBILITY", &start, &due))

	fetched, err := repo.GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	require.NotNil(t, fetched.PlannedStart)
	assert.Equal(t, start, *fetched.PlannedStart)

	// Clearing works too.
	require.NoError(t, repo.UpdatePlannedDates(ctx, proj.ID, "FEASIBILITY", nil, nil))
	fetched, err = repo.GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Nil(t, fetched.PlannedStart)
	assert.Nil(t, fetched.PlannedDue)
}

func TestStageRepo_DuplicateCodeRejected(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStageRepo(database)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))

	require.NoError(t, repo.Create(ctx, testutil.NewTestStage(proj.ID, "FEASIBILITY")))
	err := repo.Create(ctx, testutil.NewTestStage(proj.ID, "FEASIBILITY"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}
