package service

import (
	"context"
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectApply_RequesterForbidden(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewDirectApplyService(uow, clk)
	_, err := svc.Apply(context.Background(), contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDirectApply_MutatesStageInOneStep(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewDirectApplyService(uow, clk)
	res, err := svc.Apply(ctx, contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     approverActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, res.UpdatedStatus)
	require.NotNil(t, res.ActualStart)
	assert.Equal(t, testutil.Date(2026, time.May, 4), *res.ActualStart)

	entries, err := changeLogRepo(database).ListByStage(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	actions := make([]domain.LogAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, domain.ActionDirectApply)
	assert.Contains(t, actions, domain.ActionApplied)
}

func TestDirectApply_MissingPredecessorsWithoutForceRejected(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"SUPPLY_ORDER": {
			testutil.WithStatus(domain.StageInProgress),
			testutil.WithActualStart(testutil.Date(2026, time.May, 1)),
		},
	})

	svc := NewDirectApplyService(uow, clk)
	_, err := svc.Apply(context.Background(), contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "SUPPLY_ORDER",
		Target:    domain.StageCompleted,
		Date:      testutil.DatePtr(2026, time.May, 20),
		Actor:     approverActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "predecessor SANCTION must be completed first")
	assert.Contains(t, ve.Reasons, "predecessor PNC must be completed first")
}

func TestDirectApply_ForceAutoCompletesMissingPredecessors(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageCompleted),
			testutil.WithActualStart(testutil.Date(2026, time.March, 2)),
			testutil.WithCompletedOn(testutil.Date(2026, time.March, 20)),
		},
		"SUPPLY_ORDER": {
			testutil.WithStatus(domain.StageInProgress),
			testutil.WithActualStart(testutil.Date(2026, time.May, 1)),
		},
	})

	svc := NewDirectApplyService(uow, clk)
	res, err := svc.Apply(ctx, contract.DirectApplyRequest{
		ProjectID:                 proj.ID,
		StageCode:                 "SUPPLY_ORDER",
		Target:                    domain.StageCompleted,
		Date:                      testutil.DatePtr(2026, time.May, 20),
		ForceBackfillPredecessors: true,
		Actor:                     approverActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.UpdatedStatus)
	assert.ElementsMatch(t, []string{"SANCTION", "PNC"}, res.BackfilledStages)

	var warnCodes []contract.WarningCode
	for _, w := range res.Warnings {
		warnCodes = append(warnCodes, w.Code)
	}
	assert.Contains(t, warnCodes, contract.WarnBackfillOutstanding)

	// Forced predecessors are completed without dates and flagged for
	// backfill, with provenance back to the stage that forced them.
	for _, code := range []string{"SANCTION", "PNC"} {
		st, err := stageRepo(database).GetByCode(ctx, proj.ID, code)
		require.NoError(t, err)
		assert.Equal(t, domain.StageCompleted, st.Status, code)
		assert.True(t, st.RequiresBackfill, code)
		assert.True(t, st.IsAutoCompleted, code)
		require.NotNil(t, st.AutoCompletedFrom, code)
		assert.Equal(t, "SUPPLY_ORDER", *st.AutoCompletedFrom, code)
		assert.Nil(t, st.ActualStart, code)
		assert.Nil(t, st.CompletedOn, code)

		entries, err := changeLogRepo(database).ListByStage(ctx, proj.ID, code)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActionAutoBackfill, entries[0].Action)
	}

	// The target stage itself carries real dates and no backfill debt.
	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "SUPPLY_ORDER")
	require.NoError(t, err)
	assert.False(t, st.RequiresBackfill)
	assert.False(t, st.IsAutoCompleted)
}

func TestDirectApply_PolicyErrorsAreNeverForced(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	// FEASIBILITY was never started; force cannot skip the policy table.
	svc := NewDirectApplyService(uow, clk)
	_, err := svc.Apply(context.Background(), contract.DirectApplyRequest{
		ProjectID:                 proj.ID,
		StageCode:                 "FEASIBILITY",
		Target:                    domain.StageCompleted,
		Date:                      testutil.DatePtr(2026, time.May, 20),
		ForceBackfillPredecessors: true,
		Actor:                     approverActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "stage must be started before it can be completed")
}

func TestDirectApply_SupersedesPendingRequest(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	reqSvc := NewRequestService(requestRepo(database), uow, clk)
	submitted, err := reqSvc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageBlocked,
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	svc := NewDirectApplyService(uow, clk)
	res, err := svc.Apply(ctx, contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     approverActor(),
	})
	require.NoError(t, err)

	var warnCodes []contract.WarningCode
	for _, w := range res.Warnings {
		warnCodes = append(warnCodes, w.Code)
	}
	assert.Contains(t, warnCodes, contract.WarnRequestSuperseded)

	cr, err := requestRepo(database).GetByID(ctx, submitted.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSuperseded, cr.DecisionStatus)
}

func TestDirectApply_ReopenResolvesByDate(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	seed := map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageCompleted),
			testutil.WithActualStart(testutil.Date(2026, time.April, 1)),
			testutil.WithCompletedOn(testutil.Date(2026, time.April, 20)),
		},
	}

	t.Run("with date lands in in_progress", func(t *testing.T) {
		proj := testutil.NewTestProject("Reopen A")
		testutil.SeedProject(t, database, proj, seed)

		svc := NewDirectApplyService(uow, clk)
		res, err := svc.Apply(ctx, contract.DirectApplyRequest{
			ProjectID: proj.ID,
			StageCode: "FEASIBILITY",
			Target:    domain.StageReopen,
			Date:      testutil.DatePtr(2026, time.May, 1),
			Actor:     approverActor(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StageInProgress, res.UpdatedStatus)
		assert.Nil(t, res.CompletedOn)
	})

	t.Run("without date lands in not_started", func(t *testing.T) {
		proj := testutil.NewTestProject("Reopen B")
		testutil.SeedProject(t, database, proj, seed)

		svc := NewDirectApplyService(uow, clk)
		res, err := svc.Apply(ctx, contract.DirectApplyRequest{
			ProjectID: proj.ID,
			StageCode: "FEASIBILITY",
			Target:    domain.StageReopen,
			Actor:     approverActor(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StageNotStarted, res.UpdatedStatus)
		assert.Nil(t, res.ActualStart)
		assert.Nil(t, res.CompletedOn)
	})
}

func TestDirectApply_AdministrativeCompletionLeavesBackfillDebt(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {testutil.WithStatus(domain.StageInProgress)},
	})

	// An approver may complete without any date; the stage then owes both
	// actual dates via backfill.
	svc := NewDirectApplyService(uow, clk)
	res, err := svc.Apply(ctx, contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageCompleted,
		Actor:     approverActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.UpdatedStatus)
	assert.Nil(t, res.ActualStart)
	assert.Nil(t, res.CompletedOn)

	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.True(t, st.RequiresBackfill)
}

func TestDirectApply_CompletionDateClampedToStart(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageInProgress),
			testutil.WithActualStart(testutil.Date(2026, time.May, 10)),
		},
	})

	svc := NewDirectApplyService(uow, clk)
	res, err := svc.Apply(ctx, contract.DirectApplyRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageCompleted,
		Date:      testutil.DatePtr(2026, time.May, 5),
		Actor:     approverActor(),
	})
	require.NoError(t, err)

	require.NotNil(t, res.CompletedOn)
	assert.Equal(t, testutil.Date(2026, time.May, 10), *res.CompletedOn)

	var warnCodes []contract.WarningCode
	for _, w := range res.Warnings {
		warnCodes = append(warnCodes, w.Code)
	}
	assert.Contains(t, warnCodes, contract.WarnCompletionClamped)
}
