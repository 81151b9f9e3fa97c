package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anirudhsen/stagetrack/internal/contract"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_CreatesPendingRequestWithoutMutatingStage(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Note:      "kicking off the study",
		Actor:     requesterActor(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.RequestID)

	// Stage is untouched until a decision lands.
	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Equal(t, domain.StageNotStarted, st.Status)
	assert.Nil(t, st.ActualStart)

	cr, err := requestRepo(database).GetByID(ctx, res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPending, cr.DecisionStatus)
	assert.Equal(t, "po-1", cr.RequestedBy)

	entries, err := changeLogRepo(database).ListByStage(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionRequested, entries[0].Action)
}

func TestSubmit_SecondPendingRequestConflicts(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	first := contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	}
	_, err := svc.Submit(ctx, first)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, first)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubmit_OutsiderForbidden(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)
	_, err := svc.Submit(context.Background(), contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     outsiderActor(),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmit_CompletionWithoutDateRejectedForRequester(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageInProgress),
			testutil.WithActualStart(testutil.Date(2026, time.May, 4)),
		},
	})

	svc := NewRequestService(requestRepo(database), uow, clk)
	_, err := svc.Submit(context.Background(), contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageCompleted,
		Actor:     requesterActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "completion date is required")
}

func TestSubmit_MissingPredecessorRejected(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)
	_, err := svc.Submit(context.Background(), contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "SANCTION",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "predecessor FEASIBILITY must be completed first")
}

func TestSubmit_FutureDateRejected(t *testing.T) {
	database, uow, clk := setupEngine(t)

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)
	_, err := svc.Submit(context.Background(), contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.July, 1),
		Actor:     requesterActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "date cannot be in the future")
}

func TestDecide_ApproveAppliesChangeAndLogsDecision(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, contract.DecideRequest{
		RequestID: res.RequestID,
		Approve:   true,
		Note:      "go ahead",
		Actor:     approverActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionApproved, decided.Decision)
	require.NotNil(t, decided.Stage)
	assert.Equal(t, domain.StageInProgress, decided.Stage.Status)
	require.NotNil(t, decided.Stage.ActualStart)
	assert.Equal(t, testutil.Date(2026, time.May, 4), *decided.Stage.ActualStart)

	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, st.Status)

	cr, err := requestRepo(database).GetByID(ctx, res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionApproved, cr.DecisionStatus)
	require.NotNil(t, cr.DecidedBy)
	assert.Equal(t, "hod-1", *cr.DecidedBy)

	entries, err := changeLogRepo(database).ListByStage(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	actions := make([]domain.LogAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, domain.ActionRequested)
	assert.Contains(t, actions, domain.ActionApproved)
	assert.Contains(t, actions, domain.ActionApplied)
}

func TestDecide_RejectLeavesStageUntouched(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, contract.DecideRequest{
		RequestID: res.RequestID,
		Approve:   false,
		Note:      "needs budget confirmation",
		Actor:     approverActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionRejected, decided.Decision)

	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Equal(t, domain.StageNotStarted, st.Status)
	assert.Nil(t, st.ActualStart)

	// A fresh request may now be submitted for the same stage.
	_, err = svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 5),
		Actor:     requesterActor(),
	})
	assert.NoError(t, err)
}

func TestDecide_AlreadyDecidedConflicts(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	decide := contract.DecideRequest{RequestID: res.RequestID, Approve: true, Actor: approverActor()}
	_, err = svc.Decide(ctx, decide)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, decide)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDecide_RequesterForbidden(t *testing.T) {
	database, uow, clk := setupEngine(t)

	svc := NewRequestService(requestRepo(database), uow, clk)
	_, err := svc.Decide(context.Background(), contract.DecideRequest{
		RequestID: "whatever",
		Approve:   true,
		Actor:     requesterActor(),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDecide_RevalidatesAgainstCurrentState(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	stages := testutil.SeedProject(t, database, proj, nil)

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageInProgress,
		Date:      testutil.DatePtr(2026, time.May, 4),
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	// The stage moved on between submission and decision.
	st := stages["FEASIBILITY"]
	st.Status = domain.StageInProgress
	start := testutil.Date(2026, time.May, 3)
	st.ActualStart = &start
	require.NoError(t, stageRepo(database).Update(ctx, st))

	_, err = svc.Decide(ctx, contract.DecideRequest{
		RequestID: res.RequestID,
		Approve:   true,
		Actor:     approverActor(),
	})
	require.Error(t, err)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	// The request stays pending for a corrected decision later.
	cr, err := requestRepo(database).GetByID(ctx, res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPending, cr.DecisionStatus)
}

func TestDecide_DatelessCompletionRejectedEvenWhenApproverSubmitted(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageInProgress),
			testutil.WithActualStart(testutil.Date(2026, time.May, 4)),
		},
	})

	svc := NewRequestService(requestRepo(database), uow, clk)

	// An approver may submit without a date; the date gate still holds at
	// decision time. Dateless completion belongs to direct apply only.
	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "FEASIBILITY",
		Target:    domain.StageCompleted,
		Actor:     approverActor(),
	})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, contract.DecideRequest{
		RequestID: res.RequestID,
		Approve:   true,
		Actor:     approverActor(),
	})
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reasons, "completion date is required")

	st, err := stageRepo(database).GetByCode(ctx, proj.ID, "FEASIBILITY")
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, st.Status)
	assert.False(t, st.RequiresBackfill)

	cr, err := requestRepo(database).GetByID(ctx, res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPending, cr.DecisionStatus)
}

func TestDecide_CompletionUsesPredecessorSuggestedStart(t *testing.T) {
	database, uow, clk := setupEngine(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade")
	testutil.SeedProject(t, database, proj, map[string][]testutil.StageOption{
		"FEASIBILITY": {
			testutil.WithStatus(domain.StageCompleted),
			testutil.WithActualStart(testutil.Date(2026, time.April, 1)),
			testutil.WithCompletedOn(testutil.Date(2026, time.April, 20)),
		},
		"SANCTION": {
			testutil.WithStatus(domain.StageInProgress),
		},
	})

	svc := NewRequestService(requestRepo(database), uow, clk)

	res, err := svc.Submit(ctx, contract.SubmitRequest{
		ProjectID: proj.ID,
		StageCode: "SANCTION",
		Target:    domain.StageCompleted,
		Date:      testutil.DatePtr(2026, time.May, 10),
		Actor:     requesterActor(),
	})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, contract.DecideRequest{
		RequestID: res.RequestID,
		Approve:   true,
		Actor:     approverActor(),
	})
	require.NoError(t, err)

	// SANCTION had no recorded start; it inherits the latest predecessor
	// completion date.
	require.NotNil(t, decided.Stage.ActualStart)
	assert.Equal(t, testutil.Date(2026, time.April, 20), *decided.Stage.ActualStart)
	require.NotNil(t, decided.Stage.CompletedOn)
	assert.Equal(t, testutil.Date(2026, time.May, 10), *decided.Stage.CompletedOn)
	assert.False(t, decided.Stage.RequiresBackfill)
}
