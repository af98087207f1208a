package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/db/dbtest"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
)

func newDeal(name string) *model.Deal {
	return &model.Deal{
		Name:          name,
		Type:          model.DealTypeSellSide,
		Status:        model.DealStatusActive,
		Stage:         model.DealStagePitch,
		ProjectStep:   model.ProjectStepPitch,
		ExpectedValue: decimal.NewFromInt(1_000_000),
		FeeRetainer:   decimal.Zero,
		FeeSuccess:    decimal.Zero,
		Currency:      "EUR",
	}
}

func assertSingleOpenRecord(t *testing.T, repo *DealRepository, dealID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	history, err := repo.History(ctx, dealID)
	require.NoError(t, err)
	open := pipeline.OpenRecords(history)
	require.Len(t, open, 1)

	deal, err := repo.Get(ctx, dealID)
	require.NoError(t, err)
	assert.Equal(t, deal.Stage, open[0].Stage)
}

func TestDealRepository_CreateOpensHistory(t *testing.T) {
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Alpine")
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(context.Background(), deal, now))
	require.NotEqual(t, uuid.Nil, deal.ID)
	assertSingleOpenRecord(t, repo, deal.ID)
}

func TestDealRepository_StageRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Birch")
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, deal, start))

	stages := []model.DealStage{model.DealStageMandate, model.DealStageClosing, model.DealStagePitch}
	for i, stage := range stages {
		_, err := repo.AdvanceStage(ctx, StageChange{
			DealID: deal.ID,
			Stage:  stage,
			At:     start.Add(time.Duration(i+1) * time.Hour),
			Author: "Jane Advisor",
		})
		require.NoError(t, err)
		assertSingleOpenRecord(t, repo, deal.ID)
	}

	history, err := repo.History(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	closed := 0
	for _, h := range history {
		if h.ExitedAt != nil {
			closed++
		}
	}
	assert.Equal(t, 3, closed)
	assert.Equal(t, model.DealStagePitch, history[3].Stage)
	assert.Nil(t, history[3].ExitedAt)
	require.NotNil(t, history[0].ExitedAt)
	assert.True(t, history[0].ExitedAt.Equal(history[1].EnteredAt))

	activities, err := repo.ListActivities(ctx, deal.ID, Page{})
	require.NoError(t, err)
	assert.Len(t, activities, 3)
	assert.Equal(t, model.ActivityKindStageChange, activities[0].Kind)
}

func TestDealRepository_HistorySameInstant(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Aspen")
	at := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, deal, at))
	_, err := repo.AdvanceStage(ctx, StageChange{DealID: deal.ID, Stage: model.DealStageMandate, At: at})
	require.NoError(t, err)

	history, err := repo.History(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.DealStagePitch, history[0].Stage)
	assert.NotNil(t, history[0].ExitedAt)
	assert.Equal(t, model.DealStageMandate, history[1].Stage)
	assert.Nil(t, history[1].ExitedAt)
}

func TestDealRepository_RandomStageSequenceKeepsOneOpenRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Cedar")
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, deal, at))

	rng := rand.New(rand.NewSource(42))
	stages := model.DealStages()
	for i := 0; i < 25; i++ {
		at = at.Add(time.Minute)
		_, err := repo.AdvanceStage(ctx, StageChange{DealID: deal.ID, Stage: stages[rng.Intn(len(stages))], At: at})
		require.NoError(t, err)
	}
	assertSingleOpenRecord(t, repo, deal.ID)
}

func TestDealRepository_AdvanceStageUnknownDeal(t *testing.T) {
	repo := NewDealRepository(dbtest.Open(t))
	_, err := repo.AdvanceStage(context.Background(), StageChange{DealID: uuid.New(), Stage: model.DealStageMandate, At: time.Now()})
	assert.True(t, IsNotFound(err))
}

func TestDealRepository_SetProjectStepSyncsStage(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Delta")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, deal, now))

	updated, opened, err := repo.SetProjectStep(ctx, deal.ID, model.ProjectStepTeaser, false, pipeline.StageForStep, now.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Nil(t, opened)
	assert.Equal(t, model.ProjectStepTeaser, updated.ProjectStep)
	assert.Equal(t, model.DealStagePitch, updated.Stage)

	updated, opened, err = repo.SetProjectStep(ctx, deal.ID, model.ProjectStepNDA, true, pipeline.StageForStep, now.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.Equal(t, model.DealStageMandate, updated.Stage)
	assertSingleOpenRecord(t, repo, deal.ID)
}

func TestDealRepository_UpdateKeepsStage(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Elm")
	require.NoError(t, repo.Create(ctx, deal, time.Now()))

	deal.Name = "Project Elm II"
	deal.Stage = model.DealStageClosing
	deal.ExpectedValue = decimal.RequireFromString("2500000.50")
	require.NoError(t, repo.Update(ctx, deal))

	stored, err := repo.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Project Elm II", stored.Name)
	assert.Equal(t, model.DealStagePitch, stored.Stage)
	assert.True(t, stored.ExpectedValue.Equal(decimal.RequireFromString("2500000.50")))
}

func TestDealRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	a := newDeal("Harbor Logistics")
	b := newDeal("Summit Foods")
	require.NoError(t, repo.Create(ctx, a, time.Now()))
	require.NoError(t, repo.Create(ctx, b, time.Now()))
	_, err := repo.AdvanceStage(ctx, StageChange{DealID: b.ID, Stage: model.DealStageMandate, At: time.Now()})
	require.NoError(t, err)

	deals, err := repo.List(ctx, DealFilter{Stage: model.DealStageMandate})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, b.ID, deals[0].ID)

	deals, err = repo.List(ctx, DealFilter{Search: "harbor"})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, a.ID, deals[0].ID)
}

func TestDealRepository_TeamMembers(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(dbtest.Open(t))
	deal := newDeal("Project Fir")
	require.NoError(t, repo.Create(ctx, deal, time.Now()))

	member := &model.DealTeamMember{DealID: deal.ID, UserID: "u-1", DisplayName: "Jane", Role: model.DealTeamRoleLead}
	require.NoError(t, repo.AddTeamMember(ctx, member))
	assert.ErrorIs(t, repo.AddTeamMember(ctx, &model.DealTeamMember{DealID: deal.ID, UserID: "u-1", Role: model.DealTeamRoleAnalyst}), ErrDuplicate)

	team, err := repo.ListTeam(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, team, 1)

	require.NoError(t, repo.RemoveTeamMember(ctx, deal.ID, member.ID))
	assert.True(t, IsNotFound(repo.RemoveTeamMember(ctx, deal.ID, member.ID)))
}
