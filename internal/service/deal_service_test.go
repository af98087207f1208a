package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/repository"
)

func TestDealService_CreateDefaults(t *testing.T) {
	e := newEnv(t)

	deal, err := e.dealSvc.Create(e.ctx, advisor, CreateDealInput{
		Name:          "  Project Falcon ",
		Type:          model.DealTypeSellSide,
		ExpectedValue: decimal.RequireFromString("12500000.50"),
		Currency:      "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Project Falcon", deal.Name)
	assert.Equal(t, model.DealStatusActive, deal.Status)
	assert.Equal(t, model.DealStagePitch, deal.Stage)
	assert.Equal(t, model.ProjectStepPitch, deal.ProjectStep)
	assert.Equal(t, "USD", deal.Currency)

	history, err := e.dealSvc.History(e.ctx, deal.ID, pipeline.Descending)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DealStagePitch, history[0].Stage)
	assert.Nil(t, history[0].ExitedAt)
}

func TestDealService_CreateValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.dealSvc.Create(e.ctx, viewer, CreateDealInput{Name: "x", Type: model.DealTypeSellSide})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	cases := map[string]CreateDealInput{
		"missing name":   {Type: model.DealTypeSellSide},
		"bad type":       {Name: "x", Type: "IPO"},
		"bad stage":      {Name: "x", Type: model.DealTypeSellSide, Stage: "LEAD"},
		"bad currency":   {Name: "x", Type: model.DealTypeSellSide, Currency: "EURO"},
		"negative value": {Name: "x", Type: model.DealTypeSellSide, ExpectedValue: decimal.NewFromInt(-1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.dealSvc.Create(e.ctx, advisor, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDealService_AdvanceDealStageRoundTrip(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Granite")

	for _, stage := range []model.DealStage{
		model.DealStageMandate,
		model.DealStageClosing,
		model.DealStageArchived,
		model.DealStagePitch,
	} {
		e.clock.Advance(24 * time.Hour)
		opened, err := e.dealSvc.AdvanceDealStage(e.ctx, advisor, deal.ID, stage)
		require.NoError(t, err)
		assert.Equal(t, stage, opened.Stage)
		assert.True(t, opened.Open())
	}

	timeline, err := e.dealSvc.History(e.ctx, deal.ID, pipeline.Descending)
	require.NoError(t, err)
	require.Len(t, timeline, 5)
	assert.Equal(t, model.DealStagePitch, timeline[0].Stage)
	assert.Nil(t, timeline[0].ExitedAt)
	for _, entry := range timeline[1:] {
		assert.NotNil(t, entry.ExitedAt)
	}

	view, err := e.dealSvc.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStagePitch, view.Deal.Stage)

	activities, err := e.dealSvc.ListActivities(e.ctx, deal.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, activities, 4)
	assert.Equal(t, model.ActivityKindStageChange, activities[0].Kind)
	assert.Equal(t, "Ada Advisor", activities[0].Author)
	assert.Equal(t, "ARCHIVED -> PITCH", activities[0].Body)
}

func TestDealService_AdvanceDealStageErrors(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Oak")

	_, err := e.dealSvc.AdvanceDealStage(e.ctx, advisor, deal.ID, "WON")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.dealSvc.AdvanceDealStage(e.ctx, advisor, uuid.New(), model.DealStageMandate)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.dealSvc.AdvanceDealStage(e.ctx, viewer, deal.ID, model.DealStageMandate)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := e.deals.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStagePitch, got.Stage)
}

func TestDealService_GetServesCacheUntilInvalidated(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Cedar")

	_, err := e.dealSvc.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.True(t, e.views.has(cache.KeyDeal(deal.ID)))

	_, err = e.dealSvc.AdvanceDealStage(e.ctx, advisor, deal.ID, model.DealStageMandate)
	require.NoError(t, err)
	assert.False(t, e.views.has(cache.KeyDeal(deal.ID)))
	assert.Contains(t, e.views.invalidated, cache.KeyDashboard)
	assert.Contains(t, e.views.invalidated, cache.KeyDealList)

	view, err := e.dealSvc.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DealStageMandate, view.Deal.Stage)
	require.Len(t, view.Timeline, 2)
	assert.Equal(t, model.DealStageMandate, view.Timeline[0].Stage)
}

func TestDealService_SetProjectStep(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Elm")

	updated, err := e.dealSvc.SetProjectStep(e.ctx, advisor, deal.ID, model.ProjectStepNDA, false)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStepNDA, updated.ProjectStep)
	assert.Equal(t, model.DealStagePitch, updated.Stage)

	updated, err = e.dealSvc.SetProjectStep(e.ctx, advisor, deal.ID, model.ProjectStepSigningClosing, true)
	require.NoError(t, err)
	assert.Equal(t, model.DealStageClosing, updated.Stage)

	_, err = e.dealSvc.SetProjectStep(e.ctx, advisor, deal.ID, "DONE", true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDealService_UpdateKeepsStage(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Pine")
	name := "Project Pine II"
	status := model.DealStatusOnHold
	fee := decimal.NewFromInt(50000)

	updated, err := e.dealSvc.Update(e.ctx, advisor, deal.ID, UpdateDealInput{Name: &name, Status: &status, FeeRetainer: &fee})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, model.DealStatusOnHold, updated.Status)
	assert.True(t, fee.Equal(updated.FeeRetainer))
	assert.Equal(t, model.DealStagePitch, updated.Stage)

	blank := " "
	_, err = e.dealSvc.Update(e.ctx, advisor, deal.ID, UpdateDealInput{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDealService_Analytics(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Maple")
	investorSvc := NewInvestorService(e.investors, e.deals, e.directory, nil, nil, nil, e.views, zerolog.Nop()).WithClock(e.clock.Now)

	for i, status := range []model.InvestorStatus{
		model.InvestorStatusLonglist,
		model.InvestorStatusContacted,
		model.InvestorStatusNDASigned,
		model.InvestorStatusDropped,
	} {
		org := e.createInvestorOrg(t, "Fund "+string(rune('A'+i)))
		_, err := investorSvc.AddToLonglist(e.ctx, advisor, deal.ID, AddInvestorInput{OrganizationID: org.ID, Status: status})
		require.NoError(t, err)
	}

	analytics, err := e.dealSvc.Analytics(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, analytics.Funnel.Total)
	assert.Equal(t, 3, analytics.Funnel.Contacted)
	assert.Equal(t, 1, analytics.Funnel.NDASigned)
	assert.Equal(t, 75.0, analytics.Rates.Contacted)
	assert.Equal(t, 1, analytics.StatusCounts[model.InvestorStatusDropped])
	assert.Equal(t, 0, analytics.StatusCounts[model.InvestorStatusLOI])
}

func TestDealService_TeamAndComments(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Ash")

	member, err := e.dealSvc.AddTeamMember(e.ctx, advisor, deal.ID, "u-9", "Bo Banker", model.DealTeamRoleLead)
	require.NoError(t, err)
	_, err = e.dealSvc.AddTeamMember(e.ctx, advisor, deal.ID, "u-9", "Bo Banker", model.DealTeamRoleLead)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, e.dealSvc.RemoveTeamMember(e.ctx, advisor, deal.ID, member.ID))
	assert.ErrorIs(t, e.dealSvc.RemoveTeamMember(e.ctx, advisor, deal.ID, member.ID), ErrNotFound)

	_, err = e.dealSvc.AddComment(e.ctx, advisor, deal.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	comment, err := e.dealSvc.AddComment(e.ctx, advisor, deal.ID, "Kick-off booked")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityKindComment, comment.Kind)
}
