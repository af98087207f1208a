package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/dealflow/internal/db/dbtest"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
)

type investorFixture struct {
	db        *gorm.DB
	deals     *DealRepository
	investors *InvestorRepository
	directory *DirectoryRepository
	deal      *model.Deal
	org       *model.Organization
}

func newInvestorFixture(t *testing.T) *investorFixture {
	t.Helper()
	database := dbtest.Open(t)
	f := &investorFixture{
		db:        database,
		deals:     NewDealRepository(database),
		investors: NewInvestorRepository(database),
		directory: NewDirectoryRepository(database),
		deal:      newDeal("Project Granite"),
		org:       &model.Organization{Name: "Northwind Capital", Type: model.OrganizationTypeInvestor},
	}
	ctx := context.Background()
	require.NoError(t, f.deals.Create(ctx, f.deal, time.Now()))
	require.NoError(t, f.directory.CreateOrganization(ctx, f.org))
	return f
}

func TestInvestorRepository_AddIsUniquePerDeal(t *testing.T) {
	f := newInvestorFixture(t)
	ctx := context.Background()

	inv := &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}
	require.NoError(t, f.investors.Add(ctx, inv))
	require.NotNil(t, inv.Organization)
	assert.Equal(t, "Northwind Capital", inv.OrganizationName())

	dup := &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}
	assert.ErrorIs(t, f.investors.Add(ctx, dup), ErrDuplicate)
}

func TestInvestorRepository_TransitionStampsAndLogs(t *testing.T) {
	f := newInvestorFixture(t)
	ctx := context.Background()
	require.NoError(t, f.investors.Add(ctx, &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}))

	first := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(3 * time.Hour)
	for _, at := range []time.Time{first, second} {
		at := at
		inv, err := f.investors.Transition(ctx, f.deal.ID, f.org.ID, func(inv *model.DealInvestor) error {
			_, err := pipeline.ApplyInvestorStatus(inv, model.InvestorStatusNDASent, at, nil)
			return err
		}, &model.DealActivity{Kind: model.ActivityKindStatusChange, Author: "Jane", CreatedAt: at})
		require.NoError(t, err)
		require.NotNil(t, inv.NDASentAt)
		assert.True(t, inv.NDASentAt.Equal(at))
	}

	stored, err := f.investors.Get(ctx, f.deal.ID, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvestorStatusNDASent, stored.Status)
	assert.True(t, stored.NDASentAt.Equal(second))

	activities, err := f.deals.ListActivities(ctx, f.deal.ID, Page{})
	require.NoError(t, err)
	assert.Len(t, activities, 2)
}

func TestInvestorRepository_TransitionAbortsOnApplyError(t *testing.T) {
	f := newInvestorFixture(t)
	ctx := context.Background()
	require.NoError(t, f.investors.Add(ctx, &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}))

	boom := errors.New("rejected")
	_, err := f.investors.Transition(ctx, f.deal.ID, f.org.ID, func(inv *model.DealInvestor) error {
		inv.Status = model.InvestorStatusBidReceived
		return boom
	}, nil)
	require.ErrorIs(t, err, boom)

	stored, err := f.investors.Get(ctx, f.deal.ID, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvestorStatusLonglist, stored.Status)
}

func TestInvestorRepository_TransitionMissing(t *testing.T) {
	f := newInvestorFixture(t)
	_, err := f.investors.Transition(context.Background(), f.deal.ID, uuid.New(), func(*model.DealInvestor) error { return nil }, nil)
	assert.True(t, IsNotFound(err))
}

func TestInvestorRepository_ListAllSkipsArchivedDeals(t *testing.T) {
	f := newInvestorFixture(t)
	ctx := context.Background()
	require.NoError(t, f.investors.Add(ctx, &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}))

	all, err := f.investors.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.deals.AdvanceStage(ctx, StageChange{DealID: f.deal.ID, Stage: model.DealStageArchived, At: time.Now()})
	require.NoError(t, err)
	all, err = f.investors.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInvestorRepository_UpdateNotes(t *testing.T) {
	f := newInvestorFixture(t)
	ctx := context.Background()
	require.NoError(t, f.investors.Add(ctx, &model.DealInvestor{DealID: f.deal.ID, OrganizationID: f.org.ID, Status: model.InvestorStatusLonglist}))

	notes := "Prefers carve-outs"
	inv, err := f.investors.UpdateNotes(ctx, f.deal.ID, f.org.ID, &notes, nil)
	require.NoError(t, err)
	assert.Equal(t, notes, inv.Notes)
	assert.Empty(t, inv.Feedback)
}
