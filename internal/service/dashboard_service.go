package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/readmodel"
	"github.com/nurpe/dealflow/internal/repository"
)

const upcomingWindow = 7 * 24 * time.Hour

type DashboardService struct {
	base
	deals     *repository.DealRepository
	investors *repository.InvestorRepository
	schedule  *repository.ScheduleRepository
}

func NewDashboardService(
	deals *repository.DealRepository,
	investors *repository.InvestorRepository,
	schedule *repository.ScheduleRepository,
	views cache.Views,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		base:      newBase(views, log),
		deals:     deals,
		investors: investors,
		schedule:  schedule,
	}
}

func (s *DashboardService) WithClock(now Clock) *DashboardService {
	s.now = now
	return s
}

// Get serves the dashboard from the view cache.
func (s *DashboardService) Get(ctx context.Context) (*readmodel.Dashboard, error) {
	return cachedView(ctx, s.base, cache.KeyDashboard, func() (*readmodel.Dashboard, error) {
		return s.build(ctx)
	})
}

// Refresh rebuilds the dashboard and stores it, replacing whatever was cached.
func (s *DashboardService) Refresh(ctx context.Context) error {
	dashboard, err := s.build(ctx)
	if err != nil {
		return err
	}
	return s.views.Set(ctx, cache.KeyDashboard, dashboard)
}

func (s *DashboardService) build(ctx context.Context) (*readmodel.Dashboard, error) {
	now := s.now()
	deals, err := s.deals.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	investors, err := s.investors.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	open, overdue, err := s.schedule.CountOpenTasks(ctx, now)
	if err != nil {
		return nil, err
	}
	until := now.Add(upcomingWindow)
	events, err := s.schedule.ListEvents(ctx, repository.EventFilter{From: &now, To: &until, Page: repository.Page{Limit: 20}})
	if err != nil {
		return nil, err
	}
	funnel := pipeline.Funnel(investors)
	return &readmodel.Dashboard{
		Deals:          pipeline.KPIs(deals),
		Funnel:         funnel,
		Rates:          funnel.Rates(),
		OpenTasks:      open,
		OverdueTasks:   overdue,
		UpcomingEvents: events,
		GeneratedAt:    now,
	}, nil
}
