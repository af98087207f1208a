package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/readmodel"
	"github.com/nurpe/dealflow/internal/repository"
)

type PortalRenderer interface {
	Generate(view readmodel.PortalView) ([]byte, error)
}

// PortalService serves the client-facing projection of a deal.
type PortalService struct {
	base
	deals     *repository.DealRepository
	investors *repository.InvestorRepository
	renderer  PortalRenderer
}

func NewPortalService(deals *repository.DealRepository, investors *repository.InvestorRepository, renderer PortalRenderer, views cache.Views, log zerolog.Logger) *PortalService {
	return &PortalService{
		base:      newBase(views, log),
		deals:     deals,
		investors: investors,
		renderer:  renderer,
	}
}

func (s *PortalService) WithClock(now Clock) *PortalService {
	s.now = now
	return s
}

// Open checks the portal gate and returns the read model. A deal without a stored password is
// open to anyone once the portal is enabled. Unknown deals and disabled portals look the same
// to the caller.
func (s *PortalService) Open(ctx context.Context, dealID uuid.UUID, password string) (*readmodel.PortalView, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPortalDisabled
		}
		return nil, err
	}
	if !deal.PortalEnabled {
		return nil, ErrPortalDisabled
	}
	if deal.PortalPasswordHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(deal.PortalPasswordHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrPortalUnauthorized
		}
		if err != nil {
			return nil, err
		}
	}
	return cachedView(ctx, s.base, cache.KeyPortal(dealID), func() (*readmodel.PortalView, error) {
		return s.build(ctx, *deal)
	})
}

func (s *PortalService) Report(ctx context.Context, dealID uuid.UUID, password string) ([]byte, error) {
	view, err := s.Open(ctx, dealID, password)
	if err != nil {
		return nil, err
	}
	return s.renderer.Generate(*view)
}

func (s *PortalService) build(ctx context.Context, deal model.Deal) (*readmodel.PortalView, error) {
	history, err := s.deals.History(ctx, deal.ID)
	if err != nil {
		return nil, err
	}
	investors, err := s.investors.ListByDeal(ctx, deal.ID)
	if err != nil {
		return nil, err
	}
	reduced := make([]readmodel.PortalInvestor, 0, len(investors))
	for _, inv := range investors {
		reduced = append(reduced, readmodel.PortalInvestor{Name: inv.OrganizationName(), Status: inv.Status})
	}
	return &readmodel.PortalView{
		DealID:      deal.ID,
		Name:        deal.Name,
		Type:        deal.Type,
		Stage:       deal.Stage,
		ProjectStep: deal.ProjectStep,
		Steps:       model.ProjectSteps(),
		Timeline:    pipeline.ProjectTimeline(history, pipeline.Ascending),
		Investors:   reduced,
		Funnel:      pipeline.Funnel(investors),
		GeneratedAt: s.now(),
	}, nil
}
