package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/readmodel"
	"github.com/nurpe/dealflow/internal/repository"
)

type DealService struct {
	base
	deals     *repository.DealRepository
	investors *repository.InvestorRepository
}

func NewDealService(deals *repository.DealRepository, investors *repository.InvestorRepository, views cache.Views, log zerolog.Logger) *DealService {
	return &DealService{
		base:      newBase(views, log),
		deals:     deals,
		investors: investors,
	}
}

// WithClock replaces the service clock; tests use it to pin timestamps.
func (s *DealService) WithClock(now Clock) *DealService {
	s.now = now
	return s
}

type CreateDealInput struct {
	Name                 string
	Type                 model.DealType
	Status               model.DealStatus
	Stage                model.DealStage
	ProjectStep          model.ProjectStep
	ExpectedValue        decimal.Decimal
	FeeRetainer          decimal.Decimal
	FeeSuccess           decimal.Decimal
	Currency             string
	LeadContactID        *uuid.UUID
	ClientOrganizationID *uuid.UUID
}

func (s *DealService) Create(ctx context.Context, p model.Principal, in CreateDealInput) (*model.Deal, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !in.Type.Valid() {
		return nil, invalid("unknown deal type %q", in.Type)
	}
	if in.Status == "" {
		in.Status = model.DealStatusActive
	}
	if !in.Status.Valid() {
		return nil, invalid("unknown deal status %q", in.Status)
	}
	if in.Stage == "" {
		in.Stage = model.DealStagePitch
	}
	if !in.Stage.Valid() {
		return nil, invalid("unknown deal stage %q", in.Stage)
	}
	if in.ProjectStep == "" {
		in.ProjectStep = model.ProjectStepPitch
	}
	if !in.ProjectStep.Valid() {
		return nil, invalid("unknown project step %q", in.ProjectStep)
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if err := requireNonNegative(in.ExpectedValue, in.FeeRetainer, in.FeeSuccess); err != nil {
		return nil, err
	}

	deal := &model.Deal{
		Name:                 name,
		Type:                 in.Type,
		Status:               in.Status,
		Stage:                in.Stage,
		ProjectStep:          in.ProjectStep,
		ExpectedValue:        in.ExpectedValue,
		FeeRetainer:          in.FeeRetainer,
		FeeSuccess:           in.FeeSuccess,
		Currency:             currency,
		LeadContactID:        in.LeadContactID,
		ClientOrganizationID: in.ClientOrganizationID,
	}
	if err := s.deals.Create(ctx, deal, s.now()); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.KeyDealList, cache.KeyDashboard)
	return deal, nil
}

type UpdateDealInput struct {
	Name                 *string
	Type                 *model.DealType
	Status               *model.DealStatus
	ExpectedValue        *decimal.Decimal
	FeeRetainer          *decimal.Decimal
	FeeSuccess           *decimal.Decimal
	Currency             *string
	LeadContactID        *uuid.UUID
	ClientOrganizationID *uuid.UUID
}

func (s *DealService) Update(ctx context.Context, p model.Principal, dealID uuid.UUID, in UpdateDealInput) (*model.Deal, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, translate(err, "deal")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name is required")
		}
		deal.Name = name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, invalid("unknown deal type %q", *in.Type)
		}
		deal.Type = *in.Type
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, invalid("unknown deal status %q", *in.Status)
		}
		deal.Status = *in.Status
	}
	if in.ExpectedValue != nil {
		deal.ExpectedValue = *in.ExpectedValue
	}
	if in.FeeRetainer != nil {
		deal.FeeRetainer = *in.FeeRetainer
	}
	if in.FeeSuccess != nil {
		deal.FeeSuccess = *in.FeeSuccess
	}
	if err := requireNonNegative(deal.ExpectedValue, deal.FeeRetainer, deal.FeeSuccess); err != nil {
		return nil, err
	}
	if in.Currency != nil {
		currency, err := normalizeCurrency(*in.Currency)
		if err != nil {
			return nil, err
		}
		deal.Currency = currency
	}
	if in.LeadContactID != nil {
		deal.LeadContactID = nilIfZero(*in.LeadContactID)
	}
	if in.ClientOrganizationID != nil {
		deal.ClientOrganizationID = nilIfZero(*in.ClientOrganizationID)
	}
	deal.UpdatedAt = s.now()
	if err := s.deals.Update(ctx, deal); err != nil {
		return nil, translate(err, "deal")
	}
	s.invalidate(ctx, cache.DealViews(dealID)...)
	return deal, nil
}

// AdvanceDealStage moves the deal to stage. Any stage may follow any other. The close-old,
// update, open-new sequence is atomic; afterwards exactly one open history record exists and it
// matches the deal's stage.
func (s *DealService) AdvanceDealStage(ctx context.Context, p model.Principal, dealID uuid.UUID, stage model.DealStage) (*model.DealPipelineHistory, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if !stage.Valid() {
		return nil, invalid("unknown deal stage %q", stage)
	}
	opened, err := s.deals.AdvanceStage(ctx, repository.StageChange{
		DealID: dealID,
		Stage:  stage,
		At:     s.now(),
		Author: p.Name(),
	})
	if err != nil {
		return nil, translate(err, "deal")
	}
	s.invalidate(ctx, cache.DealViews(dealID)...)
	return opened, nil
}

// SetProjectStep makes step the deal's current milestone. With syncStage, the coarse stage
// follows the step (archived deals stay archived).
func (s *DealService) SetProjectStep(ctx context.Context, p model.Principal, dealID uuid.UUID, step model.ProjectStep, syncStage bool) (*model.Deal, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if !step.Valid() {
		return nil, invalid("unknown project step %q", step)
	}
	deal, _, err := s.deals.SetProjectStep(ctx, dealID, step, syncStage, pipeline.StageForStep, s.now(), p.Name())
	if err != nil {
		return nil, translate(err, "deal")
	}
	s.invalidate(ctx, cache.DealViews(dealID)...)
	return deal, nil
}

func (s *DealService) Get(ctx context.Context, dealID uuid.UUID) (*readmodel.DealView, error) {
	view, err := cachedView(ctx, s.base, cache.KeyDeal(dealID), func() (*readmodel.DealView, error) {
		deal, err := s.deals.Get(ctx, dealID)
		if err != nil {
			return nil, translate(err, "deal")
		}
		history, err := s.deals.History(ctx, dealID)
		if err != nil {
			return nil, err
		}
		investors, err := s.investors.ListByDeal(ctx, dealID)
		if err != nil {
			return nil, err
		}
		team, err := s.deals.ListTeam(ctx, dealID)
		if err != nil {
			return nil, err
		}
		funnel := pipeline.Funnel(investors)
		return &readmodel.DealView{
			Deal:      *deal,
			Timeline:  pipeline.ProjectTimeline(history, pipeline.Descending),
			Investors: investors,
			Funnel:    funnel,
			Rates:     funnel.Rates(),
			Team:      team,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// List serves the unfiltered deal list from the view cache.
func (s *DealService) List(ctx context.Context, filter repository.DealFilter) ([]model.Deal, error) {
	if filter == (repository.DealFilter{}) {
		return cachedView(ctx, s.base, cache.KeyDealList, func() ([]model.Deal, error) {
			return s.deals.List(ctx, filter)
		})
	}
	if filter.Stage != "" && !filter.Stage.Valid() {
		return nil, invalid("unknown deal stage %q", filter.Stage)
	}
	return s.deals.List(ctx, filter)
}

func (s *DealService) History(ctx context.Context, dealID uuid.UUID, order pipeline.Order) ([]pipeline.TimelineEntry, error) {
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	history, err := s.deals.History(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return pipeline.ProjectTimeline(history, order), nil
}

func (s *DealService) Analytics(ctx context.Context, dealID uuid.UUID) (*readmodel.DealAnalytics, error) {
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	investors, err := s.investors.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	funnel := pipeline.Funnel(investors)
	return &readmodel.DealAnalytics{
		Funnel:       funnel,
		Rates:        funnel.Rates(),
		StatusCounts: pipeline.StatusCounts(investors),
	}, nil
}

// UpdatePortal enables or disables the client portal. A non-nil password replaces the stored
// bcrypt hash; an empty password removes it.
func (s *DealService) UpdatePortal(ctx context.Context, p model.Principal, dealID uuid.UUID, enabled bool, password *string) error {
	if err := requireMutate(p); err != nil {
		return err
	}
	var hash *string
	if password != nil {
		value := ""
		if *password != "" {
			if len(*password) < 8 {
				return invalid("portal password must be at least 8 characters")
			}
			raw, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			value = string(raw)
		}
		hash = &value
	}
	if err := s.deals.UpdatePortal(ctx, dealID, enabled, hash); err != nil {
		return translate(err, "deal")
	}
	s.invalidate(ctx, cache.KeyDeal(dealID), cache.KeyPortal(dealID))
	return nil
}

func (s *DealService) AddTeamMember(ctx context.Context, p model.Principal, dealID uuid.UUID, userID, displayName string, role model.DealTeamRole) (*model.DealTeamMember, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user_id is required")
	}
	if !role.Valid() {
		return nil, invalid("unknown team role %q", role)
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	member := &model.DealTeamMember{
		DealID:      dealID,
		UserID:      strings.TrimSpace(userID),
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
	}
	if err := s.deals.AddTeamMember(ctx, member); err != nil {
		return nil, translate(err, "team member")
	}
	s.invalidate(ctx, cache.KeyDeal(dealID))
	return member, nil
}

func (s *DealService) ListTeam(ctx context.Context, dealID uuid.UUID) ([]model.DealTeamMember, error) {
	return s.deals.ListTeam(ctx, dealID)
}

func (s *DealService) RemoveTeamMember(ctx context.Context, p model.Principal, dealID, memberID uuid.UUID) error {
	if err := requireMutate(p); err != nil {
		return err
	}
	if err := s.deals.RemoveTeamMember(ctx, dealID, memberID); err != nil {
		return translate(err, "team member")
	}
	s.invalidate(ctx, cache.KeyDeal(dealID))
	return nil
}

func (s *DealService) AddComment(ctx context.Context, p model.Principal, dealID uuid.UUID, body string) (*model.DealActivity, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("comment body is required")
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	activity := &model.DealActivity{
		DealID:    dealID,
		Author:    p.Name(),
		Kind:      model.ActivityKindComment,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.deals.AddActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *DealService) ListActivities(ctx context.Context, dealID uuid.UUID, page repository.Page) ([]model.DealActivity, error) {
	return s.deals.ListActivities(ctx, dealID, page)
}

func normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if currency == "" {
		return "EUR", nil
	}
	if len(currency) != 3 {
		return "", invalid("currency must be an ISO 4217 code")
	}
	return currency, nil
}

func requireNonNegative(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.IsNegative() {
			return invalid("monetary values must not be negative")
		}
	}
	return nil
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
