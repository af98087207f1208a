package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/outreach"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/readmodel"
	"github.com/nurpe/dealflow/internal/repository"
)

type LonglistExporter interface {
	Generate(report readmodel.Longlist) ([]byte, error)
	FileName(deal model.Deal, at time.Time) string
}

type InvestorService struct {
	base
	investors *repository.InvestorRepository
	deals     *repository.DealRepository
	directory *repository.DirectoryRepository
	policy    pipeline.Policy
	exporter  LonglistExporter
	mailer    outreach.Sender
}

func NewInvestorService(
	investors *repository.InvestorRepository,
	deals *repository.DealRepository,
	directory *repository.DirectoryRepository,
	policy pipeline.Policy,
	exporter LonglistExporter,
	mailer outreach.Sender,
	views cache.Views,
	log zerolog.Logger,
) *InvestorService {
	if policy == nil {
		policy = pipeline.PermissivePolicy{}
	}
	return &InvestorService{
		base:      newBase(views, log),
		investors: investors,
		deals:     deals,
		directory: directory,
		policy:    policy,
		exporter:  exporter,
		mailer:    mailer,
	}
}

func (s *InvestorService) WithClock(now Clock) *InvestorService {
	s.now = now
	return s
}

type AddInvestorInput struct {
	OrganizationID uuid.UUID
	Status         model.InvestorStatus
	Notes          string
}

// AddToLonglist puts an organization on the deal's longlist, LONGLIST unless another starting
// status is given. The starting status is stamped like any other transition.
func (s *InvestorService) AddToLonglist(ctx context.Context, p model.Principal, dealID uuid.UUID, in AddInvestorInput) (*model.DealInvestor, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if in.OrganizationID == uuid.Nil {
		return nil, invalid("organization_id is required")
	}
	if in.Status == "" {
		in.Status = model.InvestorStatusLonglist
	}
	if !in.Status.Valid() {
		return nil, invalid("unknown investor status %q", in.Status)
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	if _, err := s.directory.GetOrganization(ctx, in.OrganizationID); err != nil {
		return nil, translate(err, "organization")
	}

	inv := &model.DealInvestor{
		DealID:         dealID,
		OrganizationID: in.OrganizationID,
		Status:         in.Status,
		Notes:          strings.TrimSpace(in.Notes),
	}
	pipeline.Stamp(inv, in.Status, s.now())
	if err := s.investors.Add(ctx, inv); err != nil {
		return nil, translate(err, "investor already on longlist")
	}
	s.invalidate(ctx, cache.DealViews(dealID)...)
	return inv, nil
}

func (s *InvestorService) List(ctx context.Context, dealID uuid.UUID) ([]model.DealInvestor, error) {
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}
	return s.investors.ListByDeal(ctx, dealID)
}

// SetInvestorStatus moves one investor to status and stamps the milestone that status marks.
// Re-entering a status refreshes its stamp; stamps of other milestones are kept.
func (s *InvestorService) SetInvestorStatus(ctx context.Context, p model.Principal, dealID, orgID uuid.UUID, status model.InvestorStatus) (*model.DealInvestor, error) {
	return s.transition(ctx, p, dealID, orgID, status, model.ActivityKindStatusChange, "")
}

func (s *InvestorService) transition(
	ctx context.Context,
	p model.Principal,
	dealID, orgID uuid.UUID,
	status model.InvestorStatus,
	kind model.ActivityKind,
	detail string,
) (*model.DealInvestor, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalid("unknown investor status %q", status)
	}
	current, err := s.investors.Get(ctx, dealID, orgID)
	if err != nil {
		return nil, translate(err, "investor")
	}
	label := current.OrganizationName()
	if label == "" {
		label = orgID.String()
	}
	now := s.now()
	activity := &model.DealActivity{
		Author:    p.Name(),
		Kind:      kind,
		CreatedAt: now,
	}
	inv, err := s.investors.Transition(ctx, dealID, orgID, func(inv *model.DealInvestor) error {
		from := inv.Status
		if _, err := pipeline.ApplyInvestorStatus(inv, status, now, s.policy); err != nil {
			return err
		}
		inv.UpdatedAt = now
		activity.Body = fmt.Sprintf("investor %s: %s -> %s%s", label, from, status, detail)
		return nil
	}, activity)
	if err != nil {
		return nil, translate(err, "investor")
	}
	s.invalidate(ctx, cache.DealViews(dealID)...)
	return inv, nil
}

type UpdateInvestorInput struct {
	Notes    *string
	Feedback *string
}

func (s *InvestorService) UpdateNotes(ctx context.Context, p model.Principal, dealID, orgID uuid.UUID, in UpdateInvestorInput) (*model.DealInvestor, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	inv, err := s.investors.UpdateNotes(ctx, dealID, orgID, in.Notes, in.Feedback)
	if err != nil {
		return nil, translate(err, "investor")
	}
	s.invalidate(ctx, cache.KeyDeal(dealID))
	return inv, nil
}

type OutreachInput struct {
	To      []string
	Subject string
	Body    string
}

// SendOutreach emails the investor and then moves it to CONTACTED. If sending fails the
// investor keeps its status.
func (s *InvestorService) SendOutreach(ctx context.Context, p model.Principal, dealID, orgID uuid.UUID, in OutreachInput) (*model.DealInvestor, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(in.To))
	for _, to := range in.To {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) == 0 {
		return nil, invalid("at least one recipient is required")
	}
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, translate(err, "deal")
	}
	inv, err := s.investors.Get(ctx, dealID, orgID)
	if err != nil {
		return nil, translate(err, "investor")
	}
	if err := s.policy.Allow(*inv, model.InvestorStatusContacted); err != nil {
		return nil, err
	}

	msg := outreach.Compose(*deal, *inv, p.Name(), in.Subject, in.Body)
	msg.To = recipients
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("deal_id", dealID.String()).Str("organization_id", orgID.String()).Msg("send outreach")
		return nil, err
	}
	return s.transition(ctx, p, dealID, orgID, model.InvestorStatusContacted, model.ActivityKindOutreach,
		fmt.Sprintf(" (email to %s)", strings.Join(recipients, ", ")))
}

type Export struct {
	FileName string
	Content  []byte
}

func (s *InvestorService) Export(ctx context.Context, dealID uuid.UUID) (*Export, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, translate(err, "deal")
	}
	investors, err := s.investors.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	content, err := s.exporter.Generate(readmodel.Longlist{
		Deal:        *deal,
		Investors:   investors,
		Funnel:      pipeline.Funnel(investors),
		GeneratedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &Export{FileName: s.exporter.FileName(*deal, now), Content: content}, nil
}
