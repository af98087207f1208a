package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/enrichment"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

const (
	ActionInvestorMatch  = "investor-match"
	ActionOrgFromWebsite = "org-from-website"
)

type EnrichmentResult struct {
	Investors []enrichment.InvestorMatch   `json:"investors"`
	OrgData   *enrichment.OrganizationData `json:"orgData,omitempty"`
}

// EnrichmentService routes enrichment actions. It only reads; nothing it returns is persisted
// until a user acts on it.
type EnrichmentService struct {
	base
	enricher  *enrichment.Enricher
	deals     *repository.DealRepository
	investors *repository.InvestorRepository
	directory *repository.DirectoryRepository
}

func NewEnrichmentService(
	enricher *enrichment.Enricher,
	deals *repository.DealRepository,
	investors *repository.InvestorRepository,
	directory *repository.DirectoryRepository,
	log zerolog.Logger,
) *EnrichmentService {
	return &EnrichmentService{
		base:      newBase(nil, log),
		enricher:  enricher,
		deals:     deals,
		investors: investors,
		directory: directory,
	}
}

type investorMatchRequest struct {
	DealID uuid.UUID `json:"deal_id"`
	Limit  int       `json:"limit"`
}

type orgFromWebsiteRequest struct {
	Website string `json:"website"`
}

func (s *EnrichmentService) Enrich(ctx context.Context, p model.Principal, action string, data json.RawMessage) (*EnrichmentResult, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	switch action {
	case ActionInvestorMatch:
		var req investorMatchRequest
		if err := json.Unmarshal(data, &req); err != nil || req.DealID == uuid.Nil {
			return nil, invalid("investor-match needs a deal_id")
		}
		matches, err := s.matchInvestors(ctx, req)
		if err != nil {
			return nil, err
		}
		if matches == nil {
			matches = []enrichment.InvestorMatch{}
		}
		return &EnrichmentResult{Investors: matches}, nil
	case ActionOrgFromWebsite:
		var req orgFromWebsiteRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, invalid("org-from-website needs a website")
		}
		org, err := s.enricher.OrganizationFromWebsite(ctx, req.Website)
		if err != nil {
			return nil, s.unavailable(err)
		}
		return &EnrichmentResult{OrgData: org}, nil
	default:
		return nil, invalid("unknown enrichment action %q", action)
	}
}

// matchInvestors offers every investor organization that is not yet on the deal's longlist.
func (s *EnrichmentService) matchInvestors(ctx context.Context, req investorMatchRequest) ([]enrichment.InvestorMatch, error) {
	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, translate(err, "deal")
	}
	listed, err := s.investors.ListByDeal(ctx, deal.ID)
	if err != nil {
		return nil, err
	}
	onList := make(map[uuid.UUID]bool, len(listed))
	for _, inv := range listed {
		onList[inv.OrganizationID] = true
	}
	orgs, err := s.directory.ListOrganizations(ctx, repository.OrganizationFilter{
		Type: model.OrganizationTypeInvestor,
		Page: repository.Page{Limit: 500},
	})
	if err != nil {
		return nil, err
	}
	candidates := make([]enrichment.Candidate, 0, len(orgs))
	for _, org := range orgs {
		if onList[org.ID] {
			continue
		}
		candidates = append(candidates, enrichment.Candidate{
			ID:          org.ID,
			Name:        org.Name,
			Industry:    org.Industry,
			Country:     org.Country,
			Description: org.Description,
		})
	}

	profile := enrichment.DealProfile{Name: deal.Name, Type: string(deal.Type)}
	if deal.ClientOrganizationID != nil {
		if client, err := s.directory.GetOrganization(ctx, *deal.ClientOrganizationID); err == nil {
			profile.Industry = client.Industry
			profile.Country = client.Country
			profile.Description = client.Description
		}
	}
	limit := req.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	matches, err := s.enricher.MatchInvestors(ctx, profile, candidates, limit)
	if err != nil {
		return nil, s.unavailable(err)
	}
	return matches, nil
}

func (s *EnrichmentService) unavailable(err error) error {
	if errors.Is(err, enrichment.ErrBadRequest) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.log.Error().Err(err).Msg("enrichment failed")
	return fmt.Errorf("%w: %v", ErrEnrichmentUnavailable, err)
}
