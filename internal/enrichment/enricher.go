package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnavailable   = errors.New("enrichment: generator not configured")
	ErrEmptyResponse = errors.New("enrichment: empty response")
	ErrBadResponse   = errors.New("enrichment: malformed response")
)

type Enricher struct {
	gen Generator
	log zerolog.Logger
}

// New returns an enricher. A nil generator makes every call fail with ErrUnavailable.
func New(gen Generator, log zerolog.Logger) *Enricher {
	return &Enricher{gen: gen, log: log}
}

func (e *Enricher) Available() bool { return e.gen != nil }

type DealProfile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Industry    string `json:"industry,omitempty"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty"`
}

type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry,omitempty"`
	Country     string    `json:"country,omitempty"`
	Description string    `json:"description,omitempty"`
}

type InvestorMatch struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	Reason         string    `json:"reason"`
}

const matchInstruction = `You are an M&A analyst building an investor longlist.
Rank the candidate investors by fit for the deal. Answer with JSON only:
{"investors":[{"id":"<candidate id>","score":<0-100>,"reason":"<one sentence>"}]}
Only use ids from the candidate list.`

// MatchInvestors ranks candidates for the deal, best first. Ids the model invents are dropped.
func (e *Enricher) MatchInvestors(ctx context.Context, deal DealProfile, candidates []Candidate, limit int) ([]InvestorMatch, error) {
	if e.gen == nil {
		return nil, ErrUnavailable
	}
	if len(candidates) == 0 {
		return []InvestorMatch{}, nil
	}
	prompt, err := json.Marshal(struct {
		Deal       DealProfile `json:"deal"`
		Candidates []Candidate `json:"candidates"`
		Limit      int         `json:"limit"`
	}{deal, candidates, limit})
	if err != nil {
		return nil, err
	}
	raw, err := e.gen.Generate(ctx, matchInstruction, string(prompt))
	if err != nil {
		return nil, err
	}

	var out struct {
		Investors []struct {
			ID     string `json:"id"`
			Score  int    `json:"score"`
			Reason string `json:"reason"`
		} `json:"investors"`
	}
	if err := decode(raw, &out); err != nil {
		e.log.Warn().Err(err).Msg("investor match response")
		return nil, err
	}

	byID := make(map[uuid.UUID]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	seen := make(map[uuid.UUID]bool, len(out.Investors))
	matches := make([]InvestorMatch, 0, len(out.Investors))
	for _, item := range out.Investors {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		matches = append(matches, InvestorMatch{
			OrganizationID: id,
			Name:           c.Name,
			Score:          clampScore(item.Score),
			Reason:         strings.TrimSpace(item.Reason),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type OrganizationData struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

const orgInstruction = `You research companies for an M&A advisory CRM.
Describe the organization behind the given website. Answer with JSON only:
{"name":"","industry":"","country":"<ISO 3166 alpha-2>","description":"<max 3 sentences>","type":"INVESTOR|COMPANY|ADVISOR|OTHER"}
Leave a field empty when unsure.`

func (e *Enricher) OrganizationFromWebsite(ctx context.Context, website string) (*OrganizationData, error) {
	if e.gen == nil {
		return nil, ErrUnavailable
	}
	normalized, err := NormalizeWebsite(website)
	if err != nil {
		return nil, err
	}
	raw, err := e.gen.Generate(ctx, orgInstruction, "Website: "+normalized)
	if err != nil {
		return nil, err
	}
	var data OrganizationData
	if err := decode(raw, &data); err != nil {
		e.log.Warn().Err(err).Str("website", normalized).Msg("organization research response")
		return nil, err
	}
	data.Website = normalized
	data.Name = strings.TrimSpace(data.Name)
	data.Type = strings.ToUpper(strings.TrimSpace(data.Type))
	data.Country = strings.ToUpper(strings.TrimSpace(data.Country))
	return &data, nil
}

// NormalizeWebsite accepts bare hosts and returns an absolute http(s) URL.
func NormalizeWebsite(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: website is empty", ErrBadRequest)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: invalid website %q", ErrBadRequest, raw)
	}
	return u.String(), nil
}

var ErrBadRequest = errors.New("enrichment: bad request")

// decode parses a JSON object out of a model answer, tolerating markdown code fences.
func decode(raw string, dst interface{}) error {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ErrBadResponse
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
