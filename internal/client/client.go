// Package client talks to the dealflow HTTP API on behalf of dealflowctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/dealflow/internal/board"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/readmodel"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Token   string

	HTTP *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("base url is empty")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := strings.TrimRight(c.BaseURL, "/") + path

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(c.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.Token))
	}
	return req, nil
}

// Do sends req and decodes the data member of the result envelope into out.
func (c *Client) Do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(b, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && strings.TrimSpace(env.Error) != "" {
			return &APIError{Status: resp.StatusCode, Message: env.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

func (c *Client) ListDeals(ctx context.Context, stage model.DealStage) ([]model.Deal, error) {
	path := "/api/v1/deals"
	if stage != "" {
		path += "?stage=" + url.QueryEscape(string(stage))
	}
	var deals []model.Deal
	if err := c.call(ctx, http.MethodGet, path, nil, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// GetDeal loads one deal with its timeline, longlist and team.
func (c *Client) GetDeal(ctx context.Context, dealID uuid.UUID) (*readmodel.DealView, error) {
	var view readmodel.DealView
	if err := c.call(ctx, http.MethodGet, "/api/v1/deals/"+dealID.String(), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) AdvanceDealStage(ctx context.Context, dealID uuid.UUID, stage model.DealStage) error {
	return c.call(ctx, http.MethodPost, "/api/v1/deals/"+dealID.String()+"/stage", map[string]string{"stage": string(stage)}, nil)
}

func (c *Client) ListInvestors(ctx context.Context, dealID uuid.UUID) ([]model.DealInvestor, error) {
	var investors []model.DealInvestor
	if err := c.call(ctx, http.MethodGet, "/api/v1/deals/"+dealID.String()+"/investors", nil, &investors); err != nil {
		return nil, err
	}
	return investors, nil
}

func (c *Client) SetInvestorStatus(ctx context.Context, dealID, orgID uuid.UUID, status model.InvestorStatus) (*model.DealInvestor, error) {
	var investor model.DealInvestor
	path := fmt.Sprintf("/api/v1/deals/%s/investors/%s/status", dealID, orgID)
	if err := c.call(ctx, http.MethodPost, path, map[string]string{"status": string(status)}, &investor); err != nil {
		return nil, err
	}
	return &investor, nil
}

type Outreach struct {
	To      []string `json:"to"`
	Subject string   `json:"subject,omitempty"`
	Body    string   `json:"body,omitempty"`
}

func (c *Client) SendOutreach(ctx context.Context, dealID, orgID uuid.UUID, msg Outreach) (*model.DealInvestor, error) {
	var investor model.DealInvestor
	path := fmt.Sprintf("/api/v1/deals/%s/investors/%s/outreach", dealID, orgID)
	if err := c.call(ctx, http.MethodPost, path, msg, &investor); err != nil {
		return nil, err
	}
	return &investor, nil
}

func (c *Client) Analytics(ctx context.Context, dealID uuid.UUID) (*readmodel.DealAnalytics, error) {
	var analytics readmodel.DealAnalytics
	if err := c.call(ctx, http.MethodGet, "/api/v1/deals/"+dealID.String()+"/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (c *Client) Dashboard(ctx context.Context) (*readmodel.Dashboard, error) {
	var dashboard readmodel.Dashboard
	if err := c.call(ctx, http.MethodGet, "/api/v1/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// InvestorCommitter commits longlist board moves for one deal. A confirmed move into CONTACTED
// goes through the outreach endpoint when outreach is set.
func (c *Client) InvestorCommitter(dealID uuid.UUID, outreach *Outreach) board.CommitFunc[model.InvestorStatus] {
	return func(ctx context.Context, key string, to model.InvestorStatus) error {
		orgID, err := uuid.Parse(key)
		if err != nil {
			return fmt.Errorf("card key %q: %w", key, err)
		}
		if to == model.InvestorStatusContacted && outreach != nil {
			_, err = c.SendOutreach(ctx, dealID, orgID, *outreach)
			return err
		}
		_, err = c.SetInvestorStatus(ctx, dealID, orgID, to)
		return err
	}
}

func (c *Client) DealCommitter() board.CommitFunc[model.DealStage] {
	return func(ctx context.Context, key string, to model.DealStage) error {
		dealID, err := uuid.Parse(key)
		if err != nil {
			return fmt.Errorf("card key %q: %w", key, err)
		}
		return c.AdvanceDealStage(ctx, dealID, to)
	}
}
