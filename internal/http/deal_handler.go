package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/service"
)

// enum normalizes a request value; services validate it.
func enum[T ~string](raw string) T {
	return T(strings.ToUpper(strings.TrimSpace(raw)))
}

func enumPtr[T ~string](raw *string) *T {
	if raw == nil {
		return nil
	}
	value := enum[T](*raw)
	return &value
}

type createDealRequest struct {
	Name                 string          `json:"name" binding:"required"`
	Type                 string          `json:"type" binding:"required"`
	Status               string          `json:"status"`
	Stage                string          `json:"stage"`
	ProjectStep          string          `json:"project_step"`
	ExpectedValue        decimal.Decimal `json:"expected_value"`
	FeeRetainer          decimal.Decimal `json:"fee_retainer"`
	FeeSuccess           decimal.Decimal `json:"fee_success"`
	Currency             string          `json:"currency"`
	LeadContactID        *uuid.UUID      `json:"lead_contact_id"`
	ClientOrganizationID *uuid.UUID      `json:"client_organization_id"`
}

func (h *Handler) createDeal(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req createDealRequest
	if !h.bind(c, &req) {
		return
	}
	deal, err := h.svc.Deals.Create(c.Request.Context(), principal, service.CreateDealInput{
		Name:                 req.Name,
		Type:                 enum[model.DealType](req.Type),
		Status:               enum[model.DealStatus](req.Status),
		Stage:                enum[model.DealStage](req.Stage),
		ProjectStep:          enum[model.ProjectStep](req.ProjectStep),
		ExpectedValue:        req.ExpectedValue,
		FeeRetainer:          req.FeeRetainer,
		FeeSuccess:           req.FeeSuccess,
		Currency:             req.Currency,
		LeadContactID:        req.LeadContactID,
		ClientOrganizationID: req.ClientOrganizationID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, deal)
}

func (h *Handler) listDeals(c *gin.Context) {
	deals, err := h.svc.Deals.List(c.Request.Context(), repository.DealFilter{
		Stage:  enum[model.DealStage](c.Query("stage")),
		Status: enum[model.DealStatus](c.Query("status")),
		Search: c.Query("search"),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, deals)
}

func (h *Handler) getDeal(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	view, err := h.svc.Deals.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

type updateDealRequest struct {
	Name                 *string          `json:"name"`
	Type                 *string          `json:"type"`
	Status               *string          `json:"status"`
	ExpectedValue        *decimal.Decimal `json:"expected_value"`
	FeeRetainer          *decimal.Decimal `json:"fee_retainer"`
	FeeSuccess           *decimal.Decimal `json:"fee_success"`
	Currency             *string          `json:"currency"`
	LeadContactID        *uuid.UUID       `json:"lead_contact_id"`
	ClientOrganizationID *uuid.UUID       `json:"client_organization_id"`
}

func (h *Handler) updateDeal(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req updateDealRequest
	if !h.bind(c, &req) {
		return
	}
	deal, err := h.svc.Deals.Update(c.Request.Context(), principal, id, service.UpdateDealInput{
		Name:                 req.Name,
		Type:                 enumPtr[model.DealType](req.Type),
		Status:               enumPtr[model.DealStatus](req.Status),
		ExpectedValue:        req.ExpectedValue,
		FeeRetainer:          req.FeeRetainer,
		FeeSuccess:           req.FeeSuccess,
		Currency:             req.Currency,
		LeadContactID:        req.LeadContactID,
		ClientOrganizationID: req.ClientOrganizationID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, deal)
}

type advanceStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

func (h *Handler) advanceStage(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req advanceStageRequest
	if !h.bind(c, &req) {
		return
	}
	opened, err := h.svc.Deals.AdvanceDealStage(c.Request.Context(), principal, id, enum[model.DealStage](req.Stage))
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, opened)
}

type projectStepRequest struct {
	Step      string `json:"step" binding:"required"`
	SyncStage *bool  `json:"sync_stage"`
}

// setProjectStep syncs the coarse stage unless sync_stage is false.
func (h *Handler) setProjectStep(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req projectStepRequest
	if !h.bind(c, &req) {
		return
	}
	sync := req.SyncStage == nil || *req.SyncStage
	deal, err := h.svc.Deals.SetProjectStep(c.Request.Context(), principal, id, enum[model.ProjectStep](req.Step), sync)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, deal)
}

func (h *Handler) dealHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	timeline, err := h.svc.Deals.History(c.Request.Context(), id, pipeline.ParseOrder(c.Query("order")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, timeline)
}

func (h *Handler) dealAnalytics(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	analytics, err := h.svc.Deals.Analytics(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, analytics)
}

type portalSettingsRequest struct {
	Enabled  *bool   `json:"enabled" binding:"required"`
	Password *string `json:"password"`
}

func (h *Handler) updatePortal(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req portalSettingsRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.svc.Deals.UpdatePortal(c.Request.Context(), principal, id, *req.Enabled, req.Password); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"enabled": *req.Enabled})
}

type teamMemberRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
}

func (h *Handler) listTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	team, err := h.svc.Deals.ListTeam(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, team)
}

func (h *Handler) addTeamMember(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req teamMemberRequest
	if !h.bind(c, &req) {
		return
	}
	member, err := h.svc.Deals.AddTeamMember(c.Request.Context(), principal, id, req.UserID, req.DisplayName, enum[model.DealTeamRole](req.Role))
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, member)
}

func (h *Handler) removeTeamMember(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	memberID, valid := pathID(c, "memberId")
	if !valid {
		return
	}
	if err := h.svc.Deals.RemoveTeamMember(c.Request.Context(), principal, id, memberID); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

type commentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) listActivities(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	activities, err := h.svc.Deals.ListActivities(c.Request.Context(), id, pageFromQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, activities)
}

func (h *Handler) addComment(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req commentRequest
	if !h.bind(c, &req) {
		return
	}
	activity, err := h.svc.Deals.AddComment(c.Request.Context(), principal, id, req.Body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, activity)
}
