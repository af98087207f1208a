package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type addInvestorRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes"`
}

func (h *Handler) listInvestors(c *gin.Context) {
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	investors, err := h.svc.Investors.List(c.Request.Context(), dealID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, investors)
}

func (h *Handler) addInvestor(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req addInvestorRequest
	if !h.bind(c, &req) {
		return
	}
	investor, err := h.svc.Investors.AddToLonglist(c.Request.Context(), principal, dealID, service.AddInvestorInput{
		OrganizationID: req.OrganizationID,
		Status:         enum[model.InvestorStatus](req.Status),
		Notes:          req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, investor)
}

func (h *Handler) exportInvestors(c *gin.Context) {
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	export, err := h.svc.Investors.Export(c.Request.Context(), dealID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, export.FileName, xlsxContentType, export.Content)
}

type updateInvestorRequest struct {
	Notes    *string `json:"notes"`
	Feedback *string `json:"feedback"`
}

func (h *Handler) updateInvestor(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	orgID, valid := pathID(c, "orgId")
	if !valid {
		return
	}
	var req updateInvestorRequest
	if !h.bind(c, &req) {
		return
	}
	investor, err := h.svc.Investors.UpdateNotes(c.Request.Context(), principal, dealID, orgID, service.UpdateInvestorInput{
		Notes:    req.Notes,
		Feedback: req.Feedback,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, investor)
}

type investorStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setInvestorStatus(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	orgID, valid := pathID(c, "orgId")
	if !valid {
		return
	}
	var req investorStatusRequest
	if !h.bind(c, &req) {
		return
	}
	investor, err := h.svc.Investors.SetInvestorStatus(c.Request.Context(), principal, dealID, orgID, enum[model.InvestorStatus](req.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, investor)
}

type outreachRequest struct {
	To      []string `json:"to" binding:"required"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

func (h *Handler) sendOutreach(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	orgID, valid := pathID(c, "orgId")
	if !valid {
		return
	}
	var req outreachRequest
	if !h.bind(c, &req) {
		return
	}
	investor, err := h.svc.Investors.SendOutreach(c.Request.Context(), principal, dealID, orgID, service.OutreachInput{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, investor)
}
