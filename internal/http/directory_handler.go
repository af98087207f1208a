package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/service"
)

type organizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

func (r organizationRequest) input() service.OrganizationInput {
	return service.OrganizationInput{
		Name:        r.Name,
		Type:        enum[model.OrganizationType](r.Type),
		Website:     r.Website,
		Industry:    r.Industry,
		Country:     r.Country,
		Description: r.Description,
	}
}

func (h *Handler) listOrganizations(c *gin.Context) {
	orgs, err := h.svc.Directory.ListOrganizations(c.Request.Context(), repository.OrganizationFilter{
		Type:   enum[model.OrganizationType](c.Query("type")),
		Search: c.Query("search"),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, orgs)
}

func (h *Handler) createOrganization(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req organizationRequest
	if !h.bind(c, &req) {
		return
	}
	org, err := h.svc.Directory.CreateOrganization(c.Request.Context(), principal, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, org)
}

func (h *Handler) getOrganization(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	org, err := h.svc.Directory.GetOrganization(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, org)
}

func (h *Handler) updateOrganization(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req organizationRequest
	if !h.bind(c, &req) {
		return
	}
	org, err := h.svc.Directory.UpdateOrganization(c.Request.Context(), principal, id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, org)
}

func (h *Handler) deleteOrganization(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Directory.DeleteOrganization(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

type contactRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name" binding:"required"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Position       string     `json:"position"`
}

func (r contactRequest) input() service.ContactInput {
	return service.ContactInput{
		OrganizationID: r.OrganizationID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Position:       r.Position,
	}
}

func (h *Handler) listContacts(c *gin.Context) {
	orgID, valid := queryID(c, "organization_id")
	if !valid {
		return
	}
	contacts, err := h.svc.Directory.ListContacts(c.Request.Context(), repository.ContactFilter{
		OrganizationID: orgID,
		Search:         c.Query("search"),
		Page:           pageFromQuery(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, contacts)
}

func (h *Handler) createContact(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req contactRequest
	if !h.bind(c, &req) {
		return
	}
	contact, err := h.svc.Directory.CreateContact(c.Request.Context(), principal, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, contact)
}

func (h *Handler) getContact(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	contact, err := h.svc.Directory.GetContact(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, contact)
}

func (h *Handler) updateContact(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req contactRequest
	if !h.bind(c, &req) {
		return
	}
	contact, err := h.svc.Directory.UpdateContact(c.Request.Context(), principal, id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, contact)
}

func (h *Handler) deleteContact(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Directory.DeleteContact(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}
