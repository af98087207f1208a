package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/service"
)

type taskRequest struct {
	DealID      *uuid.UUID `json:"deal_id"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee"`
	DueAt       *string    `json:"due_at"`
}

func (r taskRequest) input() (service.TaskInput, error) {
	due, err := optionalDate(r.DueAt)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		DealID:      r.DealID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    enum[model.TaskPriority](r.Priority),
		Assignee:    r.Assignee,
		DueAt:       due,
	}, nil
}

func (h *Handler) listTasks(c *gin.Context) {
	dealID, valid := queryID(c, "deal_id")
	if !valid {
		return
	}
	filter := repository.TaskFilter{
		DealID:   dealID,
		Assignee: c.Query("assignee"),
		Page:     pageFromQuery(c),
	}
	if raw := strings.TrimSpace(c.Query("completed")); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid completed")
			return
		}
		filter.Completed = &completed
	}
	tasks, err := h.svc.Schedule.ListTasks(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, tasks)
}

func (h *Handler) createTask(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req taskRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}
	task, err := h.svc.Schedule.CreateTask(c.Request.Context(), principal, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req taskRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}
	task, err := h.svc.Schedule.UpdateTask(c.Request.Context(), principal, id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (h *Handler) toggleTask(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	task, err := h.svc.Schedule.ToggleTask(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Schedule.DeleteTask(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

type eventRequest struct {
	DealID   *uuid.UUID `json:"deal_id"`
	Title    string     `json:"title" binding:"required"`
	Type     string     `json:"type"`
	StartsAt string     `json:"starts_at" binding:"required"`
	EndsAt   *string    `json:"ends_at"`
	Location string     `json:"location"`
	Notes    string     `json:"notes"`
}

func (r eventRequest) input() (service.EventInput, error) {
	starts, err := parseDate(r.StartsAt)
	if err != nil {
		return service.EventInput{}, err
	}
	ends, err := optionalDate(r.EndsAt)
	if err != nil {
		return service.EventInput{}, err
	}
	return service.EventInput{
		DealID:   r.DealID,
		Title:    r.Title,
		Type:     enum[model.EventType](r.Type),
		StartsAt: starts,
		EndsAt:   ends,
		Location: r.Location,
		Notes:    r.Notes,
	}, nil
}

func (h *Handler) listEvents(c *gin.Context) {
	dealID, valid := queryID(c, "deal_id")
	if !valid {
		return
	}
	from, valid := queryTime(c, "from")
	if !valid {
		return
	}
	to, valid := queryTime(c, "to")
	if !valid {
		return
	}
	events, err := h.svc.Schedule.ListEvents(c.Request.Context(), repository.EventFilter{
		DealID: dealID,
		From:   from,
		To:     to,
		Page:   pageFromQuery(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, events)
}

func (h *Handler) createEvent(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req eventRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}
	event, err := h.svc.Schedule.CreateEvent(c.Request.Context(), principal, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, event)
}

func (h *Handler) updateEvent(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req eventRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}
	event, err := h.svc.Schedule.UpdateEvent(c.Request.Context(), principal, id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, event)
}

func (h *Handler) deleteEvent(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Schedule.DeleteEvent(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func optionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
