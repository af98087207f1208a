package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/http/middleware"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/service"
)

type Services struct {
	Deals      *service.DealService
	Investors  *service.InvestorService
	Directory  *service.DirectoryService
	Schedule   *service.ScheduleService
	Dashboard  *service.DashboardService
	Portal     *service.PortalService
	Enrichment *service.EnrichmentService
	Documents  *service.DocumentService
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api/v1")
	api.POST("/portal/:dealId", h.openPortal)
	api.POST("/portal/:dealId/report.pdf", h.portalReport)

	protected := api.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/organizations", h.listOrganizations)
	protected.POST("/organizations", h.createOrganization)
	protected.GET("/organizations/:id", h.getOrganization)
	protected.PUT("/organizations/:id", h.updateOrganization)
	protected.DELETE("/organizations/:id", h.deleteOrganization)

	protected.GET("/contacts", h.listContacts)
	protected.POST("/contacts", h.createContact)
	protected.GET("/contacts/:id", h.getContact)
	protected.PUT("/contacts/:id", h.updateContact)
	protected.DELETE("/contacts/:id", h.deleteContact)

	protected.GET("/deals", h.listDeals)
	protected.POST("/deals", h.createDeal)
	protected.GET("/deals/:id", h.getDeal)
	protected.PUT("/deals/:id", h.updateDeal)
	protected.POST("/deals/:id/stage", h.advanceStage)
	protected.POST("/deals/:id/project-step", h.setProjectStep)
	protected.GET("/deals/:id/history", h.dealHistory)
	protected.GET("/deals/:id/analytics", h.dealAnalytics)
	protected.PUT("/deals/:id/portal", h.updatePortal)

	protected.GET("/deals/:id/team", h.listTeam)
	protected.POST("/deals/:id/team", h.addTeamMember)
	protected.DELETE("/deals/:id/team/:memberId", h.removeTeamMember)

	protected.GET("/deals/:id/activities", h.listActivities)
	protected.POST("/deals/:id/activities", h.addComment)

	protected.GET("/deals/:id/investors", h.listInvestors)
	protected.POST("/deals/:id/investors", h.addInvestor)
	protected.GET("/deals/:id/investors/export", h.exportInvestors)
	protected.PUT("/deals/:id/investors/:orgId", h.updateInvestor)
	protected.POST("/deals/:id/investors/:orgId/status", h.setInvestorStatus)
	protected.POST("/deals/:id/investors/:orgId/outreach", h.sendOutreach)

	protected.GET("/deals/:id/documents", h.listDocuments)
	protected.POST("/deals/:id/documents", h.uploadDocument)
	protected.GET("/deals/:id/documents/:docId/url", h.documentURL)

	protected.GET("/tasks", h.listTasks)
	protected.POST("/tasks", h.createTask)
	protected.PUT("/tasks/:id", h.updateTask)
	protected.DELETE("/tasks/:id", h.deleteTask)
	protected.POST("/tasks/:id/toggle", h.toggleTask)

	protected.GET("/events", h.listEvents)
	protected.POST("/events", h.createEvent)
	protected.PUT("/events/:id", h.updateEvent)
	protected.DELETE("/events/:id", h.deleteEvent)

	protected.GET("/dashboard", h.dashboard)
	protected.POST("/ai/enrich", h.enrich)
}

// ok and fail write the result envelope every endpoint answers with.
func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTransitionNotAllowed):
		fail(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrPortalDisabled):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPortalUnauthorized):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEnrichmentUnavailable):
		fail(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		fail(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, found := middleware.MustPrincipal(c)
	if !found {
		fail(c, http.StatusUnauthorized, "missing principal")
	}
	return principal, found
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	parsed, err := parseDate(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &parsed, true
}

func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.Page{Limit: limit, Offset: offset}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", service.ErrInvalidInput, raw)
}

func attachment(c *gin.Context, fileName, contentType string, content []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, contentType, content)
}
