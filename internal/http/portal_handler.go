package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/dealflow/internal/service"
)

type portalRequest struct {
	Password string `json:"password"`
}

// bindPortal accepts an empty body for portals without a password.
func (h *Handler) bindPortal(c *gin.Context) (portalRequest, bool) {
	var req portalRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	return req, h.bind(c, &req)
}

func (h *Handler) openPortal(c *gin.Context) {
	dealID, valid := pathID(c, "dealId")
	if !valid {
		return
	}
	req, valid := h.bindPortal(c)
	if !valid {
		return
	}
	view, err := h.svc.Portal.Open(c.Request.Context(), dealID, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

func (h *Handler) portalReport(c *gin.Context) {
	dealID, valid := pathID(c, "dealId")
	if !valid {
		return
	}
	req, valid := h.bindPortal(c)
	if !valid {
		return
	}
	content, err := h.svc.Portal.Report(c.Request.Context(), dealID, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, "status_report_"+dealID.String()+".pdf", "application/pdf", content)
}

func (h *Handler) dashboard(c *gin.Context) {
	view, err := h.svc.Dashboard.Get(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

type enrichRequest struct {
	Action string          `json:"action" binding:"required"`
	Data   json.RawMessage `json:"data"`
}

func (h *Handler) enrich(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	var req enrichRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Enrichment.Enrich(c.Request.Context(), principal, req.Action, req.Data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

func (h *Handler) listDocuments(c *gin.Context) {
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	docs, err := h.svc.Documents.List(c.Request.Context(), dealID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, docs)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	principal, found := h.principal(c)
	if !found {
		return
	}
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	doc, err := h.svc.Documents.Upload(c.Request.Context(), principal, dealID, service.UploadInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

func (h *Handler) documentURL(c *gin.Context) {
	dealID, valid := pathID(c, "id")
	if !valid {
		return
	}
	docID, valid := pathID(c, "docId")
	if !valid {
		return
	}
	link, err := h.svc.Documents.DownloadURL(c.Request.Context(), dealID, docID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, link)
}
