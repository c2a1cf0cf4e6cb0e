package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romangod6/store-insights/internal/models"
	"github.com/romangod6/store-insights/internal/scraper"
	"github.com/romangod6/store-insights/internal/service"
)

const (
	CodeWebsiteNotFound  = "WEBSITE_NOT_FOUND"
	CodeInvalidURL       = "INVALID_URL"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeTimeout          = "TIMEOUT_ERROR"
	CodePersistenceError = "PERSISTENCE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

type Handler struct {
	svc *service.Service
}

// Response is the envelope every /api/v1 endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
}

type PaginationResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Count  int         `json:"count"`
}

type ExtractRequest struct {
	WebsiteURL string `json:"website_url" binding:"required"`
	Refresh    bool   `json:"refresh"`
}

type CompetitorRequest struct {
	WebsiteURL     string `json:"website_url" binding:"required"`
	MaxCompetitors int    `json:"max_competitors" binding:"omitempty,min=1,max=10"`
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) ExtractInsights(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Message:   "Invalid request payload",
			Error:     err.Error(),
			ErrorCode: CodeInvalidRequest,
		})
		return
	}

	insights, cached, err := h.svc.Extract(c.Request.Context(), req.WebsiteURL, req.Refresh)
	if err != nil {
		respondError(c, err, insights)
		return
	}

	message := "Store insights extracted successfully"
	if cached {
		message = "Store insights loaded from cache"
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: insights})
}

func (h *Handler) ListInsights(c *gin.Context) {
	if c.Query("url") != "" {
		h.GetInsights(c)
		return
	}

	limit, offset := getPaginationParams(c)

	list, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Store insights listed",
		Data: PaginationResponse{
			Items:  list,
			Limit:  limit,
			Offset: offset,
			Count:  len(list),
		},
	})
}

func (h *Handler) GetInsights(c *gin.Context) {
	insights, err := h.svc.Get(c.Request.Context(), storeURLParam(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Store insights found", Data: insights})
}

func (h *Handler) DeleteInsights(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), storeURLParam(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, Response{
			Message:   "No cached insights for this store",
			Data:      gin.H{"deleted": false},
			Error:     service.ErrNotFound.Error(),
			ErrorCode: CodeNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Store insights deleted", Data: gin.H{"deleted": true}})
}

func (h *Handler) AnalyzeCompetitors(c *gin.Context) {
	var req CompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Message:   "Invalid request payload",
			Error:     err.Error(),
			ErrorCode: CodeInvalidRequest,
		})
		return
	}

	report, err := h.svc.AnalyzeCompetitors(c.Request.Context(), req.WebsiteURL, req.MaxCompetitors)
	if err != nil {
		var data interface{}
		if report != nil {
			data = report
		}
		respondError(c, err, data)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Competitor analysis completed", Data: report})
}

func (h *Handler) ListCompetitorAnalyses(c *gin.Context) {
	analyses, err := h.svc.ListAnalyses(c.Request.Context(), storeURLParam(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	if analyses == nil {
		analyses = []*models.CompetitorAnalysis{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: "Competitor analyses listed", Data: analyses})
}

// respondError maps a service error onto a status code and error code.
// data, when set, is whatever the request produced before failing.
func respondError(c *gin.Context, err error, data interface{}) {
	status, code, message := classifyError(err)
	resp := Response{
		Message:   message,
		Error:     err.Error(),
		ErrorCode: code,
	}
	// A typed nil must not end up as "data": null.
	if in, ok := data.(*models.StoreInsights); !ok || in != nil {
		resp.Data = data
	}
	c.JSON(status, resp)
}

func classifyError(err error) (int, string, string) {
	var persistErr *service.PersistenceError
	switch {
	case errors.Is(err, models.ErrInvalidURL):
		return http.StatusBadRequest, CodeInvalidURL, "Invalid website URL"
	case errors.Is(err, scraper.ErrStoreUnreachable) && isTimeout(err):
		return http.StatusRequestTimeout, CodeTimeout, "Website did not respond in time"
	case errors.Is(err, scraper.ErrStoreUnreachable):
		return http.StatusNotFound, CodeWebsiteNotFound, "Website not found or not reachable"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "No cached insights for this store"
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, CodePersistenceError, "Failed to access the insights cache"
	default:
		return http.StatusInternalServerError, CodeInternalError, "Internal server error"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// storeURLParam reads the store from the wildcard path segment, falling back
// to ?url= for clients that cannot put a URL in a path.
func storeURLParam(c *gin.Context) string {
	if q := c.Query("url"); q != "" {
		return q
	}
	raw := strings.TrimPrefix(c.Param("store_url"), "/")
	// Some proxies collapse "//" in paths.
	for _, scheme := range []string{"https:/", "http:/"} {
		if strings.HasPrefix(raw, scheme) && !strings.HasPrefix(raw, scheme+"/") {
			raw = scheme + "/" + strings.TrimPrefix(raw, scheme)
			break
		}
	}
	return raw
}

// Utility functions
func getPaginationParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit < 1 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
