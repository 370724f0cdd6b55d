package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/backoffice-approvals/internal/application/service"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

const (
	headerUserID = "X-User-ID"

	ctxKeyUser   = "actor"
	ctxKeyModule = "module"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	requests  service.RequestService
	directory service.DirectoryService
	export    service.ExportService
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		requests:  services.Requests,
		directory: services.Directory,
		export:    services.Export,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Identify resolves the acting user from the X-User-ID header
func (h *Handlers) Identify(c *gin.Context) {
	userID := c.GetHeader(headerUserID)
	if userID == "" {
		abort(c, http.StatusUnauthorized, "missing "+headerUserID+" header")
		return
	}

	user, err := h.directory.UserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to look up acting user", "user_id", userID, "error", err)
		abort(c, http.StatusInternalServerError, "failed to identify user")
		return
	}
	if user == nil {
		abort(c, http.StatusUnauthorized, "unknown user")
		return
	}

	c.Set(ctxKeyUser, user)
	c.Next()
}

// ResolveModule parses the :module path segment ("petty-cash", "CASH_ADVANCE", ...)
func (h *Handlers) ResolveModule(c *gin.Context) {
	module, ok := entity.ParseModule(c.Param("module"))
	if !ok {
		abort(c, http.StatusNotFound, "unknown module")
		return
	}
	c.Set(ctxKeyModule, module)
	c.Next()
}

func actor(c *gin.Context) *entity.User {
	return c.MustGet(ctxKeyUser).(*entity.User)
}

func moduleOf(c *gin.Context) entity.Module {
	return c.MustGet(ctxKeyModule).(entity.Module)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// respondError maps service errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRequestNotFound):
		abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		abort(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		abort(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "op", op, "error", err)
		abort(c, http.StatusInternalServerError, op+" failed")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, "invalid request ID")
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	var q struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "invalid query parameters")
		return 0, 0, false
	}
	if q.Limit <= 0 || q.Limit > maxPageSize {
		q.Limit = defaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q.Limit, q.Offset, true
}
