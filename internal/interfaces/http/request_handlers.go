package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/application/service"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateRequestBody is the payload for submitting a request. Items are used
// for petty cash; Amount for cash advance and expense.
type CreateRequestBody struct {
	Description string          `json:"description"`
	Items       []LineItemBody  `json:"items"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// LineItemBody is one petty cash line
type LineItemBody struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ActionBody carries the optional approval note or the rejection reason
type ActionBody struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// CreateRequest handles POST /api/v1/modules/:module/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]entity.LineItem, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, entity.LineItem{Description: it.Description, Amount: it.Amount})
	}

	req, err := h.requests.Create(c.Request.Context(), service.CreateRequestInput{
		Module:      moduleOf(c),
		OwnerUserID: actor(c).ID,
		Description: body.Description,
		Items:       items,
		Amount:      body.Amount,
		Currency:    body.Currency,
	})
	if err != nil {
		h.respondError(c, err, "create request")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/v1/modules/:module/requests?status=&owner=&limit=&offset=
func (h *Handlers) ListRequests(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	status, ok := statusParam(c)
	if !ok {
		return
	}

	reqs, err := h.requests.List(c.Request.Context(), port.RequestFilter{
		Module:      moduleOf(c),
		Status:      status,
		OwnerUserID: c.Query("owner"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		h.respondError(c, err, "list requests")
		return
	}
	if reqs == nil {
		reqs = []*entity.Request{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reqs})
}

// GetRequest handles GET /api/v1/modules/:module/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), moduleOf(c), id)
	if err != nil {
		h.respondError(c, err, "get request")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ApproveRequest handles POST /api/v1/modules/:module/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body ActionBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	req, err := h.requests.Approve(c.Request.Context(), moduleOf(c), id, actor(c).ID, body.Note)
	if err != nil {
		h.respondError(c, err, "approve request")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// RejectRequest handles POST /api/v1/modules/:module/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body ActionBody
	if !bindOptionalJSON(c, &body) {
		return
	}

	req, err := h.requests.Reject(c.Request.Context(), moduleOf(c), id, actor(c).ID, body.Reason)
	if err != nil {
		h.respondError(c, err, "reject request")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListPending handles GET /api/v1/approvals/pending: everything awaiting the caller
func (h *Handlers) ListPending(c *gin.Context) {
	reqs, err := h.requests.PendingFor(c.Request.Context(), actor(c).ID)
	if err != nil {
		h.respondError(c, err, "list pending requests")
		return
	}
	if reqs == nil {
		reqs = []*entity.Request{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reqs})
}

// ExportRegister handles GET /api/v1/modules/:module/register?status= and streams an xlsx workbook
func (h *Handlers) ExportRegister(c *gin.Context) {
	status, ok := statusParam(c)
	if !ok {
		return
	}
	module := moduleOf(c)

	label := "all"
	if status != "" {
		label = strings.ToLower(status.String())
	}
	filename := fmt.Sprintf("%s-%s-%s.xlsx", module.Slug(), label, time.Now().Format("20060102"))

	// Buffer first so a failed export still gets a JSON error instead of a truncated file
	var buf bytes.Buffer
	if err := h.export.WriteRegister(c.Request.Context(), &buf, module, status); err != nil {
		h.respondError(c, err, "export register")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func statusParam(c *gin.Context) (workflow.State, bool) {
	raw := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if raw == "" {
		return "", true
	}
	status := workflow.State(raw)
	if !status.IsValid() {
		abort(c, http.StatusBadRequest, "unknown status")
		return "", false
	}
	return status, true
}

// bindOptionalJSON binds the body when one is sent; chunked bodies have no
// Content-Length so an empty stream (io.EOF) is what marks "no body".
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		abort(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
