package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

// DepartmentBody holds the two department approver slots (display names, empty = skip)
type DepartmentBody struct {
	Division    string `json:"division"`
	ApproverOne string `json:"approver_one"`
	ApproverTwo string `json:"approver_two"`
}

// DivisionBody holds the two head-of-division approver slots
type DivisionBody struct {
	HeadOfDivisionApproverOne string `json:"head_of_division_approver_one"`
	HeadOfDivisionApproverTwo string `json:"head_of_division_approver_two"`
}

// UserBody is a directory user record
type UserBody struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	Division    string `json:"division"`
	Email       string `json:"email"`
}

// ListDepartments handles GET /api/v1/directory/departments
func (h *Handlers) ListDepartments(c *gin.Context) {
	depts, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list departments")
		return
	}
	if depts == nil {
		depts = []*entity.Department{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: depts})
}

// UpsertDepartment handles PUT /api/v1/directory/departments/:name
func (h *Handlers) UpsertDepartment(c *gin.Context) {
	var body DepartmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	dept := &entity.Department{
		Name:        c.Param("name"),
		Division:    body.Division,
		ApproverOne: body.ApproverOne,
		ApproverTwo: body.ApproverTwo,
	}
	if err := h.directory.UpsertDepartment(c.Request.Context(), dept); err != nil {
		h.respondError(c, err, "upsert department")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: dept})
}

// ListDivisions handles GET /api/v1/directory/divisions
func (h *Handlers) ListDivisions(c *gin.Context) {
	divs, err := h.directory.ListDivisions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list divisions")
		return
	}
	if divs == nil {
		divs = []*entity.Division{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: divs})
}

// UpsertDivision handles PUT /api/v1/directory/divisions/:name
func (h *Handlers) UpsertDivision(c *gin.Context) {
	var body DivisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	div := &entity.Division{
		Name:                      c.Param("name"),
		HeadOfDivisionApproverOne: body.HeadOfDivisionApproverOne,
		HeadOfDivisionApproverTwo: body.HeadOfDivisionApproverTwo,
	}
	if err := h.directory.UpsertDivision(c.Request.Context(), div); err != nil {
		h.respondError(c, err, "upsert division")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: div})
}

// ListUsers handles GET /api/v1/directory/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list users")
		return
	}
	if users == nil {
		users = []*entity.User{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// UpsertUser handles PUT /api/v1/directory/users/:id
func (h *Handlers) UpsertUser(c *gin.Context) {
	var body UserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user := &entity.User{
		ID:          c.Param("id"),
		DisplayName: body.DisplayName,
		Role:        body.Role,
		Department:  body.Department,
		Division:    body.Division,
		Email:       body.Email,
	}
	if err := h.directory.UpsertUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err, "upsert user")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}
