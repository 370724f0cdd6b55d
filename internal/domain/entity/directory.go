package entity

import (
	"strings"
	"time"
)

// Department holds the two department-level approver slots.
// Slots are bound by display name, not by user id.
type Department struct {
	Name        string    `json:"name"`
	Division    string    `json:"division"`
	ApproverOne string    `json:"approver_one"`
	ApproverTwo string    `json:"approver_two"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Division holds the two head-of-division approver slots
type Division struct {
	Name                      string    `json:"name"`
	HeadOfDivisionApproverOne string    `json:"head_of_division_approver_one"`
	HeadOfDivisionApproverTwo string    `json:"head_of_division_approver_two"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// User is an employee as seen by the approval engine
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Department  string    `json:"department"`
	Division    string    `json:"division"`
	Email       string    `json:"email"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasRole compares role labels case-insensitively
func (u *User) HasRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), strings.TrimSpace(role))
}
