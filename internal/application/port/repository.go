package port

import (
	"context"
	"errors"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// ErrVersionConflict is returned by a guarded update when the stored row no longer
// matches the state the caller loaded
var ErrVersionConflict = errors.New("request was modified concurrently")

// RequestFilter narrows List results. Zero values mean "any".
type RequestFilter struct {
	Module      entity.Module
	Status      workflow.State
	OwnerUserID string
	Limit       int
	Offset      int
}

// UpdateGuard is the state a request must still be in for an update to apply
type UpdateGuard struct {
	Version               int64
	ApproveOrder          int
	CurrentApproverUserID string
}

// GuardOf captures the guard for req as loaded
func GuardOf(req *entity.Request) UpdateGuard {
	return UpdateGuard{
		Version:               req.Version,
		ApproveOrder:          req.ApproveOrder,
		CurrentApproverUserID: req.CurrentApproverUserID,
	}
}

// RequestRepository persists requests together with their items and history
type RequestRepository interface {
	// Create inserts the request, its line items and history, and sets IDs
	Create(ctx context.Context, req *entity.Request) error

	// GetByID loads a request of the given module; (nil, nil) when absent
	GetByID(ctx context.Context, module entity.Module, id int64) (*entity.Request, error)

	List(ctx context.Context, filter RequestFilter) ([]*entity.Request, error)

	// ListPendingFor returns PENDING requests of every module awaiting userID
	ListPendingFor(ctx context.Context, userID string) ([]*entity.Request, error)

	// Update writes status, position and approver if the row is still PENDING and
	// matches guard, bumps Version and appends history records without an ID.
	// Returns ErrVersionConflict when the guard no longer holds.
	Update(ctx context.Context, req *entity.Request, guard UpdateGuard) error
}

// DepartmentRepository persists department approver slots
type DepartmentRepository interface {
	Upsert(ctx context.Context, dept *entity.Department) error
	GetByName(ctx context.Context, name string) (*entity.Department, error)
	List(ctx context.Context) ([]*entity.Department, error)
}

// DivisionRepository persists head-of-division approver slots
type DivisionRepository interface {
	Upsert(ctx context.Context, div *entity.Division) error
	GetByName(ctx context.Context, name string) (*entity.Division, error)
	List(ctx context.Context) ([]*entity.Division, error)
}

// UserRepository persists users
type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByDisplayName(ctx context.Context, name string) (*entity.User, error)
	// GetByRole returns the first user holding role, compared case-insensitively
	GetByRole(ctx context.Context, role string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
