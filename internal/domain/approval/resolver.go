package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// ErrNotPending is returned when asked to route a request that already reached PAID or REJECTED
var ErrNotPending = errors.New("request is not pending")

// Directory is the read-only organizational lookup the resolver depends on.
// Lookups use exact string equality; a missing record is (nil, nil).
type Directory interface {
	DepartmentByName(ctx context.Context, name string) (*entity.Department, error)
	DivisionByName(ctx context.Context, name string) (*entity.Division, error)
	UserByDisplayName(ctx context.Context, name string) (*entity.User, error)
	UserByRole(ctx context.Context, role string) (*entity.User, error)
}

// Resolver walks the approval sequence from a request's current position
type Resolver struct {
	directory   Directory
	cashierRole string
	now         func() time.Time
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCashierRole overrides the role label that identifies the settling cashier
func WithCashierRole(role string) Option {
	return func(r *Resolver) {
		if role != "" {
			r.cashierRole = role
		}
	}
}

// WithClock sets the time source used to stamp audit records
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a resolver reading from directory
func NewResolver(directory Directory, opts ...Option) *Resolver {
	r := &Resolver{
		directory:   directory,
		cashierRole: entity.RoleGeneralCashier,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CashierRole returns the configured cashier role label
func (r *Resolver) CashierRole() string {
	return r.cashierRole
}

// Resolve plans the next step for req and applies it in place.
// On error req is left untouched.
func (r *Resolver) Resolve(ctx context.Context, req *entity.Request) (Resolution, error) {
	res, err := r.Plan(ctx, req)
	if err != nil {
		return Resolution{}, err
	}
	if err := res.Apply(req, r.now()); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

// Plan computes the outcomes without mutating req
func (r *Resolver) Plan(ctx context.Context, req *entity.Request) (Resolution, error) {
	if req.Status != workflow.StatePending {
		return Resolution{}, fmt.Errorf("%w: request %d is %s", ErrNotPending, req.ID, req.Status)
	}

	var res Resolution
	slots := &slotReader{directory: r.directory, req: req}

	position := req.ApproveOrder
	if position < entity.PositionDepartmentApproverOne {
		position = entity.PositionDepartmentApproverOne
	}

	for ; position < entity.PositionCashier; position++ {
		name, err := slots.nameAt(ctx, position)
		if err != nil {
			return Resolution{}, err
		}
		if name == "" {
			res.Outcomes = append(res.Outcomes, Outcome{Kind: KindSkipped, Position: position, Reason: ReasonUnconfigured})
			continue
		}

		user, err := r.directory.UserByDisplayName(ctx, name)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup approver %q: %w", name, err)
		}
		if user == nil {
			res.Outcomes = append(res.Outcomes, Outcome{Kind: KindSkipped, Position: position, UserName: name, Reason: ReasonUnresolved})
			continue
		}
		if user.ID == req.OwnerUserID {
			res.Outcomes = append(res.Outcomes, Outcome{Kind: KindAutoSkipped, Position: position, UserID: user.ID, UserName: user.DisplayName})
			continue
		}

		res.Outcomes = append(res.Outcomes, Outcome{Kind: KindNextApprover, Position: position, UserID: user.ID, UserName: user.DisplayName})
		return res, nil
	}

	cashier, err := r.directory.UserByRole(ctx, r.cashierRole)
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup cashier: %w", err)
	}

	// the cashier stage runs once; when the cashier has already acted the request settles
	if cashier != nil && req.CurrentApproverUserID != cashier.ID {
		kind := KindCashierAssigned
		if cashier.ID == req.OwnerUserID {
			kind = KindAutoPaid
		}
		res.Outcomes = append(res.Outcomes, Outcome{Kind: kind, Position: entity.PositionCashier, UserID: cashier.ID, UserName: cashier.DisplayName})
		return res, nil
	}

	res.Outcomes = append(res.Outcomes, Outcome{Kind: KindSettled, Position: entity.PositionCashier})
	return res, nil
}

// slotReader loads the department and division at most once per resolution
type slotReader struct {
	directory Directory
	req       *entity.Request

	dept       *entity.Department
	deptLoaded bool
	div        *entity.Division
	divLoaded  bool
}

func (s *slotReader) nameAt(ctx context.Context, position int) (string, error) {
	switch position {
	case entity.PositionDepartmentApproverOne, entity.PositionDepartmentApproverTwo:
		if !s.deptLoaded {
			dept, err := s.directory.DepartmentByName(ctx, s.req.Department)
			if err != nil {
				return "", fmt.Errorf("lookup department %q: %w", s.req.Department, err)
			}
			s.dept, s.deptLoaded = dept, true
		}
		if s.dept == nil {
			return "", nil
		}
		if position == entity.PositionDepartmentApproverOne {
			return s.dept.ApproverOne, nil
		}
		return s.dept.ApproverTwo, nil

	case entity.PositionDivisionHeadOne, entity.PositionDivisionHeadTwo:
		if !s.divLoaded {
			div, err := s.directory.DivisionByName(ctx, s.req.Division)
			if err != nil {
				return "", fmt.Errorf("lookup division %q: %w", s.req.Division, err)
			}
			s.div, s.divLoaded = div, true
		}
		if s.div == nil {
			return "", nil
		}
		if position == entity.PositionDivisionHeadOne {
			return s.div.HeadOfDivisionApproverOne, nil
		}
		return s.div.HeadOfDivisionApproverTwo, nil
	}
	return "", nil
}
