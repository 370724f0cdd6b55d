package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/backoffice-approvals/internal/application/dispatcher"
	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/event"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
	"github.com/garyjia/backoffice-approvals/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics records approval activity
type Metrics interface {
	RecordAction(module entity.Module, action string)
	RecordOutcome(module entity.Module, kind approval.Kind)
}

type noopMetrics struct{}

func (noopMetrics) RecordAction(entity.Module, string)          {}
func (noopMetrics) RecordOutcome(entity.Module, approval.Kind) {}

// CreateRequestInput is what a requester submits
type CreateRequestInput struct {
	Module      entity.Module
	OwnerUserID string
	Description string
	Items       []entity.LineItem
	Amount      decimal.Decimal
	Currency    string
}

// RequestService runs petty cash, cash advance and expense requests through the approval chain
type RequestService interface {
	Create(ctx context.Context, in CreateRequestInput) (*entity.Request, error)
	Approve(ctx context.Context, module entity.Module, id int64, actorUserID, note string) (*entity.Request, error)
	Reject(ctx context.Context, module entity.Module, id int64, actorUserID, reason string) (*entity.Request, error)
	Get(ctx context.Context, module entity.Module, id int64) (*entity.Request, error)
	List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error)
	PendingFor(ctx context.Context, actorUserID string) ([]*entity.Request, error)
}

type requestServiceImpl struct {
	requests  port.RequestRepository
	users     port.UserRepository
	resolver  *approval.Resolver
	txManager port.TransactionManager
	events    dispatcher.Dispatcher
	metrics   Metrics
	logger    Logger
	now       func() time.Time
}

// RequestOption configures the request service
type RequestOption func(*requestServiceImpl)

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) RequestOption {
	return func(s *requestServiceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock sets the time source for history timestamps
func WithClock(now func() time.Time) RequestOption {
	return func(s *requestServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRequestService creates a new RequestService.
// The resolver should use the same clock so history timestamps agree.
func NewRequestService(
	requests port.RequestRepository,
	users port.UserRepository,
	resolver *approval.Resolver,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
	opts ...RequestOption,
) RequestService {
	s := &requestServiceImpl{
		requests:  requests,
		users:     users,
		resolver:  resolver,
		txManager: txManager,
		events:    events,
		metrics:   noopMetrics{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create snapshots the requester's organization, resolves the first approver and persists.
// A request with nobody to approve it is persisted directly as PAID.
func (s *requestServiceImpl) Create(ctx context.Context, in CreateRequestInput) (*entity.Request, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, in.OwnerUserID)
	if err != nil {
		s.logger.Error("Failed to load requester", "error", err, "user_id", in.OwnerUserID)
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: unknown requester %q", ErrInvalidRequest, in.OwnerUserID)
	}

	now := s.now()
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = entity.DefaultCurrency
	}
	if err := utils.ValidateCurrency(currency); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	req := &entity.Request{
		Module:       in.Module,
		OwnerUserID:  owner.ID,
		OwnerName:    owner.DisplayName,
		Department:   owner.Department,
		Division:     owner.Division,
		Description:  utils.SanitizeString(in.Description),
		Items:        in.Items,
		Amount:       in.Amount,
		Currency:     currency,
		Status:       workflow.StatePending,
		ApproveOrder: entity.PositionDepartmentApproverOne,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	req.Amount = req.Total()
	req.AppendHistory(entity.HistoryRecord{
		ActorUserID: owner.ID,
		ActorName:   owner.DisplayName,
		Action:      entity.ActionCreated,
		Timestamp:   now,
	})

	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.logger.Error("Failed to resolve approver", "error", err, "module", in.Module, "owner", owner.ID)
		return nil, fmt.Errorf("resolve approver: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "module", in.Module, "owner", owner.ID)
		return nil, err
	}

	s.record(req.Module, entity.ActionCreated, res)
	s.logger.Info("Request created",
		"id", req.ID,
		"module", req.Module,
		"status", req.Status,
		"approve_order", req.ApproveOrder,
		"current_approver", req.CurrentApproverUserID,
	)

	s.publish(ctx, event.TypeRequestCreated, req, owner.ID, owner.DisplayName, "")
	if res.Settles() {
		s.publishSettled(ctx, req, res)
	}
	return req, nil
}

// Approve records the current approver's approval and routes the request onward
func (s *requestServiceImpl) Approve(ctx context.Context, module entity.Module, id int64, actorUserID, note string) (*entity.Request, error) {
	req, err := s.loadForAction(ctx, module, id, actorUserID)
	if err != nil {
		return nil, err
	}

	guard := port.GuardOf(req)
	now := s.now()
	actorName := req.CurrentApproverName

	req.AppendHistory(entity.HistoryRecord{
		ActorUserID: actorUserID,
		ActorName:   actorName,
		Action:      entity.ActionApproved,
		Note:        strings.TrimSpace(note),
		Timestamp:   now,
	})
	req.AdvancePosition()

	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.logger.Error("Failed to resolve next approver", "error", err, "id", id, "module", module)
		return nil, fmt.Errorf("resolve approver: %w", err)
	}
	req.UpdatedAt = now

	if err := s.persist(ctx, req, guard); err != nil {
		return nil, err
	}

	s.record(module, entity.ActionApproved, res)
	s.logger.Info("Request approved",
		"id", id,
		"module", module,
		"actor", actorUserID,
		"status", req.Status,
		"approve_order", req.ApproveOrder,
		"outcome", res.Final().Kind,
	)

	s.publish(ctx, event.TypeRequestApproved, req, actorUserID, actorName, "")
	if res.Settles() {
		s.publishSettled(ctx, req, res)
	}
	return req, nil
}

// Reject terminates the request; no further routing happens
func (s *requestServiceImpl) Reject(ctx context.Context, module entity.Module, id int64, actorUserID, reason string) (*entity.Request, error) {
	req, err := s.loadForAction(ctx, module, id, actorUserID)
	if err != nil {
		return nil, err
	}

	guard := port.GuardOf(req)
	now := s.now()
	actorName := req.CurrentApproverName
	reason = strings.TrimSpace(reason)

	req.AppendHistory(entity.HistoryRecord{
		ActorUserID: actorUserID,
		ActorName:   actorName,
		Action:      entity.ActionRejected,
		Note:        reason,
		Timestamp:   now,
	})
	if err := req.Reject(); err != nil {
		return nil, fmt.Errorf("reject: %w", err)
	}
	req.UpdatedAt = now

	if err := s.persist(ctx, req, guard); err != nil {
		return nil, err
	}

	s.metrics.RecordAction(module, entity.ActionRejected)
	s.logger.Info("Request rejected", "id", id, "module", module, "actor", actorUserID)

	s.publish(ctx, event.TypeRequestRejected, req, actorUserID, actorName, reason)
	return req, nil
}

func (s *requestServiceImpl) Get(ctx context.Context, module entity.Module, id int64) (*entity.Request, error) {
	req, err := s.requests.GetByID(ctx, module, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id, "module", module)
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *requestServiceImpl) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "module", filter.Module, "status", filter.Status)
		return nil, err
	}
	return reqs, nil
}

func (s *requestServiceImpl) PendingFor(ctx context.Context, actorUserID string) ([]*entity.Request, error) {
	reqs, err := s.requests.ListPendingFor(ctx, actorUserID)
	if err != nil {
		s.logger.Error("Failed to list pending requests", "error", err, "user_id", actorUserID)
		return nil, err
	}
	return reqs, nil
}

// loadForAction enforces the single approve/reject guard: PENDING and awaiting the actor.
// An unknown id is reported the same way.
func (s *requestServiceImpl) loadForAction(ctx context.Context, module entity.Module, id int64, actorUserID string) (*entity.Request, error) {
	req, err := s.requests.GetByID(ctx, module, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id, "module", module)
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil || !req.AwaitsActionFrom(actorUserID) {
		return nil, ErrNotAuthorized
	}
	return req, nil
}

func (s *requestServiceImpl) persist(ctx context.Context, req *entity.Request, guard port.UpdateGuard) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.requests.Update(txCtx, req, guard)
	})
	if errors.Is(err, port.ErrVersionConflict) {
		s.logger.Info("Request changed concurrently", "id", req.ID, "module", req.Module, "version", guard.Version)
		return ErrConflict
	}
	if err != nil {
		s.logger.Error("Failed to update request", "error", err, "id", req.ID, "module", req.Module)
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

func (s *requestServiceImpl) record(module entity.Module, action string, res approval.Resolution) {
	s.metrics.RecordAction(module, action)
	for _, o := range res.Outcomes {
		s.metrics.RecordOutcome(module, o.Kind)
	}
}

func (s *requestServiceImpl) publish(ctx context.Context, t event.Type, req *entity.Request, actorID, actorName, reason string) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		event.KeyOwnerUserID:  req.OwnerUserID,
		event.KeyActorUserID:  actorID,
		event.KeyActorName:    actorName,
		event.KeyAmount:       req.Amount.String(),
		event.KeyCurrency:     req.Currency,
		event.KeyApproveOrder: req.ApproveOrder,
	}
	if reason != "" {
		payload[event.KeyReason] = reason
	}
	s.events.DispatchAsync(ctx, event.NewEvent(t, req.ID, string(req.Module), payload))
}

func (s *requestServiceImpl) publishSettled(ctx context.Context, req *entity.Request, res approval.Resolution) {
	if s.events == nil {
		return
	}
	evt := event.NewEvent(event.TypeRequestSettled, req.ID, string(req.Module), map[string]interface{}{
		event.KeyOwnerUserID: req.OwnerUserID,
		event.KeyAmount:      req.Amount.String(),
		event.KeyCurrency:    req.Currency,
		event.KeyAutoPaid:    res.Final().Kind == approval.KindAutoPaid,
	})
	s.events.DispatchAsync(ctx, evt)
}

func validateCreate(in CreateRequestInput) error {
	if !in.Module.IsValid() {
		return fmt.Errorf("%w: unknown module %q", ErrInvalidRequest, in.Module)
	}
	if strings.TrimSpace(in.OwnerUserID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidRequest)
	}

	if in.Module == entity.ModulePettyCash {
		if len(in.Items) == 0 {
			return fmt.Errorf("%w: petty cash needs at least one item", ErrInvalidRequest)
		}
		for i, item := range in.Items {
			if utils.SanitizeString(item.Description) == "" {
				return fmt.Errorf("%w: item %d has no description", ErrInvalidRequest, i+1)
			}
			if !item.Amount.IsPositive() {
				return fmt.Errorf("%w: item %d amount must be positive", ErrInvalidRequest, i+1)
			}
		}
		return nil
	}

	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	return nil
}
