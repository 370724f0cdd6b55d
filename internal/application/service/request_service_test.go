package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/event"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

type requestFixture struct {
	svc     RequestService
	repo    *memRequestRepo
	dir     *memDirectory
	events  *captureDispatcher
	metrics *countingMetrics
}

func newUsers() (alice, bob, carol *entity.User) {
	alice = &entity.User{ID: "u-alice", DisplayName: "Alice", Role: "Supervisor", Department: "Front Office", Division: "Ops"}
	bob = &entity.User{ID: "u-bob", DisplayName: "Bob", Role: "Staff", Department: "Front Office", Division: "Ops", Email: "bob@hotel.test"}
	carol = &entity.User{ID: "u-carol", DisplayName: "Carol", Role: "General Cashier", Department: "Finance", Division: "Finance"}
	return
}

// newRequestFixture: Front Office has only ApproverOne=Alice, Ops has no heads, Carol is the cashier
func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	alice, bob, carol := newUsers()
	dir := newMemDirectory(alice, bob, carol)
	dir.departments["Front Office"] = &entity.Department{Name: "Front Office", Division: "Ops", ApproverOne: "Alice"}
	dir.divisions["Ops"] = &entity.Division{Name: "Ops"}

	clock := func() time.Time { return testNow }
	f := &requestFixture{
		repo:    newMemRequestRepo(),
		dir:     dir,
		events:  &captureDispatcher{},
		metrics: newCountingMetrics(),
	}
	f.svc = NewRequestService(
		f.repo,
		dir,
		approval.NewResolver(dir, approval.WithClock(clock)),
		&mockTxManager{},
		f.events,
		&mockLogger{},
		WithMetrics(f.metrics),
		WithClock(clock),
	)
	return f
}

func cashAdvance(owner string, amount string) CreateRequestInput {
	return CreateRequestInput{
		Module:      entity.ModuleCashAdvance,
		OwnerUserID: owner,
		Description: "Supplier deposit",
		Amount:      decimal.RequireFromString(amount),
	}
}

func historyActions(req *entity.Request) []string {
	out := make([]string, 0, len(req.History))
	for _, h := range req.History {
		out = append(out, h.Action)
	}
	return out
}

func TestRequestService_Create(t *testing.T) {
	f := newRequestFixture(t)

	req, err := f.svc.Create(context.Background(), cashAdvance("u-bob", "250000"))
	require.NoError(t, err)

	assert.NotZero(t, req.ID)
	assert.Equal(t, workflow.StatePending, req.Status)
	assert.Equal(t, entity.PositionDepartmentApproverOne, req.ApproveOrder)
	assert.Equal(t, "u-alice", req.CurrentApproverUserID)
	assert.Equal(t, "Front Office", req.Department)
	assert.Equal(t, "Ops", req.Division)
	assert.Equal(t, entity.DefaultCurrency, req.Currency)
	assert.Equal(t, []string{entity.ActionCreated}, historyActions(req))
	assert.Equal(t, testNow, req.History[0].Timestamp)

	stored := f.repo.stored(req.ID)
	assert.Equal(t, "u-alice", stored.CurrentApproverUserID)
	assert.Equal(t, []event.Type{event.TypeRequestCreated}, f.events.types())
	assert.Equal(t, 1, f.metrics.actions["CASH_ADVANCE/Created"])
	assert.Equal(t, 1, f.metrics.outcomes[string(approval.KindNextApprover)])
}

func TestRequestService_CreateSnapshotsOrganization(t *testing.T) {
	f := newRequestFixture(t)
	req, err := f.svc.Create(context.Background(), cashAdvance("u-bob", "100"))
	require.NoError(t, err)

	// moving Bob afterwards must not affect the existing request
	_, bob, _ := newUsers()
	bob.Department = "Housekeeping"
	require.NoError(t, f.dir.Upsert(context.Background(), bob))

	got, err := f.svc.Get(context.Background(), entity.ModuleCashAdvance, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front Office", got.Department)
}

func TestRequestService_CreatePettyCashSumsItems(t *testing.T) {
	f := newRequestFixture(t)

	req, err := f.svc.Create(context.Background(), CreateRequestInput{
		Module:      entity.ModulePettyCash,
		OwnerUserID: "u-bob",
		Currency:    "idr",
		Items: []entity.LineItem{
			{Description: "Cleaning supplies", Amount: decimal.RequireFromString("45000")},
			{Description: "Courier", Amount: decimal.RequireFromString("15000.50")},
		},
	})
	require.NoError(t, err)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("60000.50")), "amount = %s", req.Amount)
	assert.Equal(t, "IDR", req.Currency)
}

func TestRequestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateRequestInput
	}{
		{"unknown module", CreateRequestInput{Module: "ENGINEERING", OwnerUserID: "u-bob", Amount: decimal.NewFromInt(1)}},
		{"missing owner", CreateRequestInput{Module: entity.ModuleExpense, Amount: decimal.NewFromInt(1)}},
		{"unknown owner", cashAdvance("u-ghost", "10")},
		{"zero amount", cashAdvance("u-bob", "0")},
		{"negative amount", cashAdvance("u-bob", "-5")},
		{"malformed currency", CreateRequestInput{Module: entity.ModuleExpense, OwnerUserID: "u-bob", Amount: decimal.NewFromInt(1), Currency: "RUPIAH"}},
		{"petty cash without items", CreateRequestInput{Module: entity.ModulePettyCash, OwnerUserID: "u-bob"}},
		{"petty cash item without amount", CreateRequestInput{
			Module:      entity.ModulePettyCash,
			OwnerUserID: "u-bob",
			Items:       []entity.LineItem{{Description: "x", Amount: decimal.Zero}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture(t)
			_, err := f.svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestRequestService_CreateWithoutApproversSettles(t *testing.T) {
	f := newRequestFixture(t)
	delete(f.dir.departments, "Front Office")
	_, _, carol := newUsers()
	carol.Role = "Night Auditor"
	require.NoError(t, f.dir.Upsert(context.Background(), carol))

	req, err := f.svc.Create(context.Background(), cashAdvance("u-bob", "75000"))
	require.NoError(t, err)

	assert.Equal(t, workflow.StatePaid, req.Status)
	assert.Equal(t, []string{entity.ActionCreated}, historyActions(req))
	assert.Equal(t, entity.PositionCashier, req.ApproveOrder)
	assert.False(t, req.HasApprover())
	assert.Equal(t, []event.Type{event.TypeRequestCreated, event.TypeRequestSettled}, f.events.types())
}

func TestRequestService_ScenarioA(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, cashAdvance("u-bob", "500000"))
	require.NoError(t, err)

	req, err = f.svc.Approve(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "ok")
	require.NoError(t, err)
	assert.Equal(t, entity.PositionCashier, req.ApproveOrder)
	assert.Equal(t, "u-carol", req.CurrentApproverUserID)
	assert.Equal(t, workflow.StatePending, req.Status)

	req, err = f.svc.Approve(ctx, entity.ModuleCashAdvance, req.ID, "u-carol", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePaid, req.Status)
	assert.False(t, req.HasApprover())
	assert.Equal(t, []string{entity.ActionCreated, entity.ActionApproved, entity.ActionApproved}, historyActions(req))
	assert.Equal(t, "ok", req.History[1].Note)
	assert.Equal(t, "Alice", req.History[1].ActorName)

	stored := f.repo.stored(req.ID)
	assert.Equal(t, workflow.StatePaid, stored.Status)
	assert.Equal(t, int64(3), stored.Version)

	settled := f.events.last(event.TypeRequestSettled)
	require.NotNil(t, settled)
	assert.Equal(t, "u-bob", settled.GetPayloadString(event.KeyOwnerUserID))
	assert.Equal(t, "500000", settled.GetPayloadString(event.KeyAmount))
	assert.False(t, settled.GetPayloadBool(event.KeyAutoPaid))
}

func TestRequestService_ScenarioB(t *testing.T) {
	f := newRequestFixture(t)
	f.dir.departments["Front Office"].ApproverOne = "Bob"

	req, err := f.svc.Create(context.Background(), cashAdvance("u-bob", "1000"))
	require.NoError(t, err)

	assert.Equal(t, []string{entity.ActionCreated, entity.ActionAutoApproved}, historyActions(req))
	assert.Equal(t, entity.NoteSelfApprovalSkip, req.History[1].Note)
	assert.Equal(t, entity.PositionCashier, req.ApproveOrder)
	assert.Equal(t, "u-carol", req.CurrentApproverUserID)
}

func TestRequestService_ApproveGuard(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	req, err := f.svc.Create(ctx, cashAdvance("u-bob", "1000"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		module entity.Module
		id     int64
		actor  string
	}{
		{"not the current approver", entity.ModuleCashAdvance, req.ID, "u-carol"},
		{"requester", entity.ModuleCashAdvance, req.ID, "u-bob"},
		{"empty actor", entity.ModuleCashAdvance, req.ID, ""},
		{"unknown id", entity.ModuleCashAdvance, 999, "u-alice"},
		{"wrong module", entity.ModuleExpense, req.ID, "u-alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Approve(ctx, tt.module, tt.id, tt.actor, "")
			assert.ErrorIs(t, err, ErrNotAuthorized)
			_, err = f.svc.Reject(ctx, tt.module, tt.id, tt.actor, "no")
			assert.ErrorIs(t, err, ErrNotAuthorized)
		})
	}

	assert.Equal(t, int64(1), f.repo.stored(req.ID).Version, "nothing was persisted")
}

func TestRequestService_Reject(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	req, err := f.svc.Create(ctx, cashAdvance("u-bob", "1000"))
	require.NoError(t, err)

	req, err = f.svc.Reject(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "  missing receipt ")
	require.NoError(t, err)

	assert.Equal(t, workflow.StateRejected, req.Status)
	assert.False(t, req.HasApprover())
	assert.Equal(t, entity.PositionDepartmentApproverOne, req.ApproveOrder)
	last := req.History[len(req.History)-1]
	assert.Equal(t, entity.ActionRejected, last.Action)
	assert.Equal(t, "missing receipt", last.Note)

	rejected := f.events.last(event.TypeRequestRejected)
	require.NotNil(t, rejected)
	assert.Equal(t, "Alice", rejected.GetPayloadString(event.KeyActorName))
	assert.Equal(t, "missing receipt", rejected.GetPayloadString(event.KeyReason))

	// terminal: nobody can act any more
	_, err = f.svc.Approve(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.svc.Reject(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "again")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRequestService_ConcurrentApprove(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	req, err := f.svc.Create(ctx, cashAdvance("u-bob", "1000"))
	require.NoError(t, err)

	const racers = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		success int
		errs    []error
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Approve(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			errs = append(errs, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrConflict) || errors.Is(err, ErrNotAuthorized), "unexpected error %v", err)
	}

	stored := f.repo.stored(req.ID)
	approvals := map[int]int{}
	for _, h := range stored.History {
		if h.Action == entity.ActionApproved {
			approvals[h.Position]++
		}
	}
	assert.Equal(t, map[int]int{entity.PositionDepartmentApproverOne: 1}, approvals)
}

func TestRequestService_ConflictMapsToErrConflict(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()
	req, err := f.svc.Create(ctx, cashAdvance("u-bob", "1000"))
	require.NoError(t, err)

	f.repo.updateErr = port.ErrVersionConflict
	_, err = f.svc.Approve(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "")
	assert.ErrorIs(t, err, ErrConflict)

	f.repo.updateErr = errors.New("database is locked")
	_, err = f.svc.Reject(ctx, entity.ModuleCashAdvance, req.ID, "u-alice", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, f.repo.updateErr)
}

func TestRequestService_Queries(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, cashAdvance("u-bob", "10"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateRequestInput{Module: entity.ModuleExpense, OwnerUserID: "u-bob", Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)

	pending, err := f.svc.PendingFor(ctx, "u-alice")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	list, err := f.svc.List(ctx, port.RequestFilter{Module: entity.ModuleCashAdvance})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = f.svc.Get(ctx, entity.ModuleCashAdvance, 12345)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
