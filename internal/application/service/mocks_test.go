package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/application/dispatcher"
	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/event"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// memRequestRepo is an in-memory RequestRepository with the same guarded-update semantics as SQLite
type memRequestRepo struct {
	mu       sync.Mutex
	rows     map[int64]*entity.Request
	nextID   int64
	nextHist int64

	getErr    error
	updateErr error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{rows: make(map[int64]*entity.Request)}
}

func cloneRequest(r *entity.Request) *entity.Request {
	cp := *r
	cp.Items = append([]entity.LineItem(nil), r.Items...)
	cp.History = append([]entity.HistoryRecord(nil), r.History...)
	return &cp
}

func (m *memRequestRepo) stampHistory(r *entity.Request) {
	for i := range r.History {
		if r.History[i].ID == 0 {
			m.nextHist++
			r.History[i].ID = m.nextHist
		}
	}
}

func (m *memRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = m.nextID
	req.Version = 1
	m.stampHistory(req)
	m.rows[req.ID] = cloneRequest(req)
	return nil
}

func (m *memRequestRepo) GetByID(ctx context.Context, module entity.Module, id int64) (*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.rows[id]
	if !ok || r.Module != module {
		return nil, nil
	}
	return cloneRequest(r), nil
}

func (m *memRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Request
	for id := int64(1); id <= m.nextID; id++ {
		r, ok := m.rows[id]
		if !ok {
			continue
		}
		if filter.Module != "" && r.Module != filter.Module {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memRequestRepo) ListPendingFor(ctx context.Context, userID string) ([]*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Request
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.rows[id]; ok && r.AwaitsActionFrom(userID) {
			out = append(out, cloneRequest(r))
		}
	}
	return out, nil
}

func (m *memRequestRepo) Update(ctx context.Context, req *entity.Request, guard port.UpdateGuard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.rows[req.ID]
	if !ok || stored.Status != workflow.StatePending ||
		stored.Version != guard.Version ||
		stored.ApproveOrder != guard.ApproveOrder ||
		stored.CurrentApproverUserID != guard.CurrentApproverUserID {
		return port.ErrVersionConflict
	}
	req.Version = guard.Version + 1
	m.stampHistory(req)
	m.rows[req.ID] = cloneRequest(req)
	return nil
}

func (m *memRequestRepo) stored(id int64) *entity.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRequest(m.rows[id])
}

// memDirectory serves users, departments and divisions from maps
type memDirectory struct {
	mu          sync.Mutex
	departments map[string]*entity.Department
	divisions   map[string]*entity.Division
	users       map[string]*entity.User
	order       []string
}

func newMemDirectory(users ...*entity.User) *memDirectory {
	d := &memDirectory{
		departments: make(map[string]*entity.Department),
		divisions:   make(map[string]*entity.Division),
		users:       make(map[string]*entity.User),
	}
	for _, u := range users {
		d.users[u.ID] = u
		d.order = append(d.order, u.ID)
	}
	return d
}

func (d *memDirectory) Upsert(ctx context.Context, user *entity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[user.ID]; !ok {
		d.order = append(d.order, user.ID)
	}
	d.users[user.ID] = user
	return nil
}

func (d *memDirectory) GetByID(ctx context.Context, id string) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[id], nil
}

func (d *memDirectory) GetByDisplayName(ctx context.Context, name string) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.order {
		if d.users[id].DisplayName == name {
			return d.users[id], nil
		}
	}
	return nil, nil
}

func (d *memDirectory) GetByRole(ctx context.Context, role string) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.order {
		if d.users[id].HasRole(role) {
			return d.users[id], nil
		}
	}
	return nil, nil
}

func (d *memDirectory) List(ctx context.Context) ([]*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*entity.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.users[id])
	}
	return out, nil
}

func (d *memDirectory) DepartmentByName(ctx context.Context, name string) (*entity.Department, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.departments[name], nil
}

func (d *memDirectory) DivisionByName(ctx context.Context, name string) (*entity.Division, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.divisions[name], nil
}

func (d *memDirectory) UserByDisplayName(ctx context.Context, name string) (*entity.User, error) {
	return d.GetByDisplayName(ctx, name)
}

func (d *memDirectory) UserByRole(ctx context.Context, role string) (*entity.User, error) {
	return d.GetByRole(ctx, role)
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// captureDispatcher records events instead of running handlers
type captureDispatcher struct {
	dispatcher.Dispatcher
	mu     sync.Mutex
	events []*event.Event
}

func (c *captureDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureDispatcher) types() []event.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Type, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func (c *captureDispatcher) last(t event.Type) *event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == t {
			return c.events[i]
		}
	}
	return nil
}

type mockMailer struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, mail port.Mail) error
	sent     []port.Mail
}

func (m *mockMailer) Send(ctx context.Context, mail port.Mail) error {
	m.mu.Lock()
	m.sent = append(m.sent, mail)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, mail)
	}
	return nil
}

type countingMetrics struct {
	mu       sync.Mutex
	actions  map[string]int
	outcomes map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{actions: map[string]int{}, outcomes: map[string]int{}}
}

func (c *countingMetrics) RecordAction(module entity.Module, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions[string(module)+"/"+action]++
}

func (c *countingMetrics) RecordOutcome(module entity.Module, kind approval.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[strings.ToLower(string(kind))]++
}

var testNow = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
