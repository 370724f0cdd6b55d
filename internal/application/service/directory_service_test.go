package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

type mockDepartmentRepo struct {
	upsertFunc func(ctx context.Context, dept *entity.Department) error
	saved      map[string]*entity.Department
}

func (m *mockDepartmentRepo) Upsert(ctx context.Context, dept *entity.Department) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, dept)
	}
	if m.saved == nil {
		m.saved = map[string]*entity.Department{}
	}
	m.saved[dept.Name] = dept
	return nil
}

func (m *mockDepartmentRepo) GetByName(ctx context.Context, name string) (*entity.Department, error) {
	return m.saved[name], nil
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]*entity.Department, error) {
	out := make([]*entity.Department, 0, len(m.saved))
	for _, d := range m.saved {
		out = append(out, d)
	}
	return out, nil
}

type mockDivisionRepo struct {
	saved map[string]*entity.Division
}

func (m *mockDivisionRepo) Upsert(ctx context.Context, div *entity.Division) error {
	if m.saved == nil {
		m.saved = map[string]*entity.Division{}
	}
	m.saved[div.Name] = div
	return nil
}

func (m *mockDivisionRepo) GetByName(ctx context.Context, name string) (*entity.Division, error) {
	return m.saved[name], nil
}

func (m *mockDivisionRepo) List(ctx context.Context) ([]*entity.Division, error) {
	out := make([]*entity.Division, 0, len(m.saved))
	for _, d := range m.saved {
		out = append(out, d)
	}
	return out, nil
}

func TestDirectoryService_ServesResolverLookups(t *testing.T) {
	alice, bob, carol := newUsers()
	depts := &mockDepartmentRepo{}
	divs := &mockDivisionRepo{}
	svc := NewDirectoryService(depts, divs, newMemDirectory(alice, bob, carol), &mockLogger{})
	ctx := context.Background()

	require.NoError(t, svc.UpsertDepartment(ctx, &entity.Department{Name: " Front Office ", ApproverOne: "Alice"}))
	require.NoError(t, svc.UpsertDivision(ctx, &entity.Division{Name: "Ops", HeadOfDivisionApproverOne: "Carol"}))

	dept, err := svc.DepartmentByName(ctx, "Front Office")
	require.NoError(t, err)
	require.NotNil(t, dept)
	assert.Equal(t, "Alice", dept.ApproverOne)
	assert.False(t, dept.UpdatedAt.IsZero())

	missing, err := svc.DivisionByName(ctx, "ops")
	require.NoError(t, err)
	assert.Nil(t, missing, "lookups are exact")

	cashier, err := svc.UserByRole(ctx, "general cashier")
	require.NoError(t, err)
	require.NotNil(t, cashier)
	assert.Equal(t, "u-carol", cashier.ID)

	user, err := svc.UserByDisplayName(ctx, "Bob")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-bob", user.ID)
}

func TestDirectoryService_Validation(t *testing.T) {
	svc := NewDirectoryService(&mockDepartmentRepo{}, &mockDivisionRepo{}, newMemDirectory(), &mockLogger{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpsertDepartment(ctx, &entity.Department{Name: "  "}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.UpsertDivision(ctx, &entity.Division{}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.UpsertUser(ctx, &entity.User{ID: "u-1"}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.UpsertUser(ctx, &entity.User{DisplayName: "Nobody"}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.UpsertUser(ctx, &entity.User{ID: "u-2", DisplayName: "Eko", Email: "eko@"}), ErrInvalidRequest)

	require.NoError(t, svc.UpsertUser(ctx, &entity.User{ID: "u-1", DisplayName: "Dewi", Role: "Staff"}))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDirectoryService_RepositoryErrorIsWrapped(t *testing.T) {
	boom := errors.New("disk full")
	depts := &mockDepartmentRepo{upsertFunc: func(ctx context.Context, dept *entity.Department) error { return boom }}
	svc := NewDirectoryService(depts, &mockDivisionRepo{}, newMemDirectory(), &mockLogger{})

	err := svc.UpsertDepartment(context.Background(), &entity.Department{Name: "Spa"})
	assert.ErrorIs(t, err, boom)
}
