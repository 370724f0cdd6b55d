package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/persistence/sqlite"
)

// DepartmentRepository implements port.DepartmentRepository
type DepartmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *sql.DB, logger *zap.Logger) *DepartmentRepository {
	return &DepartmentRepository{db: db, logger: logger}
}

func (r *DepartmentRepository) Upsert(ctx context.Context, dept *entity.Department) error {
	query := `
		INSERT INTO departments (name, division, approver_one, approver_two, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			division = excluded.division,
			approver_one = excluded.approver_one,
			approver_two = excluded.approver_two,
			updated_at = excluded.updated_at
	`
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		dept.Name, dept.Division, dept.ApproverOne, dept.ApproverTwo, dept.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert department", zap.String("name", dept.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert department: %w", err)
	}
	return nil
}

// GetByName matches the name exactly; (nil, nil) when absent
func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*entity.Department, error) {
	query := `SELECT name, division, approver_one, approver_two, updated_at FROM departments WHERE name = ?`

	var d entity.Department
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, name).Scan(
		&d.Name, &d.Division, &d.ApproverOne, &d.ApproverTwo, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get department", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*entity.Department, error) {
	query := `SELECT name, division, approver_one, approver_two, updated_at FROM departments ORDER BY name`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var depts []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.Name, &d.Division, &d.ApproverOne, &d.ApproverTwo, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, &d)
	}
	return depts, rows.Err()
}

// DivisionRepository implements port.DivisionRepository
type DivisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDivisionRepository creates a new division repository
func NewDivisionRepository(db *sql.DB, logger *zap.Logger) *DivisionRepository {
	return &DivisionRepository{db: db, logger: logger}
}

func (r *DivisionRepository) Upsert(ctx context.Context, div *entity.Division) error {
	query := `
		INSERT INTO divisions (name, hod_approver_one, hod_approver_two, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			hod_approver_one = excluded.hod_approver_one,
			hod_approver_two = excluded.hod_approver_two,
			updated_at = excluded.updated_at
	`
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		div.Name, div.HeadOfDivisionApproverOne, div.HeadOfDivisionApproverTwo, div.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert division", zap.String("name", div.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert division: %w", err)
	}
	return nil
}

// GetByName matches the name exactly; (nil, nil) when absent
func (r *DivisionRepository) GetByName(ctx context.Context, name string) (*entity.Division, error) {
	query := `SELECT name, hod_approver_one, hod_approver_two, updated_at FROM divisions WHERE name = ?`

	var d entity.Division
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, name).Scan(
		&d.Name, &d.HeadOfDivisionApproverOne, &d.HeadOfDivisionApproverTwo, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get division", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get division: %w", err)
	}
	return &d, nil
}

func (r *DivisionRepository) List(ctx context.Context) ([]*entity.Division, error) {
	query := `SELECT name, hod_approver_one, hod_approver_two, updated_at FROM divisions ORDER BY name`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions: %w", err)
	}
	defer rows.Close()

	var divs []*entity.Division
	for rows.Next() {
		var d entity.Division
		if err := rows.Scan(&d.Name, &d.HeadOfDivisionApproverOne, &d.HeadOfDivisionApproverTwo, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan division: %w", err)
		}
		divs = append(divs, &d)
	}
	return divs, rows.Err()
}

var (
	_ port.DepartmentRepository = (*DepartmentRepository)(nil)
	_ port.DivisionRepository   = (*DivisionRepository)(nil)
)
