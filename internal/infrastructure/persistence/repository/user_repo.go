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

const userColumns = `id, display_name, role, department, division, email, updated_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, display_name, role, department, division, email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			role = excluded.role,
			department = excluded.department,
			division = excluded.division,
			email = excluded.email,
			updated_at = excluded.updated_at
	`
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		user.ID, user.DisplayName, user.Role, user.Department, user.Division, user.Email, user.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert user", zap.String("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByDisplayName matches exactly; the earliest created user wins on duplicates
func (r *UserRepository) GetByDisplayName(ctx context.Context, name string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE display_name = ? ORDER BY created_at, id LIMIT 1`, name)
}

// GetByRole compares role labels ignoring case and surrounding spaces
func (r *UserRepository) GetByRole(ctx context.Context, role string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(TRIM(role)) = LOWER(TRIM(?)) ORDER BY created_at, id LIMIT 1`, role)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u, err := scanUser(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Role, &u.Department, &u.Division, &u.Email, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
