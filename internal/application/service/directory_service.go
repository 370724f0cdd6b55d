package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/pkg/utils"
)

// DirectoryService maintains the organizational configuration the resolver reads.
// It also serves as the resolver's approval.Directory.
type DirectoryService interface {
	approval.Directory

	UpsertDepartment(ctx context.Context, dept *entity.Department) error
	ListDepartments(ctx context.Context) ([]*entity.Department, error)
	UpsertDivision(ctx context.Context, div *entity.Division) error
	ListDivisions(ctx context.Context) ([]*entity.Division, error)
	UpsertUser(ctx context.Context, user *entity.User) error
	ListUsers(ctx context.Context) ([]*entity.User, error)
	UserByID(ctx context.Context, id string) (*entity.User, error)
}

type directoryServiceImpl struct {
	departments port.DepartmentRepository
	divisions   port.DivisionRepository
	users       port.UserRepository
	logger      Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	departments port.DepartmentRepository,
	divisions port.DivisionRepository,
	users port.UserRepository,
	logger Logger,
) DirectoryService {
	return &directoryServiceImpl{
		departments: departments,
		divisions:   divisions,
		users:       users,
		logger:      logger,
	}
}

func (s *directoryServiceImpl) DepartmentByName(ctx context.Context, name string) (*entity.Department, error) {
	return s.departments.GetByName(ctx, name)
}

func (s *directoryServiceImpl) DivisionByName(ctx context.Context, name string) (*entity.Division, error) {
	return s.divisions.GetByName(ctx, name)
}

func (s *directoryServiceImpl) UserByDisplayName(ctx context.Context, name string) (*entity.User, error) {
	return s.users.GetByDisplayName(ctx, name)
}

func (s *directoryServiceImpl) UserByRole(ctx context.Context, role string) (*entity.User, error) {
	return s.users.GetByRole(ctx, role)
}

func (s *directoryServiceImpl) UserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpsertDepartment stores approver slots as given; an empty slot means "skip this position"
func (s *directoryServiceImpl) UpsertDepartment(ctx context.Context, dept *entity.Department) error {
	dept.Name = strings.TrimSpace(dept.Name)
	if dept.Name == "" {
		return fmt.Errorf("%w: department name is required", ErrInvalidRequest)
	}
	dept.UpdatedAt = time.Now()

	if err := s.departments.Upsert(ctx, dept); err != nil {
		s.logger.Error("Failed to save department", "error", err, "name", dept.Name)
		return fmt.Errorf("save department: %w", err)
	}
	s.logger.Info("Department saved", "name", dept.Name, "approver_one", dept.ApproverOne, "approver_two", dept.ApproverTwo)
	return nil
}

func (s *directoryServiceImpl) ListDepartments(ctx context.Context) ([]*entity.Department, error) {
	return s.departments.List(ctx)
}

func (s *directoryServiceImpl) UpsertDivision(ctx context.Context, div *entity.Division) error {
	div.Name = strings.TrimSpace(div.Name)
	if div.Name == "" {
		return fmt.Errorf("%w: division name is required", ErrInvalidRequest)
	}
	div.UpdatedAt = time.Now()

	if err := s.divisions.Upsert(ctx, div); err != nil {
		s.logger.Error("Failed to save division", "error", err, "name", div.Name)
		return fmt.Errorf("save division: %w", err)
	}
	s.logger.Info("Division saved", "name", div.Name)
	return nil
}

func (s *directoryServiceImpl) ListDivisions(ctx context.Context) ([]*entity.Division, error) {
	return s.divisions.List(ctx)
}

// UpsertUser requires an id and a display name; display names are what approver slots refer to
func (s *directoryServiceImpl) UpsertUser(ctx context.Context, user *entity.User) error {
	user.ID = strings.TrimSpace(user.ID)
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	if user.ID == "" || user.DisplayName == "" {
		return fmt.Errorf("%w: user id and display name are required", ErrInvalidRequest)
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email != "" {
		if err := utils.ValidateEmail(user.Email); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Upsert(ctx, user); err != nil {
		s.logger.Error("Failed to save user", "error", err, "id", user.ID)
		return fmt.Errorf("save user: %w", err)
	}
	s.logger.Info("User saved", "id", user.ID, "role", user.Role)
	return nil
}

func (s *directoryServiceImpl) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.users.List(ctx)
}
