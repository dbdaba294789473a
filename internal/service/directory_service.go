package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DirectoryService manages principals: accounts, role assignment, branch
// authorization sets, agent department memberships and app entitlements.
// All operations here are administrative; the HTTP layer guards them.
type DirectoryService struct {
	users      repository.UserRepository
	branches   repository.BranchRepository
	depts      repository.DepartmentRepository
	apps       repository.AppRepository
	tickets    repository.TicketRepository
	bcryptCost int
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	UserRepo       repository.UserRepository
	BranchRepo     repository.BranchRepository
	DepartmentRepo repository.DepartmentRepository
	AppRepo        repository.AppRepository
	TicketRepo     repository.TicketRepository
	BcryptCost     int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		users:      deps.UserRepo,
		branches:   deps.BranchRepo,
		depts:      deps.DepartmentRepo,
		apps:       deps.AppRepo,
		tickets:    deps.TicketRepo,
		bcryptCost: deps.BcryptCost,
	}
}

// UserCreateInput describes a new principal.
type UserCreateInput struct {
	Name          string
	Email         string
	Password      string
	Role          domain.Role
	BranchID      string
	BranchIDs     []string
	DepartmentIDs []string
	AppIDs        []string
}

// UserUpdateInput carries partial principal updates; nil fields are skipped.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Status   *domain.UserStatus
	Role     *domain.Role
	BranchID *string
}

// UserProfile is a principal together with its relation sets.
type UserProfile struct {
	User          *domain.User
	BranchIDs     []string
	DepartmentIDs []string
	AppIDs        []string
}

// CreateUser registers a principal. The active branch is always part of the
// authorized branch set; department memberships are only valid for agents.
func (s *DirectoryService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewInvalidInput("name, email and password are required", nil)
	}
	if _, ok := domain.ParseRole(string(input.Role)); !ok {
		return nil, apperrors.NewInvalidInput("unknown role", map[string]any{"role": string(input.Role)})
	}
	if len(input.DepartmentIDs) > 0 && input.Role != domain.RoleAgent {
		return nil, apperrors.NewInvalidInput("department membership is agent-only", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	branchIDs := normalizeBranchSet(input.BranchID, input.BranchIDs)
	if input.BranchID == "" {
		return nil, apperrors.NewInvalidInput("branch_id is required", nil)
	}
	for _, branchID := range branchIDs {
		if _, err := s.branches.GetByID(ctx, branchID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("branch", map[string]any{"branch_id": branchID})
			}
			return nil, apperrors.MapError(err)
		}
	}
	if err := s.validateDepartments(ctx, input.DepartmentIDs); err != nil {
		return nil, err
	}
	if err := s.validateApps(ctx, input.AppIDs); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Status:       domain.UserStatusActive,
		BranchID:     input.BranchID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.users.SetBranches(ctx, user.ID, branchIDs); err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(input.DepartmentIDs) > 0 {
		if err := s.users.SetDepartments(ctx, user.ID, input.DepartmentIDs); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if len(input.AppIDs) > 0 {
		if err := s.users.SetApps(ctx, user.ID, input.AppIDs); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return user, nil
}

// UpdateUser applies a partial update to a principal.
func (s *DirectoryService) UpdateUser(ctx context.Context, userID string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewInvalidInput("name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperrors.NewInvalidInput("email cannot be empty", nil)
		}
		if email != user.Email {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != user.ID {
				return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
			user.Email = email
		}
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.Role != nil {
		if _, ok := domain.ParseRole(string(*input.Role)); !ok {
			return nil, apperrors.NewInvalidInput("unknown role", map[string]any{"role": string(*input.Role)})
		}
		user.Role = *input.Role
	}
	if input.BranchID != nil && *input.BranchID != user.BranchID {
		if err := s.switchBranch(ctx, user, *input.BranchID); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// SwitchBranch changes the principal's active branch. The target must belong
// to the authorized branch set.
func (s *DirectoryService) SwitchBranch(ctx context.Context, userID, branchID string) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.switchBranch(ctx, user, branchID); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *DirectoryService) switchBranch(ctx context.Context, user *domain.User, branchID string) error {
	authorized, err := s.users.BranchesOf(ctx, user.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, id := range authorized {
		if id == branchID {
			user.BranchID = branchID
			return nil
		}
	}
	return apperrors.NewInvalidInput("branch not in authorized set", map[string]any{"branch_id": branchID})
}

// SetBranches replaces the authorized branch set. The active branch must
// remain a member; otherwise the update is rejected.
func (s *DirectoryService) SetBranches(ctx context.Context, userID string, branchIDs []string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for _, branchID := range branchIDs {
		if _, err := s.branches.GetByID(ctx, branchID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("branch", map[string]any{"branch_id": branchID})
			}
			return apperrors.MapError(err)
		}
		if branchID == user.BranchID {
			found = true
		}
	}
	if !found {
		return apperrors.NewInvalidInput("authorized set must contain the active branch", map[string]any{
			"active_branch_id": user.BranchID,
		})
	}
	return apperrors.MapError(s.users.SetBranches(ctx, userID, branchIDs))
}

// SetDepartments replaces an agent's department memberships.
func (s *DirectoryService) SetDepartments(ctx context.Context, userID string, departmentIDs []string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAgent {
		return apperrors.NewInvalidInput("department membership is agent-only", map[string]any{"role": string(user.Role)})
	}
	if err := s.validateDepartments(ctx, departmentIDs); err != nil {
		return err
	}
	return apperrors.MapError(s.users.SetDepartments(ctx, userID, departmentIDs))
}

// SetApps replaces a principal's app entitlements.
func (s *DirectoryService) SetApps(ctx context.Context, userID string, appIDs []string) error {
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	if err := s.validateApps(ctx, appIDs); err != nil {
		return err
	}
	return apperrors.MapError(s.users.SetApps(ctx, userID, appIDs))
}

// DeleteUser removes a principal. Principals still owning tickets cannot be
// deleted; the tickets must be deleted or reassigned to a new creator first.
func (s *DirectoryService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	owned, err := s.tickets.CountByCreator(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if owned > 0 {
		return apperrors.NewConflict("user still owns tickets", map[string]any{"ticket_count": owned})
	}
	return apperrors.MapError(s.users.Delete(ctx, userID))
}

// GetProfile returns a principal with its relation sets.
func (s *DirectoryService) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	branchIDs, err := s.users.BranchesOf(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	deptIDs, err := s.users.DepartmentsOf(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	appIDs, err := s.users.AppsOf(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &UserProfile{
		User:          user,
		BranchIDs:     branchIDs,
		DepartmentIDs: deptIDs,
		AppIDs:        appIDs,
	}, nil
}

// ListUsers returns principals, optionally filtered by status.
func (s *DirectoryService) ListUsers(ctx context.Context, status *domain.UserStatus) ([]domain.User, error) {
	users, err := s.users.List(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func (s *DirectoryService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *DirectoryService) validateDepartments(ctx context.Context, departmentIDs []string) error {
	for _, deptID := range departmentIDs {
		if _, err := s.depts.GetByID(ctx, deptID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("department", map[string]any{"department_id": deptID})
			}
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *DirectoryService) validateApps(ctx context.Context, appIDs []string) error {
	for _, appID := range appIDs {
		if _, err := s.apps.GetByID(ctx, appID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("app", map[string]any{"app_id": appID})
			}
			return apperrors.MapError(err)
		}
	}
	return nil
}

func normalizeBranchSet(active string, branchIDs []string) []string {
	result := make([]string, 0, len(branchIDs)+1)
	seen := map[string]struct{}{}
	for _, id := range append([]string{active}, branchIDs...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
