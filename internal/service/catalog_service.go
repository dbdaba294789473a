package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CatalogService manages the reference data: departments, categories,
// branches and apps, plus the closed state and priority sets.
type CatalogService struct {
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	branches    repository.BranchRepository
	apps        repository.AppRepository
	tickets     repository.TicketRepository
	users       repository.UserRepository
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	BranchRepo     repository.BranchRepository
	AppRepo        repository.AppRepository
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		branches:    deps.BranchRepo,
		apps:        deps.AppRepo,
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
	}
}

// CreateDepartment adds a department with a unique name.
func (s *CatalogService) CreateDepartment(ctx context.Context, name string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidInput("name is required", nil)
	}
	if _, err := s.departments.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	dept := &domain.Department{Name: name}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// GetDepartment fetches a department.
func (s *CatalogService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns all departments.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// ListDepartmentAgents returns the department's active agent pool.
func (s *CatalogService) ListDepartmentAgents(ctx context.Context, departmentID string) ([]domain.User, error) {
	if _, err := s.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	agents, err := s.departments.ListAgents(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// DeleteDepartment removes a department. Departments that still have tickets
// or assigned agents cannot be deleted.
func (s *CatalogService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}

	ticketCount, err := s.tickets.CountByDepartment(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if ticketCount > 0 {
		return apperrors.NewConflict("department still has tickets", map[string]any{"ticket_count": ticketCount})
	}
	agentCount, err := s.departments.CountAgents(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if agentCount > 0 {
		return apperrors.NewConflict("department still has agents", map[string]any{"agent_count": agentCount})
	}
	return apperrors.MapError(s.departments.Delete(ctx, id))
}

// CategoryInput describes category creation and update payloads.
type CategoryInput struct {
	Name         string
	DepartmentID string
	OwnerAgentID *string
}

// CreateCategory adds a category within a department. The owner agent, when
// set, must be an active agent belonging to that department.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewInvalidInput("name is required", nil)
	}
	if _, err := s.GetDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.validateOwner(ctx, input.OwnerAgentID, input.DepartmentID); err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:         name,
		DepartmentID: input.DepartmentID,
		OwnerAgentID: input.OwnerAgentID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory renames a category or changes its owner agent. A category
// never moves between departments.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, name *string, ownerAgentID *string, clearOwner bool) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.NewInvalidInput("name cannot be empty", nil)
		}
		category.Name = trimmed
	}
	if clearOwner {
		category.OwnerAgentID = nil
	} else if ownerAgentID != nil {
		if err := s.validateOwner(ctx, ownerAgentID, category.DepartmentID); err != nil {
			return nil, err
		}
		category.OwnerAgentID = ownerAgentID
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// GetCategory fetches a category.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories, optionally scoped to a department.
func (s *CatalogService) ListCategories(ctx context.Context, departmentID *string) ([]domain.Category, error) {
	var (
		categories []domain.Category
		err        error
	)
	if departmentID != nil {
		categories, err = s.categories.ListByDepartment(ctx, *departmentID)
	} else {
		categories, err = s.categories.List(ctx)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// DeleteCategory removes a category unless tickets still reference it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	ticketCount, err := s.tickets.CountByCategory(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if ticketCount > 0 {
		return apperrors.NewConflict("category still has tickets", map[string]any{"ticket_count": ticketCount})
	}
	return apperrors.MapError(s.categories.Delete(ctx, id))
}

// CreateBranch adds a branch.
func (s *CatalogService) CreateBranch(ctx context.Context, name string) (*domain.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidInput("name is required", nil)
	}
	branch := &domain.Branch{Name: name}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, apperrors.MapError(err)
	}
	return branch, nil
}

// ListBranches returns all branches.
func (s *CatalogService) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return branches, nil
}

// DeleteBranch removes a branch.
func (s *CatalogService) DeleteBranch(ctx context.Context, id string) error {
	if err := s.branches.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("branch", map[string]any{"branch_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// CreateApp adds an application to the catalog.
func (s *CatalogService) CreateApp(ctx context.Context, name, description string) (*domain.App, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidInput("name is required", nil)
	}
	app := &domain.App{Name: name, Description: strings.TrimSpace(description)}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	return app, nil
}

// ListApps returns the application catalog.
func (s *CatalogService) ListApps(ctx context.Context) ([]domain.App, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return apps, nil
}

// DeleteApp removes an application.
func (s *CatalogService) DeleteApp(ctx context.Context, id string) error {
	if err := s.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("app", map[string]any{"app_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// TicketStates lists the closed set of lifecycle states.
func (s *CatalogService) TicketStates() []domain.TicketState {
	return domain.TicketStates()
}

// TicketPriorities lists the closed set of priorities.
func (s *CatalogService) TicketPriorities() []domain.TicketPriority {
	return domain.TicketPriorities()
}

func (s *CatalogService) validateOwner(ctx context.Context, ownerAgentID *string, departmentID string) error {
	if ownerAgentID == nil {
		return nil
	}
	owner, err := s.users.GetByID(ctx, *ownerAgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("owner agent", map[string]any{"owner_agent_id": *ownerAgentID})
		}
		return apperrors.MapError(err)
	}
	if owner.Role != domain.RoleAgent {
		return apperrors.NewInvalidInput("category owner must be an agent", map[string]any{"owner_agent_id": owner.ID})
	}
	deptIDs, err := s.users.DepartmentsOf(ctx, owner.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, deptID := range deptIDs {
		if deptID == departmentID {
			return nil
		}
	}
	return apperrors.NewInvalidInput("category owner must belong to the department", map[string]any{
		"owner_agent_id": owner.ID,
		"department_id":  departmentID,
	})
}
