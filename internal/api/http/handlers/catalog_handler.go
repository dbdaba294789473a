package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CatalogHandler exposes reference-data endpoints: departments, categories,
// branches, apps and the ticket state/priority sets.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// CreateDepartment handles POST /api/departments.
func (h *CatalogHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	dept, err := h.catalog.CreateDepartment(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /api/departments.
func (h *CatalogHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.catalog.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListDepartmentAgents handles GET /api/departments/:id/agents.
func (h *CatalogHandler) ListDepartmentAgents(c *fiber.Ctx) error {
	agents, err := h.catalog.ListDepartmentAgents(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(agents))
	for i := range agents {
		items = append(items, userResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteDepartment handles DELETE /api/departments/:id.
func (h *CatalogHandler) DeleteDepartment(c *fiber.Ctx) error {
	if err := h.catalog.DeleteDepartment(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateCategory handles POST /api/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewInvalidInput("department_id required", nil)
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), service.CategoryInput{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		OwnerAgentID: req.OwnerAgentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// UpdateCategory handles PATCH /api/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	category, err := h.catalog.UpdateCategory(c.UserContext(), c.Params("id"), req.Name, req.OwnerAgentID, req.ClearOwner)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories handles GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var departmentID *string
	if dept := c.Query("department_id"); dept != "" {
		departmentID = &dept
	}
	categories, err := h.catalog.ListCategories(c.UserContext(), departmentID)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteCategory handles DELETE /api/categories/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateBranch handles POST /api/branches.
func (h *CatalogHandler) CreateBranch(c *fiber.Ctx) error {
	var req dto.CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	branch, err := h.catalog.CreateBranch(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": branchResponse(branch)})
}

// ListBranches handles GET /api/branches.
func (h *CatalogHandler) ListBranches(c *fiber.Ctx) error {
	branches, err := h.catalog.ListBranches(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		items = append(items, branchResponse(&branches[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteBranch handles DELETE /api/branches/:id.
func (h *CatalogHandler) DeleteBranch(c *fiber.Ctx) error {
	if err := h.catalog.DeleteBranch(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateApp handles POST /api/apps.
func (h *CatalogHandler) CreateApp(c *fiber.Ctx) error {
	var req dto.CreateAppRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	app, err := h.catalog.CreateApp(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appResponse(app)})
}

// ListApps handles GET /api/apps.
func (h *CatalogHandler) ListApps(c *fiber.Ctx) error {
	apps, err := h.catalog.ListApps(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AppResponse, 0, len(apps))
	for i := range apps {
		items = append(items, appResponse(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteApp handles DELETE /api/apps/:id.
func (h *CatalogHandler) DeleteApp(c *fiber.Ctx) error {
	if err := h.catalog.DeleteApp(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// TicketMeta handles GET /api/tickets/meta.
func (h *CatalogHandler) TicketMeta(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.TicketMetaResponse{
		States:     h.catalog.TicketStates(),
		Priorities: h.catalog.TicketPriorities(),
	}})
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		CreatedAt: dept.CreatedAt,
		UpdatedAt: dept.UpdatedAt,
	}
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		DepartmentID: category.DepartmentID,
		OwnerAgentID: category.OwnerAgentID,
		CreatedAt:    category.CreatedAt,
		UpdatedAt:    category.UpdatedAt,
	}
}

func branchResponse(branch *domain.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:        branch.ID,
		Name:      branch.Name,
		CreatedAt: branch.CreatedAt,
	}
}

func appResponse(app *domain.App) dto.AppResponse {
	return dto.AppResponse{
		ID:          app.ID,
		Name:        app.Name,
		Description: app.Description,
		CreatedAt:   app.CreatedAt,
	}
}
