package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UsersHandler exposes the identity directory endpoints. Everything except
// the self-service routes is admin-only; the router applies the guard.
type UsersHandler struct {
	directory *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(directoryService *service.DirectoryService) *UsersHandler {
	return &UsersHandler{directory: directoryService}
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return apperrors.NewInvalidInput("unknown role", map[string]any{"role": req.Role})
	}

	user, err := h.directory.CreateUser(c.UserContext(), service.UserCreateInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          role,
		BranchID:      req.BranchID,
		BranchIDs:     req.BranchIDs,
		DepartmentIDs: req.DepartmentIDs,
		AppIDs:        req.AppIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var status *domain.UserStatus
	if statusStr := c.Query("status"); statusStr != "" {
		parsed := domain.UserStatus(statusStr)
		if parsed != domain.UserStatusActive && parsed != domain.UserStatusInactive {
			return apperrors.NewInvalidInput("unknown status", map[string]any{"status": statusStr})
		}
		status = &parsed
	}
	users, err := h.directory.ListUsers(c.UserContext(), status)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	profile, err := h.directory.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// Update handles PATCH /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}

	input := service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		BranchID: req.BranchID,
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		if status != domain.UserStatusActive && status != domain.UserStatusInactive {
			return apperrors.NewInvalidInput("unknown status", map[string]any{"status": *req.Status})
		}
		input.Status = &status
	}
	if req.Role != nil {
		role, ok := domain.ParseRole(*req.Role)
		if !ok {
			return apperrors.NewInvalidInput("unknown role", map[string]any{"role": *req.Role})
		}
		input.Role = &role
	}

	user, err := h.directory.UpdateUser(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.directory.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetBranches handles PUT /api/users/:id/branches.
func (h *UsersHandler) SetBranches(c *fiber.Ctx) error {
	var req dto.SetIDsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := h.directory.SetBranches(c.UserContext(), c.Params("id"), req.IDs); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetDepartments handles PUT /api/users/:id/departments.
func (h *UsersHandler) SetDepartments(c *fiber.Ctx) error {
	var req dto.SetIDsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := h.directory.SetDepartments(c.UserContext(), c.Params("id"), req.IDs); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetApps handles PUT /api/users/:id/apps.
func (h *UsersHandler) SetApps(c *fiber.Ctx) error {
	var req dto.SetIDsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := h.directory.SetApps(c.UserContext(), c.Params("id"), req.IDs); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profile, err := h.directory.GetProfile(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// SwitchBranch handles POST /api/me/branch. Principals may switch only
// within their authorized branch set.
func (h *UsersHandler) SwitchBranch(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SwitchBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.BranchID == "" {
		return apperrors.NewInvalidInput("branch_id required", nil)
	}
	user, err := h.directory.SwitchBranch(c.UserContext(), principal.ID, req.BranchID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func profileResponse(profile *service.UserProfile) dto.UserProfileResponse {
	return dto.UserProfileResponse{
		UserResponse:  userResponse(profile.User),
		BranchIDs:     profile.BranchIDs,
		DepartmentIDs: profile.DepartmentIDs,
		AppIDs:        profile.AppIDs,
	}
}
