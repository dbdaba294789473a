package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Attachments    *handlers.AttachmentsHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/me", cfg.Users.Me)
	api.Post("/me/branch", cfg.Users.SwitchBranch)

	tickets := api.Group("/tickets")
	tickets.Get("/meta", cfg.Catalog.TicketMeta)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reassign", cfg.Tickets.Reassign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)
	tickets.Get("/:id/attachments", cfg.Attachments.List)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Attachments.Download)
	tickets.Delete("/:id/attachments/:attachmentId", cfg.Attachments.Delete)

	users := api.Group("/users", auth.RequireAdmin())
	users.Post("/", cfg.Users.Create)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
	users.Put("/:id/branches", cfg.Users.SetBranches)
	users.Put("/:id/departments", cfg.Users.SetDepartments)
	users.Put("/:id/apps", cfg.Users.SetApps)

	// reference data is readable by any authenticated principal,
	// mutable by admins only
	api.Get("/departments", cfg.Catalog.ListDepartments)
	api.Get("/departments/:id/agents", cfg.Catalog.ListDepartmentAgents)
	api.Post("/departments", auth.RequireAdmin(), cfg.Catalog.CreateDepartment)
	api.Delete("/departments/:id", auth.RequireAdmin(), cfg.Catalog.DeleteDepartment)

	api.Get("/categories", cfg.Catalog.ListCategories)
	api.Post("/categories", auth.RequireAdmin(), cfg.Catalog.CreateCategory)
	api.Patch("/categories/:id", auth.RequireAdmin(), cfg.Catalog.UpdateCategory)
	api.Delete("/categories/:id", auth.RequireAdmin(), cfg.Catalog.DeleteCategory)

	api.Get("/branches", cfg.Catalog.ListBranches)
	api.Post("/branches", auth.RequireAdmin(), cfg.Catalog.CreateBranch)
	api.Delete("/branches/:id", auth.RequireAdmin(), cfg.Catalog.DeleteBranch)

	api.Get("/apps", cfg.Catalog.ListApps)
	api.Post("/apps", auth.RequireAdmin(), cfg.Catalog.CreateApp)
	api.Delete("/apps/:id", auth.RequireAdmin(), cfg.Catalog.DeleteApp)
}
