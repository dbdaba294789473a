package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	branchRepo := repository.NewBranchRepository(pool)
	appRepo := repository.NewAppRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	blobs, err := storage.New(cfg.Storage, redis, logger)
	if err != nil {
		logger.Fatal("failed to init attachment store", zap.Error(err))
	}

	dispatcher := events.NewQueueDispatcher(cfg.Notification.QueueSize, func(event events.Event) {
		metrics.RecordDroppedEvent()
		logger.Warn("event dropped", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
	})
	defer dispatcher.Close()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		UserRepo:       userRepo,
		BranchRepo:     branchRepo,
		DepartmentRepo: departmentRepo,
		AppRepo:        appRepo,
		TicketRepo:     ticketRepo,
		BcryptCost:     cfg.Auth.BcryptCost,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		DepartmentRepo: departmentRepo,
		CategoryRepo:   categoryRepo,
		BranchRepo:     branchRepo,
		AppRepo:        appRepo,
		TicketRepo:     ticketRepo,
		UserRepo:       userRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		CategoryRepo:   categoryRepo,
		BlobStore:      blobs,
		Router:         policy.NewRouter(),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		TicketRepo:     ticketRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		BlobStore:      blobs,
		Config:         cfg.Storage,
		Logger:         logger,
	})
	notificationService := service.NewNotificationService(userRepo, logger, cfg.Notification, metrics)
	worker.StartNotificationWorker(dispatcher, notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 32 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Users:          handlers.NewUsersHandler(directoryService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
