package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-cms/internal/common/api"
	"go-cms/internal/config"
	"go-cms/internal/database"
	"go-cms/internal/features/auth"
	"go-cms/internal/features/collection"
	"go-cms/internal/features/endpoint"
	"go-cms/internal/features/storage"
	"go-cms/internal/features/system"
	"go-cms/internal/logger"
	"go-cms/internal/middleware"
	"go-cms/pkg/utils"

	_ "go-cms/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.MetricsMiddleware())

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer listens in a goroutine and shuts Fiber down when the app exits.
// TLS is used when both certificate files are configured.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%s", cfg.Port)
				var err error
				if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
					err = app.ListenTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
				} else {
					if cfg.IsProduction() {
						log.Println("WARNING: serving plain HTTP in production")
					}
					err = app.Listen(addr)
				}
				if err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, mongodb *database.MongodbDB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := database.EnsureIndexes(ctx, mongodb.DB); err != nil {
					logger.Error("Failed to ensure indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// ConfigureTokens applies the signing secret and lifetime before any request is served
func ConfigureTokens(cfg *config.Config) {
	if cfg.IsProduction() && cfg.JWTSecret == "secret" {
		log.Println("WARNING: JWT_SECRET is the default value")
	}
	utils.SetSecret(cfg.JWTSecret)
	utils.SetTokenTTL(cfg.TokenTTL)
}

// @title           go-cms API
// @version         1.0
// @description     Multi-tenant headless CMS: collections, attributes, public endpoints and parallel uploads.

// @host            localhost:8080
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Database
			database.NewDatabase,
			database.NewCredentialDB,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Repository
			endpoint.NewEndpointRepository,
			storage.NewFileRepository,
			collection.NewCollectionRepository,
			collection.NewPostsRepository,
			auth.NewCredentialRepository,
			auth.NewUserRepository,

			// Storage plumbing
			endpoint.NewGateCacheFromConfig,
			storage.NewFilesystemRelocator,
			storage.NewSessionTracker,
			storage.NewProgressHub,
			storage.NewReaper,
			func(r *storage.FilesystemRelocator) storage.Relocator { return r },
			func(h *storage.ProgressHub) storage.ProgressPublisher { return h },
			system.NewHealthChecks,

			// Initialize Service
			endpoint.NewEndpointService,
			storage.NewStorageService,
			collection.NewUploadReconciler,
			collection.NewCollectionService,
			auth.NewAuthService,

			// Initialize Controller
			endpoint.NewEndpointController,
			storage.NewStorageController,
			collection.NewCollectionController,
			auth.NewAuthController,
			system.NewSystemController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(collection.NewCollectionApi),
			AsRoute(endpoint.NewEndpointApi),
			AsRoute(storage.NewStorageApi),
			AsRoute(system.NewSystemApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureTokens,
			RegisterAllRoutesWithAnnotation,
			StartServer,
			storage.RegisterReaper,
			InitializeIndexes,
		),
	)

	app.Run()
}
