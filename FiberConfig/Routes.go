package FiberConfig

import (
	"context"
	"fmt"
	"log"
	"time"

	"FieldOps/Config"
	"FieldOps/Controllers"
	"FieldOps/Models"
	"FieldOps/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, auth *middleware.Authenticator, cfg *Config.Config) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db, auth, cfg.Server.SecureCookie)
	lookupController := Controllers.NewLookupController(db)
	clientController := Controllers.NewClientController(db)
	fieldEventController := Controllers.NewFieldEventController(db)
	workRequestController := Controllers.NewWorkRequestController(db)
	timeEntryController := Controllers.NewTimeEntryController(db)
	followupController := Controllers.NewValveFollowupController(db)
	shiftController := Controllers.NewFieldShiftController(db)
	logsController := Controllers.NewLogsController(cfg.Logging.RequestLog)

	manager := auth.Verify(Models.RoleManager)
	crew := auth.Verify(Models.RoleManager, Models.RoleTech)

	app.Post("/api/login", authController.Login)
	app.Post("/api/logout", authController.Logout)

	api := app.Group("/api", auth.Verify())

	// Profiles
	api.Get("/me", authController.Me)
	api.Put("/me/fcm-token", authController.UpdateFCMToken)
	api.Get("/profiles", authController.GetProfiles)
	api.Post("/profiles", manager, authController.RegisterProfile)

	// Dropdown options
	api.Get("/enums", lookupController.GetEnums)
	api.Get("/work-types", lookupController.GetWorkTypes)
	api.Get("/programs", lookupController.GetPrograms)
	api.Get("/regulations", lookupController.GetRegulations)
	api.Get("/monitoring-frequencies", lookupController.GetMonitoringFrequencies)
	api.Get("/database-types", lookupController.GetDatabaseTypes)
	api.Get("/tva-units", lookupController.GetTvaUnits)

	// Client routes
	clients := api.Group("/clients")
	clients.Get("/", clientController.GetClients)
	clients.Post("/", manager, clientController.CreateClient)
	clients.Get("/:id", clientController.GetClient)
	clients.Put("/:id", manager, clientController.UpdateClient)
	clients.Delete("/:id", manager, clientController.DeleteClient)

	// Valve follow-ups under clients
	clients.Get("/:client_id/valve-followups", followupController.GetClientFollowups)
	clients.Post("/:client_id/valve-followups", crew, followupController.CreateFollowup)

	followups := api.Group("/valve-followups")
	followups.Get("/:id", followupController.GetFollowup)
	followups.Get("/:id/events", followupController.GetFollowupEvents)
	followups.Put("/:id", crew, followupController.UpdateFollowup)
	followups.Post("/:id/close", crew, followupController.CloseFollowup)
	followups.Post("/:id/reopen", crew, followupController.ReopenFollowup)
	followups.Delete("/:id", manager, followupController.DeleteFollowup)

	// Field events - board routes BEFORE the ID route to avoid conflicts
	events := api.Group("/field-events")
	events.Get("/board", fieldEventController.Board)
	events.Get("/", fieldEventController.GetFieldEvents)
	events.Post("/", crew, fieldEventController.CreateFieldEvent)
	events.Get("/:id", fieldEventController.GetFieldEvent)
	events.Put("/:id", crew, fieldEventController.UpdateFieldEvent)
	events.Patch("/:id/status", fieldEventController.MoveStatus)
	events.Delete("/:id", manager, fieldEventController.DeleteFieldEvent)

	// Work requests
	workRequests := api.Group("/work-requests")
	workRequests.Get("/board", workRequestController.Board)
	workRequests.Get("/", workRequestController.GetWorkRequests)
	workRequests.Post("/", crew, workRequestController.CreateWorkRequest)
	workRequests.Get("/:id", workRequestController.GetWorkRequest)
	workRequests.Put("/:id", crew, workRequestController.UpdateWorkRequest)
	workRequests.Patch("/:id/status", workRequestController.MoveStatus)
	workRequests.Delete("/:id", manager, workRequestController.DeleteWorkRequest)

	// Time, budgets and hours per work request
	workRequests.Get("/:id/time-entries/export", timeEntryController.ExportTimeEntries)
	workRequests.Get("/:id/time-entries", timeEntryController.GetTimeEntries)
	workRequests.Post("/:id/time-entries", timeEntryController.CreateTimeEntry)
	workRequests.Get("/:id/budgets", timeEntryController.GetBudgets)
	workRequests.Put("/:id/budgets", manager, timeEntryController.PutBudgets)
	workRequests.Get("/:id/hours", timeEntryController.GetHours)

	timeEntries := api.Group("/time-entries")
	timeEntries.Put("/:id", timeEntryController.UpdateTimeEntry)
	timeEntries.Delete("/:id", manager, timeEntryController.DeleteTimeEntry)

	// Shift ledger
	shifts := api.Group("/field-shifts")
	shifts.Get("/export", shiftController.ExportFieldShifts)
	shifts.Get("/", shiftController.GetFieldShifts)
	shifts.Post("/", crew, shiftController.CreateFieldShift)
	shifts.Put("/:id", crew, shiftController.UpdateFieldShift)
	shifts.Delete("/:id", crew, shiftController.DeleteFieldShift)

	// Logs API routes
	api.Get("/logs", manager, logsController.GetLogs)
	api.Get("/logs/stats", manager, logsController.GetLogStats)
	api.Get("/logs/path/:path", manager, logsController.GetLogsByPath)

	// Printable views
	app.Get("/ledger/:client_id", auth.Verify(), shiftController.GetLedgerPage)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// NewApp builds the Fiber app with its middleware stack and every route.
func NewApp(db *gorm.DB, cfg *Config.Config) *fiber.App {
	// Html Template engine
	engine := html.New(cfg.Server.ViewsDir, ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})

	logCfg := middleware.DefaultLogConfig()
	logCfg.LogFilePath = cfg.Logging.RequestLog
	logCfg.Console = cfg.Logging.Console
	app.Use(middleware.LoggingMiddleware(logCfg))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	auth := middleware.NewAuthenticator(db, cfg.Auth.JWTSecret)
	SetupRoutes(app, db, auth, cfg)
	if cfg.Server.StaticDir != "" {
		app.Static("/static", cfg.Server.StaticDir, fiber.Static{Compress: true, CacheDuration: time.Second * 10})
	}
	return app
}

// FiberConfig serves the API on cfg.Server.Addr until ctx is cancelled or
// the listener fails.
func FiberConfig(ctx context.Context, db *gorm.DB, cfg *Config.Config) error {
	app := NewApp(db, cfg)

	errCh := make(chan error, 1)
	go func() {
		fmt.Println("Server Up...")
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
