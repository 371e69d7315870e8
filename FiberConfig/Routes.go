package FiberConfig

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"Atrium/Apis"
	"Atrium/Cache"
	"Atrium/Controllers"
	"Atrium/CronJobs"
	"Atrium/Lifecycle"
	"Atrium/Models"
	"Atrium/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, store *Cache.Store) {
	// Wire the lifecycle engine
	source := Lifecycle.NewCatalogSource(db)
	generator := Lifecycle.NewGenerator(db, source, store)
	tracker := Lifecycle.NewTracker(db, store)
	gate := Lifecycle.NewGate(db, generator, store)
	queries := Lifecycle.NewQueries(db, store)

	taskController := Controllers.NewTaskController(generator, tracker, queries)
	dayController := Controllers.NewDayController(gate)
	reportController := Controllers.NewReportController(queries)

	// Auth
	app.Post("/api/Login", Controllers.Login)
	app.Get("/api/validate-token", Controllers.ValidateToken)
	app.Use("/api/Logout", Controllers.Logout)
	app.Post("/api/RegisterUser", middleware.Verify(4), Controllers.RegisterUser)
	app.Get("/api/FetchUsers", middleware.Verify(4), Controllers.FetchUsers)

	api := app.Group("/api", middleware.Verify(1))

	// Day lifecycle routes
	sites := api.Group("/sites")
	sites.Post("/:site_id/days/:date/generate", taskController.GenerateDay)
	sites.Get("/:site_id/days/:date/tasks", taskController.GetDayChecklist)
	sites.Get("/:site_id/days/:date/progress", dayController.GetDayProgress)
	sites.Post("/:site_id/days/:date/complete", dayController.CompleteDay)
	sites.Post("/:site_id/days/:date/cancel-completion", middleware.Verify(3), dayController.CancelDayCompletion)
	sites.Get("/:site_id/days/:date/report", reportController.GetDayReport)

	// Instance routes
	instances := api.Group("/instances")
	instances.Get("/:id", taskController.GetInstance)
	instances.Patch("/:id/completion", taskController.ToggleCompletion)
	instances.Post("/:id/comments", taskController.AddComment)

	// Directory reads and catalog admin
	api.Get("/GetSites", Apis.GetSites)
	api.Post("/CreateSite", middleware.Verify(3), Apis.CreateSite)
	api.Get("/GetTemplates", Apis.GetTemplates)
	api.Post("/CreateTemplate", middleware.Verify(3), Apis.CreateTemplate)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Idempotency-Key",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Checklist/progress reads are cached for a short bounded window;
	// every mutation invalidates its day before returning
	store := Cache.New(time.Second * 30)
	janitor := CronJobs.NewCacheJanitor(store)
	if err := janitor.Start(); err != nil {
		log.Println("Failed to start cache janitor:", err)
	}

	SetupRoutes(app, Models.DB, store)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Fatal(app.Listen(":" + port))
}
