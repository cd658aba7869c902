package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "taskhive/controllers"
	"taskhive/middleware"
	"taskhive/utils"
)

// SetupRoutes wires the whole HTTP surface onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Catch-all for unknown routes, same envelope as everything else
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found")
	})
}

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware and the strict limiter
	auth := app.Group("/api/auth", middleware.AuthRateLimiter(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	auth.Post("/signup", controller.Signup)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)
	auth.Post("/logout", controller.Logout)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	access := utils.NewAccessResolver(db)
	recorder := utils.NewActivityRecorder(db, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))

	projectController := controller.NewProjectController(db, access, recorder, log.New(os.Stdout, "PROJECT: ", log.LstdFlags))
	taskController := controller.NewTaskController(db, access, recorder, log.New(os.Stdout, "TASK: ", log.LstdFlags))
	activityController := controller.NewActivityController(db, access, recorder, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))

	// API group with protection and rate limiting
	api := app.Group("/api", middleware.Protected(), middleware.GeneralRateLimiter(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Project routes
	project := api.Group("/projects")
	project.Post("/", projectController.CreateProject)
	project.Get("/", projectController.GetProjects)
	project.Get("/:id", projectController.GetProject)
	project.Put("/:id", projectController.UpdateProject)
	project.Delete("/:id", projectController.DeleteProject)
	project.Post("/:id/members", projectController.AddMember)
	project.Delete("/:id/members", projectController.RemoveMember)

	// Task routes
	task := api.Group("/tasks")
	task.Post("/", taskController.CreateTask)
	task.Get("/", taskController.GetTasks)
	task.Get("/:id", taskController.GetTask)
	task.Put("/:id", taskController.UpdateTask)
	task.Delete("/:id", taskController.DeleteTask)
	task.Patch("/:id/assign", taskController.AssignTask)

	// Activity routes; the static paths must register before /:id
	activity := api.Group("/activities")
	activity.Post("/", activityController.CreateActivity)
	activity.Get("/project/:projectId", activityController.GetProjectActivities)
	activity.Get("/user", activityController.GetUserActivities)
	activity.Get("/:id", activityController.GetActivity)
}
