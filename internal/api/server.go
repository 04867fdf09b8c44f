// Package api exposes the tracker over HTTP with fiber.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ciclofficina/tracker/internal/advisor"
	"github.com/ciclofficina/tracker/internal/assessment"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/goalpath"
	"github.com/ciclofficina/tracker/internal/logging"
	"github.com/ciclofficina/tracker/internal/progress"
	"github.com/ciclofficina/tracker/internal/store"
)

// Services bundles what the handlers call. Advisor may be nil when no
// LLM provider is configured.
type Services struct {
	Modules     *store.ModuleRepo
	Engine      *depgraph.Engine
	Goals       *goalpath.Resolver
	Progress    *progress.Service
	Assessments *assessment.Service
	Advisor     *advisor.Advisor
}

// New builds the fiber application with every route mounted.
func New(svc Services, log *logging.Logger) *fiber.App {
	if log == nil {
		log = logging.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "tracker",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          90 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status, details := errorStatus(err)
			if status >= fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			}
			if details != nil {
				return Error(c, status, err, details)
			}
			return Error(c, status, err)
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(RequestLogger(log))

	SetupRoutes(app, svc)
	return app
}

// Serve listens on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func SetupRoutes(app *fiber.App, svc Services) {
	modules := &ModuleController{svc: svc}
	deps := &DependencyController{svc: svc}
	prog := &ProgressController{svc: svc}
	assess := &AssessmentController{svc: svc}
	suggest := &AdvisorController{svc: svc}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error { return OK(c, fiber.Map{"status": "ok"}) })

	api.Get("/modules", modules.List)
	api.Post("/modules", modules.Upsert)
	api.Get("/modules/:ref", modules.Get)
	api.Delete("/modules/:ref", modules.Delete)

	api.Get("/modules/:ref/prerequisites", deps.Prerequisites)
	api.Post("/modules/:ref/prerequisites", deps.Add)
	api.Delete("/modules/:ref/prerequisites/:prereq", deps.RemoveBetween)
	api.Get("/modules/:ref/dependents", deps.Dependents)
	api.Get("/modules/:ref/dependencies", deps.Transitive)
	api.Get("/modules/:ref/can-start", deps.CanStart)
	api.Get("/modules/:ref/goal", deps.Goal)
	api.Delete("/dependencies/:id", deps.Remove)

	api.Get("/order", deps.Order)
	api.Get("/available", deps.Available)
	api.Get("/blocked", deps.Blocked)
	api.Get("/check", deps.Check)

	api.Get("/modules/:ref/progress", prog.Get)
	api.Put("/modules/:ref/progress", prog.Update)
	api.Post("/modules/:ref/progress/notes", prog.AddNote)
	api.Delete("/modules/:ref/progress", prog.Reset)
	api.Get("/progress", prog.List)
	api.Get("/progress/summary", prog.Summary)

	api.Get("/modules/:ref/assessment", assess.Get)
	api.Put("/modules/:ref/assessment", assess.Record)
	api.Delete("/modules/:ref/assessment", assess.Delete)
	api.Get("/assessments/report", assess.Report)

	api.Post("/modules/:ref/suggestions", suggest.Suggest)
}
