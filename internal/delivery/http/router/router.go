package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"logalty-esign/internal/config"
	"logalty-esign/internal/delivery/http/handler"
)

type Router struct {
	app             *fiber.App
	config          *config.Config
	envelopeHandler *handler.EnvelopeHandler
	healthHandler   *handler.HealthHandler
	logHandler      *handler.LogHandler
}

func NewRouter(
	cfg *config.Config,
	envelopeHandler *handler.EnvelopeHandler,
	healthHandler *handler.HealthHandler,
	logHandler *handler.LogHandler,
) *Router {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: customErrorHandler,
	})

	return &Router{
		app:             app,
		config:          cfg,
		envelopeHandler: envelopeHandler,
		healthHandler:   healthHandler,
		logHandler:      logHandler,
	}
}

func (r *Router) Setup() *fiber.App {
	// Middleware
	r.app.Use(recover.New())
	r.app.Use(requestid.New())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	if r.config.IsDevelopment() {
		r.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// Health check route
	r.app.Get("/health", r.healthHandler.Health)

	// API v1 routes
	api := r.app.Group("/api/v1")
	{
		envelopes := api.Group("/envelopes")
		{
			envelopes.Post("", r.envelopeHandler.Create)
			envelopes.Get("", r.envelopeHandler.List)
			envelopes.Get("/:id", r.envelopeHandler.Get)
			envelopes.Put("/:id", r.envelopeHandler.Update)
			envelopes.Delete("/:id", r.envelopeHandler.Delete)
			envelopes.Post("/:id/send", r.envelopeHandler.Send)
			envelopes.Post("/:id/void", r.envelopeHandler.Void)
		}

		api.Get("/logs", r.logHandler.GetLogs)
	}

	return r.app
}

func (r *Router) GetApp() *fiber.App {
	return r.app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"error": fiber.Map{
			"code":    code,
			"message": err.Error(),
		},
	})
}
