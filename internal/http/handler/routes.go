package handler

import (
	"github.com/gofiber/fiber/v2"

	"digilocker/internal/auth"
	"digilocker/internal/gateway"
	"digilocker/internal/http/middleware"
	"digilocker/internal/identity"
	"digilocker/internal/service"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	// DB is pinged by /health; nil when metadata is kept in memory.
	DB        Pinger
	Documents service.DocumentService
	Slots     identity.Slots
	Auth      auth.Service
	URLs      gateway.URLScheme
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate HTTP to service calls.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", SignUp(deps.Auth))
	authGroup.Post("/signin", SignIn(deps.Auth))
	authGroup.Get("/session", CurrentSession(deps.Auth))

	// Identity slots are kept per device.
	app.Get("/identity", middleware.Device(), GetIdentity(deps.Slots))
	app.Post("/identity", middleware.Device(), GenerateIdentity(deps.Slots))
	app.Put("/identity", middleware.Device(), AdoptIdentity(deps.Slots))

	docs := app.Group("/lockers/:healthID/documents")
	docs.Get("/", ListDocuments(deps.Documents))
	docs.Post("/", UploadDocuments(deps.Documents))
	docs.Get("/:id", GetDocument(deps.Documents))
	docs.Get("/:id/link", DocumentLink(deps.Documents))
	docs.Delete("/:id", DeleteDocument(deps.Documents))

	app.Get("/files/*", ServeFile(deps.Documents, deps.URLs))
}
