package handler

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires every endpoint. The identity middleware runs only on the
// detection routes, which are the ones that attribute data to a user.
func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	detectHandler *DetectHandler,
	mapHandler *MapHandler,
	reportHandler *ReportHandler,
	healthHandler *HealthHandler,
	identity fiber.Handler,
) {
	app.Get("/", healthHandler.Home)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)
	api.Get("/model/info", healthHandler.ModelInfo)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", authHandler.Me)
	auth.Delete("/me", authHandler.DeleteMe)

	api.Post("/detect", identity, detectHandler.Detect)
	api.Post("/detect/url", identity, detectHandler.DetectURL)

	maps := api.Group("/map")
	maps.Get("/bounds", mapHandler.Bounds)
	maps.Get("/recent", mapHandler.Recent)
	maps.Get("/heatmap", mapHandler.Heatmap)
	maps.Get("/statistics", mapHandler.Statistics)
	maps.Get("/geojson", mapHandler.GeoJSON)

	api.Post("/generate-report", reportHandler.Generate)
}
