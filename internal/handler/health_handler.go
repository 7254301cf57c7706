package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/detector"
	"github.com/roadwatch/pothole-service/internal/service"
)

type HealthHandler struct {
	detectionService *service.DetectionService
}

func NewHealthHandler(detectionService *service.DetectionService) *HealthHandler {
	return &HealthHandler{
		detectionService: detectionService,
	}
}

// Home lists the API surface for anyone probing the root path.
func (h *HealthHandler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "pothole-detection-api",
		"status":  "running",
		"endpoints": fiber.Map{
			"detect":          "POST /api/detect",
			"detect_url":      "POST /api/detect/url",
			"auth_register":   "POST /api/auth/register",
			"auth_login":      "POST /api/auth/login",
			"auth_logout":     "POST /api/auth/logout",
			"auth_me":         "GET /api/auth/me",
			"auth_delete":     "DELETE /api/auth/me",
			"map_bounds":      "GET /api/map/bounds",
			"map_recent":      "GET /api/map/recent",
			"map_heatmap":     "GET /api/map/heatmap",
			"map_statistics":  "GET /api/map/statistics",
			"map_geojson":     "GET /api/map/geojson",
			"generate_report": "POST /api/generate-report",
			"health":          "GET /api/health",
			"model_info":      "GET /api/model/info",
		},
	})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	stats := h.detectionService.DetectorStats()

	return c.JSON(fiber.Map{
		"status":       "healthy",
		"model_loaded": stats.ModelLoaded,
		"model_type":   stats.DetectorType,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) ModelInfo(c *fiber.Ctx) error {
	stats := h.detectionService.DetectorStats()

	return c.JSON(fiber.Map{
		"model_loaded":         stats.ModelLoaded,
		"model_path":           stats.ModelPath,
		"detector_type":        stats.DetectorType,
		"confidence_threshold": detector.ConfidenceThreshold,
		"total_detections":     stats.TotalDetections,
	})
}
