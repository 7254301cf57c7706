package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/service"
)

var errMissingBounds = errors.New("ne_lat, ne_lng, sw_lat and sw_lng must be valid coordinates")

type MapHandler struct {
	mapService *service.MapService
}

func NewMapHandler(mapService *service.MapService) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

// Bounds returns potholes inside the viewport rectangle. All four corner
// coordinates are required query parameters.
func (h *MapHandler) Bounds(c *fiber.Ctx) error {
	box, err := parseBoundingBox(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	potholes, err := h.mapService.PotholesInBounds(c.Context(), *box)
	if err != nil {
		log.Printf("[MAP] bounds query failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to query potholes")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"potholes": potholes,
		"count":    len(potholes),
	})
}

// Recent returns the newest potholes, most recent first.
func (h *MapHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	potholes, err := h.mapService.Recent(c.Context(), limit)
	if err != nil {
		log.Printf("[MAP] recent query failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to query potholes")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"potholes": potholes,
		"count":    len(potholes),
	})
}

func (h *MapHandler) Heatmap(c *fiber.Ctx) error {
	points, err := h.mapService.Heatmap(c.Context())
	if err != nil {
		log.Printf("[MAP] heatmap query failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to build heatmap")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"points":  points,
		"count":   len(points),
	})
}

func (h *MapHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.mapService.Statistics(c.Context())
	if err != nil {
		log.Printf("[MAP] statistics query failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to compute statistics")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"statistics": stats,
	})
}

func (h *MapHandler) GeoJSON(c *fiber.Ctx) error {
	collection, err := h.mapService.GeoJSON(c.Context())
	if err != nil {
		log.Printf("[MAP] geojson export failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to export geojson")
	}

	return c.JSON(collection)
}

func parseBoundingBox(c *fiber.Ctx) (*domain.BoundingBox, error) {
	values := [4]float64{}
	for i, key := range [4]string{"ne_lat", "ne_lng", "sw_lat", "sw_lng"} {
		raw := c.Query(key)
		if raw == "" {
			return nil, errMissingBounds
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errMissingBounds
		}
		values[i] = v
	}

	return &domain.BoundingBox{
		NorthEastLat: values[0],
		NorthEastLng: values[1],
		SouthWestLat: values[2],
		SouthWestLng: values[3],
	}, nil
}
