package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/service"
	"github.com/roadwatch/pothole-service/pkg/validator"
)

type DetectHandler struct {
	detectionService *service.DetectionService
	validator        *validator.Validator
}

func NewDetectHandler(detectionService *service.DetectionService, validator *validator.Validator) *DetectHandler {
	return &DetectHandler{
		detectionService: detectionService,
		validator:        validator,
	}
}

type detectRequest struct {
	ImageURL    string           `json:"image_url"`
	ImageBase64 string           `json:"image_base64"`
	Location    *domain.Location `json:"location"`
	Timestamp   string           `json:"timestamp"`
}

type detectURLRequest struct {
	URL       string           `json:"url" validate:"required,url"`
	Location  *domain.Location `json:"location"`
	Timestamp string           `json:"timestamp"`
}

// detectResponse wraps the service result with request metadata the clients
// echo back on the map.
type detectResponse struct {
	*service.DetectResult
	Success   bool             `json:"success"`
	UserID    string           `json:"user_id"`
	Location  *domain.Location `json:"location,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Detect accepts a multipart upload (field "image") or a JSON body carrying
// image_url or image_base64.
func (h *DetectHandler) Detect(c *fiber.Ctx) error {
	if file, err := c.FormFile("image"); err == nil {
		return h.detectUpload(c, file)
	}

	var req detectRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", service.ErrNoImage.Error())
	}

	var (
		imagePath string
		err       error
	)
	switch {
	case req.ImageBase64 != "":
		imagePath, err = h.detectionService.DecodeBase64(req.ImageBase64)
	case req.ImageURL != "":
		imagePath, err = h.detectionService.FetchURL(c.Context(), req.ImageURL)
	default:
		err = service.ErrNoImage
	}
	if err != nil {
		return h.mapImageError(c, err)
	}

	return h.run(c, imagePath, req.Location, req.Timestamp)
}

// DetectURL is the dedicated URL-ingest endpoint.
func (h *DetectHandler) DetectURL(c *fiber.Ctx) error {
	var req detectURLRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	imagePath, err := h.detectionService.FetchURL(c.Context(), req.URL)
	if err != nil {
		return h.mapImageError(c, err)
	}

	return h.run(c, imagePath, req.Location, req.Timestamp)
}

func (h *DetectHandler) detectUpload(c *fiber.Ctx, file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "failed to read uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "failed to read uploaded file")
	}

	imagePath, err := h.detectionService.SaveUpload(file.Filename, data)
	if err != nil {
		return h.mapImageError(c, err)
	}

	return h.run(c, imagePath, parseFormLocation(c), c.FormValue("timestamp"))
}

// run executes detection against a stored image and always cleans it up.
func (h *DetectHandler) run(c *fiber.Ctx, imagePath string, location *domain.Location, rawTimestamp string) error {
	defer h.detectionService.Cleanup(imagePath)

	if location != nil {
		if err := h.validator.Validate(location); err != nil {
			return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
	}

	timestamp := time.Now().UTC()
	if rawTimestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, rawTimestamp); err == nil {
			timestamp = parsed.UTC()
		}
	}

	ident := currentIdentity(c)
	if ident == nil {
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to resolve identity")
	}

	result, err := h.detectionService.Detect(c.Context(), imagePath, ident.UserID, location, timestamp)
	if err != nil {
		log.Printf("[DETECT] detection failed for user %s: %v", ident.UserID, err)
		return h.mapImageError(c, err)
	}

	return c.JSON(detectResponse{
		DetectResult: result,
		Success:      true,
		UserID:       ident.UserID,
		Location:     location,
		Timestamp:    timestamp.Format(time.RFC3339),
	})
}

func (h *DetectHandler) mapImageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoImage),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, service.ErrInvalidImageURL),
		errors.Is(err, service.ErrInvalidBase64):
		return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, service.ErrDownloadFailed),
		errors.Is(err, service.ErrNotAnImage):
		return respondError(c, fiber.StatusBadRequest, "download_error", err.Error())
	case errors.Is(err, service.ErrImageUnreadable):
		return respondError(c, fiber.StatusInternalServerError, "detection_error", service.ErrImageUnreadable.Error())
	default:
		log.Printf("[DETECT] %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to process image")
	}
}

// parseFormLocation reads the optional "location" multipart field, a JSON
// object with latitude and longitude. Malformed input degrades to no location
// so detection still runs.
func parseFormLocation(c *fiber.Ctx) *domain.Location {
	raw := c.FormValue("location")
	if raw == "" {
		return nil
	}

	var loc domain.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		log.Printf("[DETECT] ignoring malformed location field: %v", err)
		return nil
	}
	return &loc
}
