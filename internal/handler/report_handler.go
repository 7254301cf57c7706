package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

type generateReportRequest struct {
	DetectionData  *service.DetectionData `json:"detection_data"`
	AnnotatedImage string                 `json:"annotated_image"`
}

// Generate renders a PDF from a previous detection response and returns it as
// a base64 data URL.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var req generateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	report, err := h.reportService.Generate(req.DetectionData, req.AnnotatedImage)
	if err != nil {
		if errors.Is(err, service.ErrNoDetectionData) {
			return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
		log.Printf("[REPORT] generation failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to generate report")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"pdf_data": report.PDFData,
		"filename": report.Filename,
	})
}
