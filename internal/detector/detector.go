// Package detector wraps a pretrained object-detection model behind a small
// interface. The variant is chosen once at startup from configuration; there
// is no runtime probing.
package detector

import (
	"context"
	"fmt"

	"github.com/roadwatch/pothole-service/internal/config"
	"github.com/roadwatch/pothole-service/internal/domain"
)

// ConfidenceThreshold discards low-confidence boxes before they are returned.
const ConfidenceThreshold = 0.25

const (
	StatusOK      = "ok"
	StatusNoModel = "no_model_loaded"
)

// Result is the outcome of one detection call. A missing model is reported
// through Status, not an error: callers must be able to tell "no detections"
// and "no model" apart.
type Result struct {
	Detections      []domain.Detection `json:"detections"`
	ImageSize       domain.ImageSize   `json:"image_size"`
	ProcessingTime  float64            `json:"processing_time"`
	ModelUsed       string             `json:"model_used"`
	TotalDetections int                `json:"total_detections"`
	Status          string             `json:"status"`
	// AnnotatedImage is an optional base64 data URL of the input with
	// detection boxes rendered, for map popups and report generation.
	AnnotatedImage string `json:"annotated_image,omitempty"`
}

// Stats describes the detector lifecycle state, including the lifetime count
// of detections produced by this process.
type Stats struct {
	ModelLoaded     bool   `json:"model_loaded"`
	DetectorType    string `json:"detector_type"`
	ModelPath       string `json:"model_path"`
	TotalDetections int64  `json:"total_detections"`
}

type Detector interface {
	Detect(ctx context.Context, imagePath string) (*Result, error)
	Stats() Stats
}

// New builds the configured detector variant.
func New(cfg config.DetectorConfig) (Detector, error) {
	switch cfg.Mode {
	case "remote":
		return NewRemote(cfg), nil
	case "disabled", "":
		return NewDisabled(), nil
	default:
		return nil, fmt.Errorf("unknown detector mode %q", cfg.Mode)
	}
}
