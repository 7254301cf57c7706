package detector

import (
	"context"

	"github.com/roadwatch/pothole-service/internal/domain"
)

// Disabled is the no-model variant. Detect succeeds with zero detections and
// the no_model_loaded status so callers can distinguish it from a clean image.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (d *Disabled) Detect(ctx context.Context, imagePath string) (*Result, error) {
	return &Result{
		Detections:      []domain.Detection{},
		ImageSize:       domain.ImageSize{},
		ProcessingTime:  0,
		ModelUsed:       "none",
		TotalDetections: 0,
		Status:          StatusNoModel,
	}, nil
}

func (d *Disabled) Stats() Stats {
	return Stats{
		ModelLoaded:     false,
		DetectorType:    "none",
		TotalDetections: 0,
	}
}
