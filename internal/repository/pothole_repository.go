package repository

import (
	"context"

	"github.com/roadwatch/pothole-service/internal/domain"
)

// SaveBatch is one detect-and-save call: the grouping record plus one pothole
// row per geolocated detection. The whole batch commits or none of it does.
type SaveBatch struct {
	Session  domain.DetectionSession
	Potholes []domain.Pothole
}

type PotholeRepository interface {
	SaveBatch(ctx context.Context, batch *SaveBatch) error
	GetByArea(ctx context.Context, box domain.BoundingBox) ([]domain.MapPothole, error)
	GetRecent(ctx context.Context, limit int) ([]domain.MapPothole, error)
	ListAll(ctx context.Context) ([]domain.MapPothole, error)
	GetHeatmap(ctx context.Context) ([]domain.HeatmapPoint, error)
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
}
