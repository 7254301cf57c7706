package service

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
	"github.com/roadwatch/pothole-service/pkg/cache"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// MapService serves the read-only aggregate queries behind the map UI.
// The heatmap and statistics aggregates go through an optional cache.
type MapService struct {
	potholeRepo repository.PotholeRepository
	aggCache    *cache.Cache
}

func NewMapService(potholeRepo repository.PotholeRepository, aggCache *cache.Cache) *MapService {
	return &MapService{
		potholeRepo: potholeRepo,
		aggCache:    aggCache,
	}
}

func (s *MapService) PotholesInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.MapPothole, error) {
	return s.potholeRepo.GetByArea(ctx, box)
}

func (s *MapService) Recent(ctx context.Context, limit int) ([]domain.MapPothole, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.potholeRepo.GetRecent(ctx, limit)
}

func (s *MapService) Heatmap(ctx context.Context) ([]domain.HeatmapPoint, error) {
	var cached []domain.HeatmapPoint
	if err := s.aggCache.GetJSON(ctx, CacheKeyHeatmap, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[MAP] %v", err)
	}

	points, err := s.potholeRepo.GetHeatmap(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.aggCache.SetJSON(ctx, CacheKeyHeatmap, points); err != nil {
		log.Printf("[MAP] %v", err)
	}

	return points, nil
}

func (s *MapService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var cached domain.Statistics
	if err := s.aggCache.GetJSON(ctx, CacheKeyStatistics, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[MAP] %v", err)
	}

	stats, err := s.potholeRepo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}
	stats.AvgSeverity = math.Round(stats.AvgSeverity*100) / 100

	if err := s.aggCache.SetJSON(ctx, CacheKeyStatistics, stats); err != nil {
		log.Printf("[MAP] %v", err)
	}

	return stats, nil
}

// GeoJSON structures follow RFC 7946 closely enough for map clients.
type GeoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   GeoJSONPoint   `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type GeoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

type GeoJSONCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

func (s *MapService) GeoJSON(ctx context.Context) (*GeoJSONCollection, error) {
	potholes, err := s.potholeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	features := make([]GeoJSONFeature, 0, len(potholes))
	for _, p := range potholes {
		features = append(features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONPoint{
				Type:        "Point",
				Coordinates: [2]float64{p.Longitude, p.Latitude},
			},
			Properties: map[string]any{
				"id":         p.ID,
				"severity":   p.Severity,
				"confidence": p.Confidence,
				"size":       p.Size,
				"timestamp":  p.Timestamp,
			},
		})
	}

	return &GeoJSONCollection{
		Type:     "FeatureCollection",
		Features: features,
	}, nil
}
