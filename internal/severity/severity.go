// Package severity maps a detection to a categorical severity tier.
package severity

import (
	"math"

	"github.com/roadwatch/pothole-service/internal/domain"
)

const (
	// areaNorm is the bounding-box area (px^2) that saturates the size score.
	areaNorm = 10000.0

	sizeWeight       = 0.7
	confidenceWeight = 0.3

	highThreshold   = 0.7
	mediumThreshold = 0.4
)

var descriptions = map[string]string{
	domain.SeverityHigh:   "Large pothole - immediate attention needed",
	domain.SeverityMedium: "Medium pothole - schedule repair",
	domain.SeverityLow:    "Small pothole - monitor condition",
}

// fallback is returned for malformed input so a single bad detection never
// fails the whole request.
var fallback = domain.Severity{
	Level:       domain.SeverityMedium,
	Score:       0.5,
	Description: "Standard pothole - requires inspection",
}

// Score computes the severity tier for one detection.
//
// size_score = min(w*h / 10000, 1.0); score = 0.7*size_score + 0.3*confidence.
// score > 0.7 is high, score > 0.4 is medium, anything else low.
func Score(bbox domain.BBox, confidence float64) domain.Severity {
	if bbox.Width() <= 0 || bbox.Height() <= 0 || confidence < 0 || confidence > 1 {
		return fallback
	}

	sizeScore := math.Min(bbox.Area()/areaNorm, 1.0)
	score := sizeWeight*sizeScore + confidenceWeight*confidence

	level := domain.SeverityLow
	switch {
	case score > highThreshold:
		level = domain.SeverityHigh
	case score > mediumThreshold:
		level = domain.SeverityMedium
	}

	return domain.Severity{
		Level:       level,
		Score:       round3(score),
		Description: descriptions[level],
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
