package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roadwatch/pothole-service/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		bbox       domain.BBox
		confidence float64
		wantLevel  string
		wantScore  float64
	}{
		{
			name:       "saturated size with full confidence is high",
			bbox:       domain.BBox{0, 0, 100, 100},
			confidence: 1.0,
			wantLevel:  domain.SeverityHigh,
			wantScore:  1.0,
		},
		{
			name:       "tiny box with zero confidence is low",
			bbox:       domain.BBox{0, 0, 10, 10},
			confidence: 0.0,
			wantLevel:  domain.SeverityLow,
			wantScore:  0.007,
		},
		{
			name:       "mid-size box lands in medium",
			bbox:       domain.BBox{0, 0, 80, 80},
			confidence: 0.5,
			wantLevel:  domain.SeverityMedium,
			wantScore:  0.598,
		},
		{
			name:       "oversized box clamps the size score",
			bbox:       domain.BBox{0, 0, 500, 500},
			confidence: 0.0,
			wantLevel:  domain.SeverityLow,
			wantScore:  0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.bbox, tt.confidence)

			assert.Equal(t, tt.wantLevel, got.Level)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestScoreBoundaryIsNotHigh(t *testing.T) {
	// 10000 px^2 at zero confidence gives exactly 0.7, which stays medium
	// because only strictly greater scores promote.
	got := Score(domain.BBox{0, 0, 100, 100}, 0.0)

	assert.Equal(t, domain.SeverityMedium, got.Level)
	assert.InDelta(t, 0.7, got.Score, 1e-9)
}

func TestScoreFallback(t *testing.T) {
	tests := []struct {
		name       string
		bbox       domain.BBox
		confidence float64
	}{
		{"zero width", domain.BBox{0, 0, 0, 50}, 0.9},
		{"negative height", domain.BBox{0, 0, 50, -1}, 0.9},
		{"confidence above one", domain.BBox{0, 0, 50, 50}, 1.5},
		{"negative confidence", domain.BBox{0, 0, 50, 50}, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.bbox, tt.confidence)

			assert.Equal(t, domain.SeverityMedium, got.Level)
			assert.Equal(t, 0.5, got.Score)
			assert.Equal(t, "Standard pothole - requires inspection", got.Description)
		})
	}
}

func TestScoreMonotonicInSize(t *testing.T) {
	prev := -1.0
	for _, side := range []float64{10, 30, 50, 70, 90, 100} {
		got := Score(domain.BBox{0, 0, side, side}, 0.5)
		assert.GreaterOrEqual(t, got.Score, prev, "side %v", side)
		prev = got.Score
	}
}
