package service

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/pothole-service/internal/domain"
)

func TestGenerateRequiresDetectionData(t *testing.T) {
	svc := NewReportService()

	_, err := svc.Generate(nil, "")
	assert.ErrorIs(t, err, ErrNoDetectionData)
}

func TestGenerateProducesPDF(t *testing.T) {
	svc := NewReportService()

	data := &DetectionData{
		Location: &domain.Location{Latitude: 40.0, Longitude: -74.0},
		Detections: []domain.EnrichedDetection{
			{
				Detection: domain.Detection{
					BBox:       domain.BBox{0, 0, 100, 100},
					Confidence: 0.95,
					Class:      "pothole",
				},
				Severity: domain.Severity{
					Level:       domain.SeverityHigh,
					Score:       0.985,
					Description: "Large pothole - immediate attention needed",
				},
				Timestamp: "2026-08-31T12:00:00Z",
			},
			{
				Detection: domain.Detection{
					BBox:       domain.BBox{0, 0, 20, 20},
					Confidence: 0.4,
					Class:      "pothole",
				},
				Severity: domain.Severity{
					Level:       domain.SeverityLow,
					Score:       0.148,
					Description: "Small pothole - monitor condition",
				},
				Timestamp: "2026-08-31T12:00:00Z",
			},
		},
	}

	report, err := svc.Generate(data, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.PDFData, "data:application/pdf;base64,"))
	assert.True(t, strings.HasPrefix(report.Filename, "pothole_report_"))
	assert.True(t, strings.HasSuffix(report.Filename, ".pdf"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(report.PDFData, "data:application/pdf;base64,"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

func TestGenerateIgnoresBrokenAnnotatedImage(t *testing.T) {
	svc := NewReportService()

	data := &DetectionData{
		Detections: []domain.EnrichedDetection{
			{
				Detection: domain.Detection{BBox: domain.BBox{0, 0, 50, 50}, Confidence: 0.8},
				Severity:  domain.Severity{Level: domain.SeverityMedium, Score: 0.5},
			},
		},
	}

	report, err := svc.Generate(data, "data:image/png;base64,%%%broken%%%")
	require.NoError(t, err)
	assert.NotEmpty(t, report.PDFData)
}

func TestGenerateEmptyDetectionsStillRenders(t *testing.T) {
	svc := NewReportService()

	report, err := svc.Generate(&DetectionData{}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, report.PDFData)
}
