package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/pkg/report"
)

var ErrNoDetectionData = errors.New("detection data required")

// DetectionData is the client-supplied payload for report generation,
// typically the response of an earlier detect call.
type DetectionData struct {
	Detections []domain.EnrichedDetection `json:"detections"`
	Location   *domain.Location           `json:"location"`
}

type GeneratedReport struct {
	// PDFData is a data:application/pdf;base64 URL ready for download links.
	PDFData  string `json:"pdf_data"`
	Filename string `json:"filename"`
}

// ReportService turns detection results into downloadable PDF reports.
type ReportService struct{}

func NewReportService() *ReportService {
	return &ReportService{}
}

func (s *ReportService) Generate(data *DetectionData, annotatedImage string) (*GeneratedReport, error) {
	if data == nil {
		return nil, ErrNoDetectionData
	}

	now := time.Now()
	r := report.Report{
		GeneratedAt: now,
	}

	if data.Location != nil {
		r.Latitude = &data.Location.Latitude
		r.Longitude = &data.Location.Longitude
	}

	if annotatedImage != "" {
		if img, err := decodeDataImage(annotatedImage); err == nil {
			r.AnnotatedImage = img
		}
		// A broken annotated image never blocks the report.
	}

	for _, d := range data.Detections {
		f := report.Finding{
			Severity:    d.Severity.Level,
			Score:       d.Severity.Score,
			Description: d.Severity.Description,
			Confidence:  d.Confidence,
			Width:       d.BBox.Width(),
			Height:      d.BBox.Height(),
		}
		if d.Location != nil {
			f.Latitude = &d.Location.Latitude
			f.Longitude = &d.Location.Longitude
		} else if data.Location != nil {
			f.Latitude = &data.Location.Latitude
			f.Longitude = &data.Location.Longitude
		}
		r.Findings = append(r.Findings, f)
	}

	pdf, err := report.Generate(r)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	return &GeneratedReport{
		PDFData:  "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		Filename: fmt.Sprintf("pothole_report_%s.pdf", now.Format("20060102_150405")),
	}, nil
}

func decodeDataImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
