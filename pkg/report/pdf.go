// Package report renders pothole detection reports as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Finding is one detected pothole as it appears in the report.
type Finding struct {
	Severity    string
	Score       float64
	Description string
	Confidence  float64
	Width       float64
	Height      float64
	Latitude    *float64
	Longitude   *float64
}

// Report is the full input for one generated document.
type Report struct {
	GeneratedAt    time.Time
	Latitude       *float64
	Longitude      *float64
	AnnotatedImage []byte // optional PNG/JPEG bytes
	Findings       []Finding
}

type severityColor struct {
	r, g, b int
}

var severityColors = map[string]severityColor{
	"high":   {231, 76, 60},
	"medium": {243, 156, 18},
	"low":    {39, 174, 96},
}

// Generate renders the report and returns the PDF bytes.
func Generate(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	high, medium, low := countBySeverity(r.Findings)

	writeTitle(pdf, r.GeneratedAt)
	writeSummary(pdf, len(r.Findings), high, medium, low)

	if r.Latitude != nil && r.Longitude != nil {
		writeHeading(pdf, "Location Information")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("GPS Coordinates: %.6f, %.6f", *r.Latitude, *r.Longitude), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	if len(r.AnnotatedImage) > 0 {
		if err := writeAnnotatedImage(pdf, r.AnnotatedImage); err != nil {
			// The report is still useful without the image.
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 6, "Annotated image unavailable", "", 1, "L", false, 0, "")
		}
	}

	if len(r.Findings) > 0 {
		writeDistribution(pdf, high, medium, low)
		writeFindings(pdf, r.Findings)
	}

	writeRecommendations(pdf, high, medium, low)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func countBySeverity(findings []Finding) (high, medium, low int) {
	for _, f := range findings {
		switch f.Severity {
		case "high":
			high++
		case "medium":
			medium++
		default:
			low++
		}
	}
	return
}

func writeTitle(pdf *gofpdf.Fpdf, generatedAt time.Time) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 12, "POTHOLE DETECTION REPORT", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, "Generated on: "+generatedAt.Format("January 2, 2006 at 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(8)
}

func writeHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(52, 73, 94)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func writeSummary(pdf *gofpdf.Fpdf, total, high, medium, low int) {
	writeHeading(pdf, "Executive Summary")

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf(
		"This report summarizes the pothole detection analysis. The detection system identified %d potholes with varying severity levels.",
		total), "", "L", false)
	pdf.Ln(3)

	rows := []struct {
		label    string
		count    int
		priority string
	}{
		{"High", high, "Immediate"},
		{"Medium", medium, "High"},
		{"Low", low, "Medium"},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(50, 7, "Severity Level", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Count", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Priority", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		c := severityColors[toLowerSeverity(row.label)]
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.CellFormat(50, 7, row.label, "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", row.count), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, row.priority, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func toLowerSeverity(label string) string {
	switch label {
	case "High":
		return "high"
	case "Medium":
		return "medium"
	default:
		return "low"
	}
}

func writeAnnotatedImage(pdf *gofpdf.Fpdf, img []byte) error {
	imageType := ""
	switch http.DetectContentType(img) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		return fmt.Errorf("unsupported annotated image type")
	}

	writeHeading(pdf, "Detection Results")

	opts := gofpdf.ImageOptions{ImageType: imageType}
	name := "annotated"
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	if pdf.Err() {
		return fmt.Errorf("register annotated image: %v", pdf.Error())
	}

	x := (210.0 - 127.0) / 2 // center a 127mm wide image on A4
	pdf.ImageOptions(name, x, pdf.GetY(), 127, 0, true, opts, 0, "")
	pdf.Ln(6)
	return nil
}

func writeDistribution(pdf *gofpdf.Fpdf, high, medium, low int) {
	writeHeading(pdf, "Severity Distribution")

	maxCount := high
	if medium > maxCount {
		maxCount = medium
	}
	if low > maxCount {
		maxCount = low
	}
	if maxCount == 0 {
		maxCount = 1
	}

	bars := []struct {
		label string
		count int
	}{
		{"High", high},
		{"Medium", medium},
		{"Low", low},
	}

	const barMaxHeight = 40.0
	baseY := pdf.GetY() + barMaxHeight
	x := 30.0
	pdf.SetFont("Helvetica", "", 9)
	for _, bar := range bars {
		h := barMaxHeight * float64(bar.count) / float64(maxCount)
		c := severityColors[toLowerSeverity(bar.label)]
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.Rect(x, baseY-h, 25, h, "F")
		pdf.SetXY(x, baseY+1)
		pdf.CellFormat(25, 5, fmt.Sprintf("%s (%d)", bar.label, bar.count), "", 0, "C", false, 0, "")
		x += 40
	}
	pdf.SetY(baseY + 10)
}

func writeFindings(pdf *gofpdf.Fpdf, findings []Finding) {
	writeHeading(pdf, "Detailed Findings")

	for i, f := range findings {
		c, ok := severityColors[f.Severity]
		if !ok {
			c = severityColors["medium"]
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.CellFormat(0, 7, fmt.Sprintf("Pothole #%d - %s SEVERITY", i+1, strings.ToUpper(f.Severity)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		rows := [][2]string{
			{"Confidence", fmt.Sprintf("%.1f%%", f.Confidence*100)},
			{"Size", fmt.Sprintf("%.0f x %.0f pixels", f.Width, f.Height)},
			{"Area", fmt.Sprintf("%.0f px2", f.Width*f.Height)},
			{"Severity Score", fmt.Sprintf("%.1f/100", f.Score*100)},
			{"Description", f.Description},
		}
		if f.Latitude != nil && f.Longitude != nil {
			rows = append(rows, [2]string{"Location", fmt.Sprintf("Lat: %.6f, Lon: %.6f", *f.Latitude, *f.Longitude)})
		}

		for _, row := range rows {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetFillColor(236, 240, 241)
			pdf.CellFormat(40, 6, row[0], "1", 0, "L", true, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(110, 6, row[1], "1", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}
}

func writeRecommendations(pdf *gofpdf.Fpdf, high, medium, low int) {
	writeHeading(pdf, "Recommendations")

	pdf.SetFont("Helvetica", "", 10)
	if high > 0 {
		pdf.MultiCell(0, 5, fmt.Sprintf("Immediate Action Required: %d high-severity potholes need urgent repair.", high), "", "L", false)
	}
	if medium > 0 {
		pdf.MultiCell(0, 5, fmt.Sprintf("Schedule Repairs: %d medium-severity potholes should be addressed soon.", medium), "", "L", false)
	}
	if low > 0 {
		pdf.MultiCell(0, 5, fmt.Sprintf("Monitor: %d low-severity potholes should be regularly monitored.", low), "", "L", false)
	}
	if high == 0 && medium == 0 && low == 0 {
		pdf.MultiCell(0, 5, "No potholes were detected in the analysed imagery.", "", "L", false)
	}
}
