package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// tierRGB maps a tier to the fill color used in PDF table rows.
func tierRGB(tier models.Tier) (int, int, int) {
	switch tier {
	case models.TierOptimal:
		return 198, 239, 206
	case models.TierWatch:
		return 255, 235, 156
	case models.TierCritical:
		return 248, 203, 173
	case models.TierDanger:
		return 255, 199, 206
	default:
		return 217, 217, 217
	}
}

// GenerateReportPDF renders a health report as a single-page PDF:
// header, parameter tier table, and the ranked findings with their
// recommended actions.
func (es *ExportService) GenerateReportPDF(data ReportExport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Health Assessment - %s", data.Tank.Name))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", data.Report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Overall status: %s", data.Report.WorstTier()))
	pdf.Ln(10)

	// Parameter table
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Parameters")
	pdf.Ln(8)

	colWidths := []float64{35, 25, 20, 25, 35, 30}
	headers := []string{"Parameter", "Value", "Unit", "Tier", "Trend", "Change/Day"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(31, 111, 139)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	trends := make(map[models.Parameter]models.TrendResult, len(data.Report.Trends))
	for _, tr := range data.Report.Trends {
		trends[tr.Parameter] = tr
	}

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, tier := range data.Report.Tiers {
		direction, change := "", ""
		if trend, ok := trends[tier.Parameter]; ok {
			direction = string(trend.Direction)
			change = fmt.Sprintf("%.3f", trend.Magnitude)
		}

		r, g, b := tierRGB(tier.Tier)
		pdf.SetFillColor(r, g, b)

		pdf.CellFormat(colWidths[0], 6, tier.Parameter.DisplayName(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 6, fmt.Sprintf("%.2f", tier.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[2], 6, tier.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, string(tier.Tier), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[4], 6, direction, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[5], 6, change, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Findings
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(8)

	if len(data.Report.Diagnosis.Findings) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 6, "No findings. All monitored parameters look healthy.")
		pdf.Ln(6)
	}

	for i, finding := range data.Report.Diagnosis.Findings {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("%d. [%s] %s (%.0f%% confidence)",
			i+1, finding.Severity, finding.Cause, finding.Confidence*100))
		pdf.Ln(6)

		pdf.SetFont("Helvetica", "", 9)
		for _, contributing := range finding.Contributing {
			pdf.CellFormat(8, 5, "", "", 0, "", false, 0, "")
			pdf.Cell(0, 5, fmt.Sprintf("- %s", contributing))
			pdf.Ln(5)
		}
		for _, action := range finding.Actions {
			pdf.CellFormat(8, 5, "", "", 0, "", false, 0, "")
			pdf.Cell(0, 5, fmt.Sprintf("Action %d: %s", action.Priority, action.Description))
			pdf.Ln(5)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
