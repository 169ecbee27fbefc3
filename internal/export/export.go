package export

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// ExportService renders readings and health reports as CSV, XLSX, and PDF.
type ExportService struct {
	classifier *assessment.Classifier
	table      *assessment.RangeTable
}

// NewExportService creates an export service that colors cells by tier
func NewExportService(classifier *assessment.Classifier, table *assessment.RangeTable) *ExportService {
	return &ExportService{classifier: classifier, table: table}
}

// ReadingsExport bundles one tank's readings with export metadata
type ReadingsExport struct {
	Tank     models.Tank
	Readings []models.Reading
	Start    time.Time
	End      time.Time
}

// tierFill maps a tier to the hex fill used in XLSX cells.
func tierFill(tier models.Tier) string {
	switch tier {
	case models.TierOptimal:
		return "C6EFCE"
	case models.TierWatch:
		return "FFEB9C"
	case models.TierCritical:
		return "F8CBAD"
	case models.TierDanger:
		return "FFC7CE"
	default:
		return "D9D9D9"
	}
}

// readingHeaders returns the column headers for a readings table, with
// units taken from the range table.
func (es *ExportService) readingHeaders() []string {
	headers := []string{"Timestamp", "Source"}
	for _, p := range models.KnownParameters() {
		label := p.DisplayName()
		if pr, ok := es.table.Lookup(p); ok && pr.Unit != "" {
			label = fmt.Sprintf("%s (%s)", label, pr.Unit)
		}
		headers = append(headers, label)
	}
	return headers
}

// GenerateCSV creates CSV records for a tank's readings, one column per
// registered parameter. Missing values render as empty cells.
func (es *ExportService) GenerateCSV(readings []models.Reading) ([][]string, error) {
	records := [][]string{es.readingHeaders()}

	for _, reading := range readings {
		record := []string{
			reading.Timestamp.Format("2006-01-02 15:04:05"),
			string(reading.Source),
		}
		for _, p := range models.KnownParameters() {
			if v, ok := reading.Value(p); ok {
				record = append(record, strconv.FormatFloat(v, 'f', 2, 64))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// WriteCSV writes CSV data to a writer
func (es *ExportService) WriteCSV(w *csv.Writer, records [][]string) error {
	return w.WriteAll(records)
}

// GenerateReadingsExcel creates an Excel workbook for one tank's readings,
// with parameter cells filled by their classification tier.
func (es *ExportService) GenerateReadingsExcel(data ReadingsExport) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDocProps(&excelize.DocProperties{
		Created:        time.Now().UTC().Format(time.RFC3339),
		Creator:        "ReefWatch Backend",
		Description:    "Water chemistry reading export",
		LastModifiedBy: "ReefWatch Backend",
		Modified:       time.Now().UTC().Format(time.RFC3339),
		Subject:        "Tank Readings",
		Title:          fmt.Sprintf("ReefWatch Readings - %s", data.Tank.Name),
	})

	if err := es.createReadingsSheet(f, data); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (es *ExportService) createReadingsSheet(f *excelize.File, data ReadingsExport) error {
	sheetName := "Readings"
	f.SetSheetName("Sheet1", sheetName)

	headers := es.readingHeaders()
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F6F8B"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	// One style per tier, created once and reused across cells
	tierStyles := make(map[models.Tier]int)
	for _, tier := range []models.Tier{models.TierOptimal, models.TierWatch, models.TierCritical, models.TierDanger, models.TierUnknown} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{tierFill(tier)}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		tierStyles[tier] = style
	}

	for i, reading := range data.Readings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), reading.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), string(reading.Source))

		for j, p := range models.KnownParameters() {
			cell, _ := excelize.CoordinatesToCellName(j+3, row)
			v, ok := reading.Value(p)
			if !ok {
				continue
			}
			f.SetCellValue(sheetName, cell, v)
			result := es.classifier.Classify(p, v)
			f.SetCellStyle(sheetName, cell, cell, tierStyles[result.Tier])
		}
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(sheetName, "B", lastCol, 14)

	return nil
}

// ReportExport bundles a health report with its tank and the readings
// the trend window covered.
type ReportExport struct {
	Tank   models.Tank
	Report models.HealthReport
}

// GenerateReportExcel creates an Excel workbook for one health report:
// a summary sheet, a parameter tier sheet, and a findings sheet.
func (es *ExportService) GenerateReportExcel(data ReportExport) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDocProps(&excelize.DocProperties{
		Created:        data.Report.GeneratedAt.Format(time.RFC3339),
		Creator:        "ReefWatch Backend",
		Description:    "Tank health assessment export",
		LastModifiedBy: "ReefWatch Backend",
		Modified:       data.Report.GeneratedAt.Format(time.RFC3339),
		Subject:        "Health Assessment",
		Title:          fmt.Sprintf("ReefWatch Assessment - %s", data.Tank.Name),
	})

	if err := es.createReportSummarySheet(f, data); err != nil {
		return nil, err
	}
	if err := es.createTierSheet(f, data.Report); err != nil {
		return nil, err
	}
	if err := es.createFindingsSheet(f, data.Report); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (es *ExportService) createReportSummarySheet(f *excelize.File, data ReportExport) error {
	sheetName := "Summary"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F6F8B"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Health Assessment - %s", data.Tank.Name))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)
	f.SetRowHeight(sheetName, 1, 25)

	f.SetCellValue(sheetName, "A3", "Generated At:")
	f.SetCellValue(sheetName, "B3", data.Report.GeneratedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A4", "Tank Volume (L):")
	f.SetCellValue(sheetName, "B4", data.Tank.VolumeLiters)
	f.SetCellValue(sheetName, "A5", "Overall Status:")
	f.SetCellValue(sheetName, "B5", string(data.Report.WorstTier()))
	f.SetCellValue(sheetName, "A6", "Findings:")
	f.SetCellValue(sheetName, "B6", len(data.Report.Diagnosis.Findings))

	statusStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{tierFill(data.Report.WorstTier())}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "B5", "B5", statusStyle)

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "D", 18)

	return nil
}

func (es *ExportService) createTierSheet(f *excelize.File, report models.HealthReport) error {
	sheetName := "Parameters"
	f.NewSheet(sheetName)

	headers := []string{"Parameter", "Value", "Unit", "Tier", "Trend", "Change/Day"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E7D32"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	trends := make(map[models.Parameter]models.TrendResult, len(report.Trends))
	for _, tr := range report.Trends {
		trends[tr.Parameter] = tr
	}

	for i, tier := range report.Tiers {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), tier.Parameter.DisplayName())
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), tier.Value)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), tier.Unit)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), string(tier.Tier))

		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{tierFill(tier.Tier)}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), style)

		if trend, ok := trends[tier.Parameter]; ok {
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(trend.Direction))
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), trend.Magnitude)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "F", 12)

	return nil
}

func (es *ExportService) createFindingsSheet(f *excelize.File, report models.HealthReport) error {
	sheetName := "Findings"
	f.NewSheet(sheetName)

	headers := []string{"Severity", "Cause", "Confidence", "Contributing", "Recommended Actions"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C55A11"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)

	for i, finding := range report.Diagnosis.Findings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), string(finding.Severity))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), finding.Cause)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("%.0f%%", finding.Confidence*100))

		contributing := ""
		for j, c := range finding.Contributing {
			if j > 0 {
				contributing += "; "
			}
			contributing += c
		}
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), contributing)

		actions := ""
		for j, a := range finding.Actions {
			if j > 0 {
				actions += "; "
			}
			actions += fmt.Sprintf("%d. %s", a.Priority, a.Description)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), actions)
	}

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "E", 50)

	return nil
}
