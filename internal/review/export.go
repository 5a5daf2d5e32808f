package review

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/services"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var resultHeaders = []string{
	"#", "Problem ID", "Question", "Your Answer", "Expected", "Outcome", "Explanation",
}

// ParseFormat accepts "xlsx", "excel" or "csv"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Exporter writes lesson review logs into a directory
type Exporter struct {
	dir    string
	logger *services.ServiceLogger
	now    func() time.Time
}

func NewExporter(dir string, logger *services.ServiceLogger) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// Export writes the review of one attempt and returns the file path
func (e *Exporter) Export(ctx context.Context, attemptID string, summary lesson.Summary, results []models.QuestionResult, format Format) (string, error) {
	start := e.now()

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatExcel:
		data, err = ToExcel(summary, results)
	case FormatCSV:
		data, err = ToCSV(results)
	default:
		err = fmt.Errorf("unsupported export format: %q", format)
	}
	if err != nil {
		e.logger.LogOperation(ctx, "export_review", "", attemptID, "lesson", e.now().Sub(start), err)
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, e.fileName(attemptID, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.logger.LogOperation(ctx, "export_review", "", attemptID, "lesson", e.now().Sub(start), err)
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	e.logger.LogOperation(ctx, "export_review", "", attemptID, "lesson", e.now().Sub(start), nil)
	return path, nil
}

func (e *Exporter) fileName(attemptID string, format Format) string {
	short := attemptID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("lesson-%s-%s.%s", e.now().Format("20060102-150405"), short, format)
}

// ===== ENCODERS =====

func resultRow(i int, r models.QuestionResult) []string {
	return []string{
		fmt.Sprint(i + 1),
		r.ProblemID,
		r.Question,
		r.Response,
		r.Expected,
		string(r.Outcome),
		r.Explanation,
	}
}

// ToCSV renders results with a header row
func ToCSV(results []models.QuestionResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, services.ErrNothingToExport
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range results {
		if err := writer.Write(resultRow(i, r)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToExcel renders a workbook with the results and a summary sheet
func ToExcel(summary lesson.Summary, results []models.QuestionResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, services.ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the results sheet
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	for i, header := range resultHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(resultsSheet, cell, header)
	}
	for rowIndex, r := range results {
		for colIndex, value := range resultRow(rowIndex, r) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(resultsSheet, cell, value)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Outcome", summary.State.String()},
		{"Correct", summary.Correct},
		{"Incorrect", summary.Incorrect},
		{"Skipped", summary.Skipped},
		{"Accuracy (%)", summary.Accuracy},
		{"Time", summary.Time},
	}
	for i, row := range rows {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
