package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

// ErrNoReport is returned when exporting an audit that failed before producing a report.
var ErrNoReport = errors.New("audit has no report")

const (
	summarySheet  = "Summary"
	findingsSheet = "Findings"
)

// Service produces XLSX bytes for stored audits.
type Service struct {
	audits repository.AuditRepository
	logger *slog.Logger
}

func NewService(audits repository.AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{audits: audits, logger: logger}
}

// ExportAuditXLSX loads an audit and renders its report.
func (s *Service) ExportAuditXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	start := time.Now()
	rec, err := s.audits.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Report == nil {
		return nil, fmt.Errorf("audit %s (%s): %w", id, rec.FailureKind, ErrNoReport)
	}
	title := rec.Filename
	if title == "" {
		title = id.String()
	}
	b, err := ReportXLSX(*rec.Report, title)
	if err != nil {
		return nil, err
	}
	common.LoggerFromContext(ctx, s.logger).Info("export.audit.ok",
		"audit_id", id, "bytes", len(b), "elapsed_ms", time.Since(start).Milliseconds())
	return b, nil
}

// ReportXLSX renders a report as a workbook with a Summary and a Findings sheet.
func ReportXLSX(report llm.ContractReport, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(activeIndex)

	set := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	// Summary
	set(summarySheet, 1, 1, "Contract")
	set(summarySheet, 2, 1, title)
	set(summarySheet, 1, 2, "Health Score")
	set(summarySheet, 2, 2, report.HealthScore)
	set(summarySheet, 1, 3, "Value Analysis")
	set(summarySheet, 2, 3, report.ValueAnalysis)
	set(summarySheet, 1, 4, "Findings")
	set(summarySheet, 2, 4, fmt.Sprintf("%d risk, %d review, %d safe", len(report.Risk), len(report.Review), len(report.Safe)))
	set(summarySheet, 1, 6, "Missing Clauses")
	for i, m := range report.Missing {
		set(summarySheet, 2, 6+i, m)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 80)

	// Findings
	headers := []string{"Category", "Title", "Summary", "Plain English", "Reason", "Risk Level", "Suggested Fix"}
	for i, h := range headers {
		set(findingsSheet, i+1, 1, h)
	}
	row := 2
	for _, group := range []struct {
		name     string
		findings []llm.ClauseFinding
	}{
		{"Risk", report.Risk},
		{"Review", report.Review},
		{"Safe", report.Safe},
	} {
		for _, c := range group.findings {
			set(findingsSheet, 1, row, group.name)
			set(findingsSheet, 2, row, c.Title)
			set(findingsSheet, 3, row, truncate(c.Summary, 2000))
			set(findingsSheet, 4, row, truncate(c.PlainEnglish, 2000))
			set(findingsSheet, 5, row, truncate(c.Reason, 2000))
			set(findingsSheet, 6, row, string(c.RiskLevel))
			set(findingsSheet, 7, row, truncate(c.Fix, 4000))
			row++
		}
	}
	_ = f.SetColWidth(findingsSheet, "A", "A", 10) // category
	_ = f.SetColWidth(findingsSheet, "B", "B", 28) // title
	_ = f.SetColWidth(findingsSheet, "C", "E", 48) // prose
	_ = f.SetColWidth(findingsSheet, "F", "F", 12) // level
	_ = f.SetColWidth(findingsSheet, "G", "G", 60) // fix

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return common.Preview(s, n-1) + "…"
}
