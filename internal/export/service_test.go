package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

func sampleReport() llm.ContractReport {
	return llm.ContractReport{
		HealthScore: 58,
		Safe:        []llm.ClauseFinding{{Title: "Governing law", Summary: "s1", PlainEnglish: "p1"}},
		Review:      []llm.ClauseFinding{{Title: "Renewal", Summary: "s2", PlainEnglish: "p2", Reason: "short notice"}},
		Risk: []llm.ClauseFinding{
			{Title: "Liability", Summary: "s3", PlainEnglish: "p3", RiskLevel: constants.RiskHigh, Fix: "Cap liability."},
		},
		Missing:       []string{"Force majeure", "Confidentiality"},
		ValueAnalysis: "Fair.",
	}
}

func TestReportXLSX(t *testing.T) {
	b, err := ReportXLSX(sampleReport(), "lease.pdf")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	v, _ := f.GetCellValue(summarySheet, "B1")
	assert.Equal(t, "lease.pdf", v)
	v, _ = f.GetCellValue(summarySheet, "B2")
	assert.Equal(t, "58", v)
	v, _ = f.GetCellValue(summarySheet, "B7")
	assert.Equal(t, "Confidentiality", v)

	rows, err := f.GetRows(findingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Risk", "Liability", "s3", "p3", "", "High", "Cap liability."}, rows[1])
	assert.Equal(t, "Review", rows[2][0])
	assert.Equal(t, "short notice", rows[2][4])
	assert.Equal(t, "Safe", rows[3][0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("z", 5000), 2000)), 2000)
}

func TestService_ExportAuditXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close(nil)
	repo := repository.NewAuditRepository(db, nil)

	report := sampleReport()
	ok := &repository.AuditRecord{Filename: "nda.docx", Format: constants.FormatDOCX, Status: constants.AuditStatusComplete, Report: &report}
	require.NoError(t, repo.Create(ctx, ok))
	failed := &repository.AuditRecord{Filename: "scan.pdf", Status: constants.AuditStatusFailed, FailureKind: common.KindEmptyOrImageOnlyDocument}
	require.NoError(t, repo.Create(ctx, failed))

	svc := NewService(repo, nil)

	b, err := svc.ExportAuditXLSX(ctx, ok.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	_, err = svc.ExportAuditXLSX(ctx, failed.ID)
	assert.ErrorIs(t, err, ErrNoReport)
}
