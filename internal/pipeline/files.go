package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/export"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
)

// FileJobConfig controls where watch-mode results are written.
type FileJobConfig struct {
	OutDir    string
	Anonymize bool
	XLSX      bool // also write <name>.report.xlsx
}

// failureReport is written in place of a report when an audit fails.
type failureReport struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// FileHandler audits the file at job.Path and writes <name>.report.json to
// cfg.OutDir. Domain failures are written as {error, kind} and returned.
func (p *Pipeline) FileHandler(cfg FileJobConfig) Handler {
	return func(ctx context.Context, job Job) error {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", job.Path, err)
		}
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		name := filepath.Base(job.Path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		base := filepath.Join(cfg.OutDir, stem+".report")

		out, auditErr := p.Audit(ctx, extract.DocumentBlob{Data: data, Filename: name},
			AuditOptions{Anonymize: cfg.Anonymize, Filename: name})
		if auditErr != nil {
			kind := common.KindOf(auditErr)
			if kind == "" && (errors.Is(auditErr, context.Canceled) || errors.Is(auditErr, context.DeadlineExceeded)) {
				return auditErr
			}
			if werr := writeJSON(base+".json", failureReport{
				Error: auditErr.Error(),
				Kind:  kind,
				Raw:   common.DetailOf(auditErr),
			}); werr != nil {
				return errors.Join(auditErr, werr)
			}
			return auditErr
		}

		if err := writeJSON(base+".json", out.Result.Report); err != nil {
			return err
		}
		if cfg.XLSX {
			b, err := export.ReportXLSX(out.Result.Report, name)
			if err != nil {
				return err
			}
			if err := os.WriteFile(base+".xlsx", b, 0o644); err != nil {
				return fmt.Errorf("write xlsx: %w", err)
			}
		}
		return nil
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
