package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-auditor/internal/export"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
)

var (
	auditAnonymize bool
	auditXLSX      string
)

var auditCmd = &cobra.Command{
	Use:   "audit <file>",
	Short: "Run the full audit on one document and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		anonymize := cfg.Redact.Default
		if cmd.Flags().Changed("anonymize") {
			anonymize = auditAnonymize
		}

		p, cleanup, err := newPipeline(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer cleanup()

		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		name := filepath.Base(args[0])
		out, err := p.Audit(cmd.Context(), extract.DocumentBlob{Data: data, Filename: name},
			pipeline.AuditOptions{Anonymize: anonymize})
		if err != nil {
			return err
		}
		if out.ID != uuid.Nil {
			logger.Info("audit.recorded", "audit_id", out.ID)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Result.Report); err != nil {
			return err
		}

		if auditXLSX != "" {
			b, err := export.ReportXLSX(out.Result.Report, name)
			if err != nil {
				return err
			}
			if err := os.WriteFile(auditXLSX, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", auditXLSX, err)
			}
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVar(&auditAnonymize, "anonymize", false, "redact PII before the model call (default from ANONYMIZE_DEFAULT)")
	auditCmd.Flags().StringVar(&auditXLSX, "xlsx", "", "also write the report to this XLSX file")
}
