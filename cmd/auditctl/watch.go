package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-auditor/internal/ingest"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
)

var (
	watchOut      string
	watchWorkers  int
	watchXLSX     bool
	watchTimeout  time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Audit every contract dropped into a directory",
	Long: `Watches a directory tree and audits new or modified .pdf, .docx, .txt
and .md files. Each result is written to <out>/<name>.report.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, cleanup, err := newPipeline(ctx, true)
		if err != nil {
			return err
		}
		defer cleanup()

		handler := p.FileHandler(pipeline.FileJobConfig{
			OutDir:    watchOut,
			Anonymize: cfg.Redact.Default,
			XLSX:      watchXLSX,
		})
		q := pipeline.NewQueue(handler, logger,
			pipeline.WithWorkers(watchWorkers),
			pipeline.WithProcessTimeout(watchTimeout),
		)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			q.Shutdown(shutdownCtx)
		}()

		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{args[0]},
			InitialScan: watchExisting,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		logger.Info("watch.started", "dir", args[0], "out", watchOut, "workers", watchWorkers)

		for {
			select {
			case path, ok := <-paths:
				if !ok {
					return nil
				}
				if err := q.Enqueue(ctx, pipeline.Job{Path: path}); err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watch.error", "error", err)
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "reports", "directory for report files")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 2, "concurrent audits")
	watchCmd.Flags().BoolVar(&watchXLSX, "xlsx", false, "also write an XLSX per report")
	watchCmd.Flags().DurationVar(&watchTimeout, "job-timeout", 3*time.Minute, "per-document timeout")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", true, "audit files already in the directory")
}
