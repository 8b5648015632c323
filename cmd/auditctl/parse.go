package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
)

var (
	parseAnonymize   bool
	parseConcurrency int
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Extract normalized text from documents",
	Long: `Extracts text from PDF, DOCX or plain-text files and prints it.
Files are processed concurrently; output keeps argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(logger, pipeline.WithExtractor(extract.NewExtractor(extract.Config{}, logger)))

		results := make([]pipeline.PreparedText, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(parseConcurrency, 1))
		for i, name := range args {
			g.Go(func() error {
				data, err := readInput(cmd, name)
				if err != nil {
					return err
				}
				res, err := p.Prepare(ctx, extract.DocumentBlob{Data: data, Filename: filepath.Base(name)}, parseAnonymize)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, res := range results {
			if len(args) > 1 {
				fmt.Fprintf(out, "==> %s (%s) <==\n", args[i], res.Format)
			}
			fmt.Fprintln(out, res.Text)
			for _, w := range res.Warnings {
				printError("%s: warning: %s\n", args[i], w)
			}
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseAnonymize, "anonymize", false, "redact PII from the output")
	parseCmd.Flags().IntVarP(&parseConcurrency, "concurrency", "j", 4, "files extracted in parallel")
}
