// Command auditctl extracts, redacts and audits contracts from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/llm/openrouter"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

var (
	configPath string
	verbose    bool

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "auditctl",
	Short:         "Extract, redact and audit legal documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = common.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = common.NewLogger(cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(parseCmd, redactCmd, recoverCmd, auditCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("Error: %v\n", err)
		if kind := common.KindOf(err); kind != "" {
			printError("kind: %s\n", kind)
		}
		os.Exit(1)
	}
}

// printError prints to stderr, falling back to stdout if stderr fails.
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// readInput reads a file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

// newPipeline builds a pipeline with the OpenRouter analyzer and, when a DSN
// is configured, history. The returned func releases the database.
func newPipeline(ctx context.Context, needAnalyzer bool) (*pipeline.Pipeline, func(), error) {
	opts := []pipeline.Option{pipeline.WithExtractor(extract.NewExtractor(extract.Config{}, logger))}
	cleanup := func() {}

	if needAnalyzer {
		client, err := openrouter.NewClient(openrouter.ConfigFromApp(cfg.LLM), logger)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, pipeline.WithAnalyzer(client))
	}
	if cfg.HistoryEnabled() {
		db, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { db.Close(logger) }
		opts = append(opts, pipeline.WithHistory(repository.NewAuditRepository(db, logger)))
	}
	return pipeline.New(logger, opts...), cleanup, nil
}
