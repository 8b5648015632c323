// Package extract turns uploaded documents into normalized plain text.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/ingest"
)

// DocumentBlob is an uploaded document. It is never persisted.
type DocumentBlob struct {
	Data      []byte
	MediaType string
	Filename  string
}

// ExtractedText is normalized text: no carriage returns, no more than two
// consecutive newlines, no surrounding whitespace.
type ExtractedText struct {
	Text     string
	Format   constants.Format
	Pages    int
	Duration time.Duration
	Warnings []string
}

type Config struct {
	MaxPages         int   // 0 = no limit
	MaxDocxBodyBytes int64 // decompressed word/document.xml limit, default 64 MiB
}

type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxDocxBodyBytes <= 0 {
		cfg.MaxDocxBodyBytes = 64 << 20
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract sniffs the blob's format and runs the matching extractor.
func (e *Extractor) Extract(ctx context.Context, blob DocumentBlob) (ExtractedText, error) {
	start := time.Now()
	format := ingest.Sniff(blob.MediaType, blob.Filename)
	logger := common.LoggerFromContext(ctx, e.logger)
	logger.Debug("starting text extraction", "format", format, "bytes", len(blob.Data))

	var (
		res ExtractedText
		err error
	)
	switch format {
	case constants.FormatPDF:
		res, err = e.PDF(ctx, blob.Data)
	case constants.FormatDOCX:
		res, err = e.Docx(ctx, blob.Data)
	default:
		res = e.Plain(blob.Data)
	}

	if msg := ingest.ContentMismatch(format, blob.Data); msg != "" {
		logger.Warn("extract.content_mismatch", "format", format, "detail", msg)
		res.Warnings = append(res.Warnings, msg)
	}
	res.Duration = time.Since(start)
	if err != nil {
		logger.Info("extract.failed", "format", format, "kind", common.KindOf(err), "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	logger.Info("extract.done", "format", format, "pages", res.Pages, "chars", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func malformed(format constants.Format, msg string, cause error) error {
	return common.NewAppError(common.KindMalformedDocument, fmt.Sprintf("%s: %s", format, msg), cause)
}
