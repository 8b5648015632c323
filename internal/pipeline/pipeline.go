// Package pipeline wires extraction, redaction, the model call and recovery
// into a single audit.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
	"github.com/joseph-ayodele/contract-auditor/internal/redact"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

// ErrNoAnalyzer is returned by Analyze and Audit when no model collaborator is configured.
var ErrNoAnalyzer = errors.New("no analyzer configured")

type Pipeline struct {
	logger     *slog.Logger
	extractor  *extract.Extractor
	anonymizer *redact.Anonymizer
	analyzer   llm.Analyzer
	history    repository.AuditRepository
}

type Option func(*Pipeline)

func WithExtractor(x *extract.Extractor) Option {
	return func(p *Pipeline) {
		if x != nil {
			p.extractor = x
		}
	}
}

func WithAnonymizer(a *redact.Anonymizer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.anonymizer = a
		}
	}
}

func WithAnalyzer(a llm.Analyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithHistory records every audit outcome. Nil disables history.
func WithHistory(repo repository.AuditRepository) Option {
	return func(p *Pipeline) { p.history = repo }
}

func New(logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger}
	for _, o := range opts {
		o(p)
	}
	if p.extractor == nil {
		p.extractor = extract.NewExtractor(extract.Config{}, logger)
	}
	if p.anonymizer == nil {
		p.anonymizer = redact.New()
	}
	return p
}

// PreparedText is extracted text, optionally redacted.
type PreparedText struct {
	extract.ExtractedText
	Redacted   bool
	Redactions map[redact.Kind]int
}

type AuditOptions struct {
	Anonymize bool
	Filename  string // recorded in history only
}

// AuditOutcome is the result of a full audit. ID is uuid.Nil when history is disabled.
type AuditOutcome struct {
	ID       uuid.UUID
	Prepared PreparedText
	Result   llm.Result
}

// Prepare sniffs, extracts, normalizes and optionally redacts a document.
func (p *Pipeline) Prepare(ctx context.Context, blob extract.DocumentBlob, anonymize bool) (PreparedText, error) {
	res, err := p.extractor.Extract(ctx, blob)
	if err != nil {
		return PreparedText{ExtractedText: res}, err
	}
	return p.redact(ctx, res, anonymize), nil
}

func (p *Pipeline) redact(ctx context.Context, res extract.ExtractedText, anonymize bool) PreparedText {
	out := PreparedText{ExtractedText: res}
	if !anonymize {
		return out
	}
	r := p.anonymizer.Redact(res.Text)
	out.Text = r.Text
	out.Redacted = true
	out.Redactions = r.Counts
	common.LoggerFromContext(ctx, p.logger).Info("pipeline.redact.ok", "total", r.Total(), "counts", r.Counts)
	return out
}

// Analyze sends text to the model and recovers a report from the reply.
func (p *Pipeline) Analyze(ctx context.Context, text string) (llm.Result, error) {
	if p.analyzer == nil {
		return llm.Result{}, ErrNoAnalyzer
	}
	logger := common.LoggerFromContext(ctx, p.logger)
	start := time.Now()

	content, err := p.analyzer.Complete(ctx, text)
	if err != nil {
		return llm.Result{}, err
	}
	res, err := llm.Recover(content)
	if err != nil {
		logger.Warn("pipeline.recover.failed", "kind", common.KindOf(err), "tier", res.Tier, "error", err)
		return res, err
	}
	if len(res.Warnings) > 0 {
		logger.Warn("pipeline.recover.repaired", "tier", res.Tier, "warnings", res.Warnings)
	}
	logger.Info("pipeline.recover.ok",
		"tier", res.Tier,
		"health_score", res.Report.HealthScore,
		"findings", res.Report.FindingCount(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Audit runs the whole pipeline over a document.
func (p *Pipeline) Audit(ctx context.Context, blob extract.DocumentBlob, opts AuditOptions) (AuditOutcome, error) {
	if opts.Filename == "" {
		opts.Filename = blob.Filename
	}
	prepared, err := p.Prepare(ctx, blob, opts.Anonymize)
	if err != nil {
		out := AuditOutcome{Prepared: prepared}
		out.ID = p.record(ctx, opts, out, err)
		return out, err
	}
	return p.analyzePrepared(ctx, prepared, opts)
}

// AuditText audits text that was already extracted, e.g. by a client that called Prepare earlier.
func (p *Pipeline) AuditText(ctx context.Context, text string, opts AuditOptions) (AuditOutcome, error) {
	res := extract.ExtractedText{Text: extract.Normalize(text), Format: constants.FormatPlain}
	return p.analyzePrepared(ctx, p.redact(ctx, res, opts.Anonymize), opts)
}

func (p *Pipeline) analyzePrepared(ctx context.Context, prepared PreparedText, opts AuditOptions) (AuditOutcome, error) {
	out := AuditOutcome{Prepared: prepared}
	if prepared.Text == "" {
		err := common.NewAppError(common.KindInvalidInput, "document contains no text", common.ErrInvalidInput)
		return out, err
	}
	res, err := p.Analyze(ctx, prepared.Text)
	out.Result = res
	if errors.Is(err, ErrNoAnalyzer) {
		return out, err
	}
	out.ID = p.record(ctx, opts, out, err)
	return out, err
}

// record stores the outcome when history is enabled. History failures are
// logged and never fail the audit.
func (p *Pipeline) record(ctx context.Context, opts AuditOptions, out AuditOutcome, auditErr error) uuid.UUID {
	if p.history == nil {
		return uuid.Nil
	}
	kind := common.KindOf(auditErr)
	if auditErr != nil && kind == "" {
		// cancellations and other non-domain errors are not audit outcomes
		return uuid.Nil
	}

	rec := &repository.AuditRecord{
		Filename:     opts.Filename,
		Format:       out.Prepared.Format,
		Redacted:     out.Prepared.Redacted,
		TextChars:    len([]rune(out.Prepared.Text)),
		RecoveryTier: string(out.Result.Tier),
	}
	for _, n := range out.Prepared.Redactions {
		rec.RedactionCount += n
	}
	if auditErr != nil {
		rec.Status = constants.AuditStatusFailed
		rec.FailureKind = kind
	} else {
		report := out.Result.Report
		score := report.HealthScore
		rec.Status = constants.AuditStatusComplete
		rec.HealthScore = &score
		rec.Report = &report
	}

	if err := p.history.Create(ctx, rec); err != nil {
		common.LoggerFromContext(ctx, p.logger).Error("pipeline.history.failed", "error", err)
		return uuid.Nil
	}
	return rec.ID
}
