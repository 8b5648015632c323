package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

// Tier names a recovery strategy.
type Tier string

const (
	TierDirect          Tier = "direct"
	TierBraceExtraction Tier = "brace_extraction"
)

// strategy proposes the JSON candidate to decode from the raw reply.
type strategy struct {
	tier      Tier
	candidate func(raw string) (string, bool)
}

// strategies run in order; a later tier runs only when the earlier ones fail to parse.
var strategies = []strategy{
	{TierDirect, func(raw string) (string, bool) { return raw, true }},
	{TierBraceExtraction, braceSpan},
}

// braceSpan returns the text from the first '{' to the last '}' inclusive.
func braceSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// Result is a recovered report and the tier that produced it.
type Result struct {
	Report   ContractReport
	Tier     Tier
	Warnings []string
}

// Recover turns raw model output into a validated ContractReport.
//
// nil or blank content fails with EmptyModelResponse before any tier runs.
// Content no tier can parse fails with UnparseableModelOutput, carrying a
// preview of at most common.MaxPreviewRunes runes. A parsed value that
// does not validate fails with SchemaViolation; no further tier is tried.
func Recover(raw *string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			preview := ""
			if raw != nil {
				preview = *raw
			}
			res = Result{}
			err = common.NewAppErrorWithDetail(common.KindUnparseableModelOutput, "recovery failed", preview, fmt.Errorf("panic: %v", r))
		}
	}()

	if raw == nil || strings.TrimSpace(*raw) == "" {
		return Result{}, common.NewAppError(common.KindEmptyModelResponse, "AI returned empty response", nil)
	}
	text := *raw

	var lastErr error
	for _, s := range strategies {
		candidate, ok := s.candidate(text)
		if !ok {
			continue
		}
		doc, err := decodeCandidate(candidate)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", s.tier, err)
			continue
		}
		report, warnings, err := ValidateReport(doc)
		if err != nil {
			return Result{Tier: s.tier}, err
		}
		return Result{Report: report, Tier: s.tier, Warnings: warnings}, nil
	}

	return Result{}, common.NewAppErrorWithDetail(common.KindUnparseableModelOutput,
		"AI response was not valid JSON", text, lastErr)
}

// decodeCandidate parses exactly one JSON value. Numbers stay json.Number so
// magnitudes beyond float64 reach the validator instead of failing here.
func decodeCandidate(candidate string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}

// RecoverString is Recover for callers holding a plain string.
func RecoverString(raw string) (Result, error) {
	return Recover(&raw)
}
