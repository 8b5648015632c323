package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contract-auditor/constants"
	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

var (
	categories    = []string{"safe", "review", "risk"}
	findingFields = []string{"title", "summary", "plainEnglish", "reason", "riskLevel", "fix"}
	reportFields  = []string{"healthScore", "safe", "review", "risk", "missing", "valueAnalysis"}
)

// ValidateReport turns a decoded JSON document into a ContractReport.
//
//   - healthScore must be a number or numeric string; it is rounded and clamped to 0..100
//   - safe, review and risk default to empty when missing or null
//   - riskLevel spellings are canonicalized; unknown levels are dropped
//   - unknown keys and null optionals are dropped
//
// Whatever survives must then match BuildReportJSONSchema. Any failure is a
// SchemaViolation. The returned warnings describe every silent repair.
func ValidateReport(doc any) (ContractReport, []string, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return ContractReport{}, nil, schemaViolation("top-level value is %s, want object", jsonKind(doc))
	}

	var warnings []string
	out := make(map[string]any, len(reportFields))

	raw, present := m["healthScore"]
	score, note, err := coerceHealthScore(raw, present)
	if err != nil {
		return ContractReport{}, nil, err
	}
	if note != "" {
		warnings = append(warnings, note)
	}
	out["healthScore"] = score

	for _, cat := range categories {
		v, present := m[cat]
		switch t := v.(type) {
		case nil:
			if present {
				warnings = append(warnings, cat+"(null)")
			} else {
				warnings = append(warnings, cat+"(missing)")
			}
			out[cat] = []any{}
		case []any:
			items := make([]any, 0, len(t))
			for i, item := range t {
				f, ok := item.(map[string]any)
				if !ok {
					return ContractReport{}, nil, schemaViolation("%s[%d] is %s, want object", cat, i, jsonKind(item))
				}
				items = append(items, sanitizeFinding(cat, i, f, &warnings))
			}
			out[cat] = items
		default:
			return ContractReport{}, nil, schemaViolation("%s is %s, want array", cat, jsonKind(v))
		}
	}

	for _, k := range []string{"missing", "valueAnalysis"} {
		if v, ok := m[k]; ok {
			if v == nil {
				warnings = append(warnings, k+"(null)")
				continue
			}
			out[k] = v
		}
	}

	var unknown []string
	for k := range m {
		if !slices.Contains(reportFields, k) {
			unknown = append(unknown, k+"(unknown)")
		}
	}
	slices.Sort(unknown)
	warnings = append(warnings, unknown...)

	b, err := json.Marshal(out)
	if err != nil {
		return ContractReport{}, nil, common.NewAppError(common.KindSchemaViolation, "re-encode report", err)
	}
	schema, err := reportSchema()
	if err != nil {
		return ContractReport{}, nil, fmt.Errorf("report schema: %w", err)
	}
	if err := validateWith(schema, b); err != nil {
		return ContractReport{}, nil, common.NewAppError(common.KindSchemaViolation, "report does not match schema", err)
	}

	var report ContractReport
	if err := json.Unmarshal(b, &report); err != nil {
		return ContractReport{}, nil, common.NewAppError(common.KindSchemaViolation, "decode report", err)
	}
	return report, warnings, nil
}

// coerceHealthScore accepts JSON numbers and numeric strings. Magnitudes
// beyond float64 range clamp like any other out-of-range score.
func coerceHealthScore(v any, present bool) (int, string, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		if !present {
			return 0, "", schemaViolation("healthScore is required")
		}
		return 0, "", schemaViolation("healthScore is null, want number")
	case float64:
		f = t
	case json.Number:
		parsed, err := parseScore(t.String())
		if err != nil {
			return 0, "", schemaViolation("healthScore %s: %v", common.Preview(t.String(), 40), err)
		}
		f = parsed
	case string:
		parsed, err := parseScore(strings.TrimSpace(t))
		if err != nil {
			return 0, "", schemaViolation("healthScore %q: %v", common.Preview(t, 40), err)
		}
		f = parsed
	default:
		return 0, "", schemaViolation("healthScore is %s, want number", jsonKind(v))
	}
	if math.IsNaN(f) {
		return 0, "", schemaViolation("healthScore is not finite")
	}

	clamped := math.Min(100, math.Max(0, math.Round(f)))
	var note string
	if clamped != f {
		note = fmt.Sprintf("healthScore(%v->%d)", v, int(clamped))
	}
	return int(clamped), note, nil
}

var (
	errNotNumeric = errors.New("not numeric")
	errNotFinite  = errors.New("not finite")
)

// parseScore parses a decimal score. A literal too large for float64 comes
// back as ±Inf so it clamps; spelled-out "Inf" and "NaN" are rejected.
func parseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return f, nil
	}
	if err != nil {
		return 0, errNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// sanitizeFinding keeps known keys, drops nulls and canonicalizes riskLevel.
// Type errors in the remaining fields are left for the schema to report.
func sanitizeFinding(cat string, i int, f map[string]any, warnings *[]string) map[string]any {
	at := fmt.Sprintf("%s[%d]", cat, i)
	out := make(map[string]any, len(findingFields))
	for k, v := range f {
		if !slices.Contains(findingFields, k) {
			*warnings = append(*warnings, at+"."+k+"(unknown)")
			continue
		}
		if v == nil {
			*warnings = append(*warnings, at+"."+k+"(null)")
			continue
		}
		out[k] = v
	}

	if v, ok := out["riskLevel"]; ok {
		s, _ := v.(string)
		if lvl, ok := constants.CanonicalizeRiskLevel(s); ok {
			out["riskLevel"] = string(lvl)
		} else {
			delete(out, "riskLevel")
			*warnings = append(*warnings, fmt.Sprintf("%s.riskLevel(%v)", at, v))
		}
	}
	if _, ok := out["riskLevel"]; !ok && cat == "risk" {
		*warnings = append(*warnings, at+".riskLevel(missing)")
	}
	return out
}
