package llm

import (
	"github.com/joseph-ayodele/contract-auditor/constants"
)

// BuildReportJSONSchema returns the JSON-Schema (draft 2020-12 subset) a
// ContractReport must satisfy after coercion.
func BuildReportJSONSchema() map[string]any {
	findings := map[string]any{
		"type":  "array",
		"items": findingSchema(),
	}
	props := map[string]any{
		"healthScore": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"safe":        findings,
		"review":      findings,
		"risk":        findings,
		"missing": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"valueAnalysis": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"healthScore", "safe", "review", "risk"},
	}
}

func findingSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"summary":      map[string]any{"type": "string"},
			"plainEnglish": map[string]any{"type": "string"},
			"reason":       map[string]any{"type": "string"},
			"riskLevel":    map[string]any{"type": "string", "enum": constants.RiskLevelsAsStrings()},
			"fix":          map[string]any{"type": "string"},
		},
		"required": []string{"title", "summary", "plainEnglish"},
	}
}
