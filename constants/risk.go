package constants

import (
	"strings"
)

// RiskLevel grades a clause finding in the risk category.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

var allRiskLevels = []RiskLevel{
	RiskHigh,
	RiskMedium,
	RiskLow,
}

func RiskLevelsAsStrings() []string {
	result := make([]string, len(allRiskLevels))
	for i, lvl := range allRiskLevels {
		result[i] = string(lvl)
	}
	return result
}

// CanonicalizeRiskLevel maps model spellings like "high" or "moderate" onto a RiskLevel.
func CanonicalizeRiskLevel(input string) (RiskLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	// synonyms map
	synonyms := map[string]RiskLevel{
		"critical": RiskHigh,
		"severe":   RiskHigh,
		"moderate": RiskMedium,
		"med":      RiskMedium,
		"minor":    RiskLow,
	}

	if lvl, ok := synonyms[normalized]; ok {
		return lvl, true
	}

	for _, lvl := range allRiskLevels {
		if normalized == strings.ToLower(string(lvl)) {
			return lvl, true
		}
	}

	return "", false
}
