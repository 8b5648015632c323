package llm

import (
	"context"

	"github.com/joseph-ayodele/contract-auditor/constants"
)

// ClauseFinding is one clause the model classified as safe, needing review, or risky.
type ClauseFinding struct {
	Title        string              `json:"title"`
	Summary      string              `json:"summary"`      // legal summary
	PlainEnglish string              `json:"plainEnglish"` // lay explanation
	Reason       string              `json:"reason,omitempty"`
	RiskLevel    constants.RiskLevel `json:"riskLevel,omitempty"` // risk findings only
	Fix          string              `json:"fix,omitempty"`       // suggested counter-clause
}

// ContractReport is the validated shape we return to callers.
type ContractReport struct {
	HealthScore   int             `json:"healthScore"` // 0..100
	Safe          []ClauseFinding `json:"safe"`
	Review        []ClauseFinding `json:"review"`
	Risk          []ClauseFinding `json:"risk"`
	Missing       []string        `json:"missing"`
	ValueAnalysis string          `json:"valueAnalysis,omitempty"`
}

// FindingCount returns the number of findings across all three categories.
func (r ContractReport) FindingCount() int {
	return len(r.Safe) + len(r.Review) + len(r.Risk)
}

// Analyzer is the model-call collaborator. Complete returns the raw content of
// the model's reply, or nil when the reply carried no content at all.
type Analyzer interface {
	Complete(ctx context.Context, contractText string) (*string, error)
}
