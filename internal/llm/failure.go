package llm

import (
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

func schemaViolation(format string, args ...any) error {
	return common.NewAppError(common.KindSchemaViolation, fmt.Sprintf(format, args...), nil)
}

// jsonKind names the JSON type of a value produced by encoding/json.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
