package roster

import (
	"strings"

	"github.com/ltessier/rostersync/core"
)

// TFP family codes. Sub-variant tokens are checked before the generic
// family code: the order of these checks is load-bearing.
const (
	classTFP      = "TFP"
	classTFPAdmin = "TFP ADMIN"
	classTFPRav   = "TFP RAV"
)

// ClassNormalizer maps free-text roster class labels to canonical short
// codes: exact mapping lookup first, then family heuristics, then a warned
// generic fallback.
type ClassNormalizer struct {
	mapping map[string]string
	log     core.Logger
}

func NewClassNormalizer(mapping map[string]string, log core.Logger) *ClassNormalizer {
	return &ClassNormalizer{mapping: mapping, log: log}
}

// Normalize returns the canonical code for label. The fallback path emits a
// warning but still returns a usable code; this never fails.
func (n *ClassNormalizer) Normalize(label string) string {
	if label == "" {
		return ""
	}

	cleaned := core.CollapseSpaces(label)
	if code, ok := n.mapping[cleaned]; ok {
		return code
	}

	upper := strings.ToUpper(cleaned)
	if strings.Contains(upper, classTFP) {
		switch {
		case strings.Contains(upper, "ADMIN"):
			return classTFPAdmin
		case strings.Contains(upper, "RAV"):
			return classTFPRav
		default:
			return classTFP
		}
	}

	// generic fallback: drop spaces, fold "è", drop the "nd" marker, upper
	fallback := strings.ReplaceAll(cleaned, " ", "")
	fallback = strings.ReplaceAll(fallback, "è", "e")
	fallback = strings.ReplaceAll(fallback, "nd", "")
	fallback = strings.ToUpper(fallback)

	if n.log != nil {
		n.log.Warn("unmapped class label, using fallback code",
			map[string]interface{}{"label": label, "code": fallback})
	}
	return fallback
}
