package plans

import (
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"innovation-backend/internal/strategy"
)

// planDiff renders both plans as YAML and returns a unified diff from
// stored to proposed. Identical plans yield an empty string.
func planDiff(stored, proposed strategy.Plan) string {
	a, err := yaml.Marshal(stored)
	if err != nil {
		return ""
	}
	b, err := yaml.Marshal(proposed)
	if err != nil {
		return ""
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "stored",
		ToFile:   "proposed",
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return text
}
