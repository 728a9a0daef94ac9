package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"innovation-backend/internal/readiness"
	"innovation-backend/internal/strategy"
)

// Kind names one collaborator task.
type Kind string

const (
	KindAnalyze    Kind = "analyze"
	KindEnhance    Kind = "enhance"
	KindCurriculum Kind = "curriculum"
)

// ParseKind accepts the task names used in request paths.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindAnalyze, KindEnhance, KindCurriculum:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Options are the caller-supplied hints for a task.
type Options struct {
	// Section limits enhance to one plan section, e.g. "vision".
	Section  string `json:"section"`
	Language string `json:"language"`
	Notes    string `json:"notes"`
}

var stringArray = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

var schemas = map[Kind]map[string]any{
	KindAnalyze: {
		"type": "object",
		"properties": map[string]any{
			"summary":         map[string]any{"type": "string"},
			"strengths":       stringArray,
			"weaknesses":      stringArray,
			"recommendations": stringArray,
		},
		"required": []string{"summary", "strengths", "weaknesses", "recommendations"},
	},
	KindEnhance: {
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field":     map[string]any{"type": "string"},
						"original":  map[string]any{"type": "string"},
						"improved":  map[string]any{"type": "string"},
						"rationale": map[string]any{"type": "string"},
					},
					"required": []string{"field", "improved"},
				},
			},
		},
		"required": []string{"suggestions"},
	},
	KindCurriculum: {
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"modules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":          map[string]any{"type": "string"},
						"objectives":     stringArray,
						"duration_hours": map[string]any{"type": "number"},
						"audience":       map[string]any{"type": "string"},
					},
					"required": []string{"title", "objectives"},
				},
			},
		},
		"required": []string{"title", "modules"},
	},
}

// Schema returns the response schema for k.
func Schema(k Kind) map[string]any {
	return schemas[k]
}

// BuildPrompt renders the prompt for k over the assembled plan.
func BuildPrompt(k Kind, p strategy.Plan, opts Options) (string, error) {
	p = p.Normalize()
	planJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an adviser to a municipal innovation office reviewing a strategic plan.\n")
	b.WriteString("Answer with a single JSON object that matches the requested schema.\n")
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		fmt.Fprintf(&b, "Write all text in %s.\n", lang)
	}
	b.WriteString("\n")

	switch k {
	case KindAnalyze:
		r := readiness.Score(p)
		q := readiness.Quality(p)
		fmt.Fprintf(&b, "Readiness score: %d (%s). Overall quality: %d.\n", r.Score, r.Level.Label, q.OverallQuality)
		if missing := r.Missing(); len(missing) > 0 {
			fmt.Fprintf(&b, "Incomplete sections: %s.\n", strings.Join(missing, ", "))
		}
		b.WriteString("Assess the plan. List its strengths, its weaknesses and concrete recommendations.\n")
	case KindEnhance:
		section := strings.TrimSpace(opts.Section)
		if section == "" {
			section = "vision, mission and objectives"
		}
		fmt.Fprintf(&b, "Improve the wording of the plan's %s. Keep the meaning; make each statement specific and measurable.\n", section)
	case KindCurriculum:
		b.WriteString("Draft a staff training curriculum that builds the skills needed to deliver the plan's objectives and action plans.\n")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if notes := strings.TrimSpace(opts.Notes); notes != "" {
		fmt.Fprintf(&b, "Additional notes from the author: %s\n", notes)
	}
	b.WriteString("\nPlan:\n")
	b.Write(planJSON)
	b.WriteString("\n")
	return b.String(), nil
}
