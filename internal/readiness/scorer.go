package readiness

import (
	"math"

	"innovation-backend/internal/strategy"
)

// Level is a named readiness band.
type Level struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Threshold int    `json:"threshold"`
}

// levels is ordered by descending threshold; the first match wins.
var levels = []Level{
	{Key: "excellent", Label: "Excellent", Threshold: 90},
	{Key: "good", Label: "Good", Threshold: 75},
	{Key: "fair", Label: "Fair", Threshold: 60},
	{Key: "needs_work", Label: "Needs Work", Threshold: 40},
	{Key: "critical", Label: "Critical", Threshold: 0},
}

// LevelFor maps a 0-100 score onto its readiness band.
func LevelFor(score int) Level {
	for _, l := range levels {
		if score >= l.Threshold {
			return l
		}
	}
	return levels[len(levels)-1]
}

// SectionResult is the verdict for one catalog section.
type SectionResult struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Weight      int    `json:"weight"`
	Step        int    `json:"step"`
	Requirement string `json:"requirement"`
	Complete    bool   `json:"complete"`
}

// Result is the weighted completeness outcome for a plan.
type Result struct {
	Score          int             `json:"score"`
	CompletedCount int             `json:"completedCount"`
	TotalCount     int             `json:"totalCount"`
	Level          Level           `json:"level"`
	Sections       []SectionResult `json:"sections"`
}

// Missing returns the keys of incomplete sections in catalog order.
func (r Result) Missing() []string {
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		if !s.Complete {
			out = append(out, s.Key)
		}
	}
	return out
}

// Score evaluates every catalog section against the plan and returns the
// weighted readiness score. It never fails.
func Score(p strategy.Plan) Result {
	return ScoreWith(catalog, p)
}

// ScoreWith scores a plan against an explicit catalog.
func ScoreWith(defs []SectionDefinition, p strategy.Plan) Result {
	p = p.Normalize()

	res := Result{
		TotalCount: len(defs),
		Sections:   make([]SectionResult, 0, len(defs)),
	}
	totalWeight := 0
	earned := 0
	for i, def := range defs {
		done := def.Complete(p)
		totalWeight += def.Weight
		if done {
			earned += def.Weight
			res.CompletedCount++
		}
		res.Sections = append(res.Sections, SectionResult{
			Key:         def.Key,
			Title:       def.Title,
			Weight:      def.Weight,
			Step:        i + 1,
			Requirement: def.Requirement,
			Complete:    done,
		})
	}
	if totalWeight > 0 {
		res.Score = percent(earned, totalWeight)
	}
	res.Level = LevelFor(res.Score)
	return res
}

// percent returns round(100 * num / den); den must be positive.
func percent(num, den int) int {
	return int(math.Round(100 * float64(num) / float64(den)))
}
