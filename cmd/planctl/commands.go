package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"innovation-backend/internal/coverage"
	"innovation-backend/internal/readiness"
	"innovation-backend/internal/strategy"
)

// errBlocked marks a plan that fails the submission gate.
var errBlocked = errors.New("plan is not ready for submission")

type scoreReport struct {
	Name      string                   `json:"name"`
	Readiness readiness.Result         `json:"readiness"`
	Quality   readiness.QualityMetrics `json:"quality"`
}

func newScoreReport(p strategy.Plan) scoreReport {
	return scoreReport{
		Name:      p.Name,
		Readiness: readiness.Score(p),
		Quality:   readiness.Quality(p),
	}
}

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score <plan.yaml|plan.json>",
		Short: "Print the readiness score and quality metrics of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			return writeScore(cmd.OutOrStdout(), opts.output, newScoreReport(p))
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.yaml|plan.json>",
		Short: "Run the submission gate; exits non-zero when critical issues remain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			v := readiness.Validate(p)
			if err := writeValidation(cmd.OutOrStdout(), opts.output, v); err != nil {
				return err
			}
			if !v.CanSubmit {
				return fmt.Errorf("%w: %d critical issue(s)", errBlocked, v.CriticalCount)
			}
			return nil
		},
	}
}

func newCoverageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage <templates.yaml|templates.json>",
		Short: "Report taxonomy coverage of a template library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(opts.catalog)
			if err != nil {
				return err
			}
			ts, err := loadTemplates(args[0])
			if err != nil {
				return err
			}
			return writeCoverage(cmd.OutOrStdout(), opts.output, coverage.Analyze(cat, ts))
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <plan.yaml|plan.json>",
		Short: "Re-score a plan every time the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return watchPlan(cmd.Context(), args[0], debounce, func(r scoreReport, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", args[0], err)
					return
				}
				if err := writeScore(out, opts.output, r); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "write: %v\n", err)
				}
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before re-scoring")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeScore(w io.Writer, output string, r scoreReport) error {
	if output == outputJSON {
		return writeJSON(w, r)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Plan\t%s\n", r.Name)
	fmt.Fprintf(tw, "Readiness\t%d%% (%s)\n", r.Readiness.Score, r.Readiness.Level.Label)
	fmt.Fprintf(tw, "Sections\t%d/%d complete\n", r.Readiness.CompletedCount, r.Readiness.TotalCount)
	fmt.Fprintf(tw, "Quality\t%d%%\n", r.Quality.OverallQuality)
	if missing := r.Readiness.Missing(); len(missing) > 0 {
		fmt.Fprintf(tw, "Missing\t%s\n", strings.Join(missing, ", "))
	}
	return tw.Flush()
}

func writeValidation(w io.Writer, output string, v readiness.Validation) error {
	if output == outputJSON {
		return writeJSON(w, v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Score\t%d%%\n", v.Score)
	fmt.Fprintf(tw, "Can submit\t%t\n", v.CanSubmit)
	for _, issue := range v.Issues {
		fmt.Fprintf(tw, "%s\tstep %d\t%s\t%s\n", strings.ToUpper(issue.Severity), issue.Step, issue.Code, issue.Message)
	}
	return tw.Flush()
}

func writeCoverage(w io.Writer, output string, r coverage.Result) error {
	if output == outputJSON {
		return writeJSON(w, r)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Overall\t%d%%\n", r.OverallScore)
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%s\t%d/%d\n", c.Category, c.Covered, c.Total)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(tw, "gap\t%s\t%s\n", rec.Category, rec.GapName)
	}
	return tw.Flush()
}
