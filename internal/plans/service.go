package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"innovation-backend/internal/planitems"
	"innovation-backend/internal/readiness"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/telemetry"
	"innovation-backend/internal/strategy"
)

const (
	maxListLimit    = 50
	dashboardLimit  = 200
	dashboardFanout = 4
)

// Service contains business logic for strategic plans.
type Service struct {
	Repo  *Repo
	Items *planitems.Stores
	Now   func() time.Time
}

// CreateInput is a new plan.
type CreateInput struct {
	Plan       strategy.Plan
	TemplateID string
}

// Evaluation bundles every score computed for one plan.
type Evaluation struct {
	Readiness  readiness.Result         `json:"readiness"`
	Quality    readiness.QualityMetrics `json:"quality"`
	Validation readiness.Validation     `json:"validation"`
}

// DashboardEntry summarises one plan for the caller's dashboard.
type DashboardEntry struct {
	Record  Record
	Score   int
	Level   readiness.Level
	Quality int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Evaluate scores a plan draft without touching storage.
func Evaluate(p strategy.Plan) Evaluation {
	metrics.IncReadinessEvaluations()
	return Evaluation{
		Readiness:  readiness.Score(p),
		Quality:    readiness.Quality(p),
		Validation: readiness.Validate(p),
	}
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, in CreateInput) (Record, error) {
	if err := caller.RequireUser(); err != nil {
		return Record{}, err
	}
	if err := checkPlan(in.Plan); err != nil {
		return Record{}, err
	}
	rec, err := s.Repo.Create(ctx, Record{
		OwnerID:    caller.UserID,
		Status:     StatusDraft,
		TemplateID: strings.TrimSpace(in.TemplateID),
		Plan:       in.Plan,
	})
	if err != nil {
		logFailure("create", "", err)
		return Record{}, err
	}
	metrics.IncPlanSaves()
	telemetry.Info("plans.created", map[string]any{"plan_id": rec.ID, "user_id": caller.UserID})
	return rec, nil
}

// Get returns the caller's plan document as stored.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (Record, error) {
	if err := caller.RequireUser(); err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logFailure("get", id, err)
		}
		return Record{}, err
	}
	if !caller.Owns(rec.OwnerID) {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// List returns the caller's plans, newest first.
func (s *Service) List(ctx context.Context, caller auth.Caller, limit, offset int) ([]Record, error) {
	if err := caller.RequireUser(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	recs, err := s.Repo.ListByOwner(ctx, caller.UserID, limit, offset)
	if err != nil {
		logFailure("list", "", err)
		return nil, err
	}
	return recs, nil
}

// Update replaces the plan document when version matches the stored one.
// A stale version returns *ConflictError with a diff against the stored plan.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id string, version int64, p strategy.Plan) (Record, error) {
	if err := caller.RequireUser(); err != nil {
		return Record{}, err
	}
	if version <= 0 {
		return Record{}, ErrInvalidInput
	}
	if err := checkPlan(p); err != nil {
		return Record{}, err
	}
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return Record{}, err
	}
	if current.Status != StatusDraft {
		return Record{}, ErrNotEditable
	}
	next := current
	next.Plan = p
	return s.save(ctx, next, version)
}

func (s *Service) Delete(ctx context.Context, caller auth.Caller, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			logFailure("delete", id, err)
		}
		return err
	}
	return nil
}

// Assemble returns the plan with its persisted child collections merged in.
func (s *Service) Assemble(ctx context.Context, caller auth.Caller, id string) (Record, error) {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return Record{}, err
	}
	return s.assemble(ctx, rec)
}

func (s *Service) assemble(ctx context.Context, rec Record) (Record, error) {
	if s.Items == nil {
		return rec, nil
	}
	cols, err := s.Items.Load(ctx, rec.ID)
	if err != nil {
		logFailure("assemble", rec.ID, err)
		return Record{}, err
	}
	rec.Plan = cols.Merge(rec.Plan)
	return rec, nil
}

// Evaluate scores the assembled plan.
func (s *Service) Evaluate(ctx context.Context, caller auth.Caller, id string) (Evaluation, error) {
	rec, err := s.Assemble(ctx, caller, id)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluate(rec.Plan), nil
}

// Submit runs the submission gate and moves a draft to pending approval.
func (s *Service) Submit(ctx context.Context, caller auth.Caller, id string, version int64) (Record, readiness.Validation, error) {
	if version <= 0 {
		return Record{}, readiness.Validation{}, ErrInvalidInput
	}
	rec, err := s.Assemble(ctx, caller, id)
	if err != nil {
		return Record{}, readiness.Validation{}, err
	}
	if rec.Status != StatusDraft {
		return Record{}, readiness.Validation{}, ErrInvalidStatus
	}
	validation := Evaluate(rec.Plan).Validation
	if !validation.CanSubmit {
		return Record{}, validation, &GateError{Validation: validation}
	}

	stored, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Record{}, validation, err
	}
	stored.Status = StatusPendingApproval
	at := s.now()
	stored.SubmittedAt = &at
	saved, err := s.save(ctx, stored, version)
	if err != nil {
		return Record{}, validation, err
	}
	telemetry.Info("plans.submitted", map[string]any{"plan_id": id, "user_id": caller.UserID, "score": validation.Score})
	return saved, validation, nil
}

// Transition applies a manual status change.
func (s *Service) Transition(ctx context.Context, caller auth.Caller, id string, version int64, next Status) (Record, error) {
	if !next.Valid() || version <= 0 {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Status.CanTransition(next) {
		return Record{}, ErrInvalidStatus
	}
	rec.Status = next
	if next == StatusDraft {
		rec.SubmittedAt = nil
	}
	return s.save(ctx, rec, version)
}

// Dashboard scores each of the caller's plans.
func (s *Service) Dashboard(ctx context.Context, caller auth.Caller) ([]DashboardEntry, error) {
	if err := caller.RequireUser(); err != nil {
		return nil, err
	}
	recs, err := s.Repo.ListByOwner(ctx, caller.UserID, dashboardLimit, 0)
	if err != nil {
		logFailure("dashboard", "", err)
		return nil, err
	}
	out := make([]DashboardEntry, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardFanout)
	for i, rec := range recs {
		g.Go(func() error {
			full, err := s.assemble(gctx, rec)
			if err != nil {
				return err
			}
			result := readiness.Score(full.Plan)
			metrics.IncReadinessEvaluations()
			out[i] = DashboardEntry{
				Record:  full,
				Score:   result.Score,
				Level:   result.Level,
				Quality: readiness.Quality(full.Plan).OverallQuality,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, rec Record, version int64) (Record, error) {
	saved, err := s.Repo.Update(ctx, rec, version)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.IncPlanSaveConflicts()
			conflict.Diff = planDiff(conflict.Current.Plan, rec.Plan)
			telemetry.Warn("plans.version_conflict", map[string]any{
				"plan_id":         rec.ID,
				"expected":        version,
				"current_version": conflict.Current.Version,
			})
			return Record{}, conflict
		}
		if !errors.Is(err, ErrNotFound) {
			logFailure("update", rec.ID, err)
		}
		return Record{}, err
	}
	metrics.IncPlanSaves()
	return saved, nil
}

func checkPlan(p strategy.Plan) error {
	if !strategy.HasText(p.Name) {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

func logFailure(op, planID string, err error) {
	fields := map[string]any{"op": op, "error": err.Error()}
	if planID != "" {
		fields["plan_id"] = planID
	}
	telemetry.Error("plans.backend_failed", fields)
}
