package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innovation-backend/internal/plans"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/telemetry"
)

var (
	ErrUnknownKind  = errors.New("unknown AI task")
	ErrPlanNotFound = errors.New("plan not found")
	ErrForbidden    = errors.New("forbidden")
	ErrFailed       = errors.New("AI collaborator failed")
)

// PlanSource loads the assembled plan a task runs over.
type PlanSource interface {
	Assemble(ctx context.Context, caller auth.Caller, id string) (plans.Record, error)
}

// Service runs collaborator tasks for signed-in plan owners.
type Service struct {
	Client Client
	Plans  PlanSource
}

// Run invokes the collaborator once for kind over the caller's plan.
func (s *Service) Run(ctx context.Context, caller auth.Caller, planID string, kind Kind, opts Options) (Result, error) {
	if err := caller.RequireUser(); err != nil {
		return Result{}, err
	}
	rec, err := s.Plans.Assemble(ctx, caller, planID)
	if err != nil {
		switch {
		case errors.Is(err, plans.ErrNotFound):
			return Result{}, ErrPlanNotFound
		case errors.Is(err, plans.ErrForbidden):
			return Result{}, ErrForbidden
		}
		return Result{}, err
	}
	prompt, err := BuildPrompt(kind, rec.Plan, opts)
	if err != nil {
		return Result{}, err
	}

	client := s.Client
	if client == nil {
		client = PlaceholderClient{}
	}
	metrics.IncAIInvocations()
	start := time.Now()
	res, err := client.Invoke(ctx, prompt, Schema(kind))
	fields := map[string]any{
		"plan_id":     planID,
		"kind":        kind,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if err != nil {
		metrics.IncAIFailures()
		fields["error"] = err
		telemetry.Error("ai.failed", fields)
		if errors.Is(err, ErrNotConfigured) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrFailed, err)
	}
	if !res.Success {
		metrics.IncAIFailures()
	}
	fields["success"] = res.Success
	telemetry.Info("ai.completed", fields)
	return res, nil
}
