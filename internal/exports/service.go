package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"innovation-backend/internal/plans"
	"innovation-backend/internal/queue"
	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/metrics"
	"innovation-backend/internal/shared/storage/object"
	"innovation-backend/internal/shared/telemetry"
)

// PlanSource loads the assembled plan an export renders.
type PlanSource interface {
	Assemble(ctx context.Context, caller auth.Caller, id string) (plans.Record, error)
}

// Service renders plan exports and tracks them in plan_exports.
type Service struct {
	Repo  *Repo
	Plans PlanSource
	Store object.ObjectStore
	// Queue hands exports to the worker. When nil, exports render inline.
	Queue queue.Client
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Start records a new export of planID. Without a queue the export is
// rendered before returning; otherwise the returned record is still queued.
func (s *Service) Start(ctx context.Context, caller auth.Caller, planID string, format Format, requestID string) (Record, error) {
	if err := caller.RequireUser(); err != nil {
		return Record{}, err
	}
	if format != FormatPDF && format != FormatXLSX {
		return Record{}, ErrInvalidFormat
	}
	plan, err := s.Plans.Assemble(ctx, caller, planID)
	if err != nil {
		return Record{}, planError(err)
	}

	rec, err := s.Repo.Create(ctx, Record{
		PlanID:    plan.ID,
		OwnerID:   caller.UserID,
		Format:    format,
		Status:    StatusQueued,
		FileName:  fileName(plan.Plan.Name, format),
		RequestID: requestID,
	})
	if err != nil {
		logFailure("create", planID, "", err)
		return Record{}, err
	}
	metrics.IncExportStarted()
	telemetry.Info("export.started", map[string]any{
		"export_id":  rec.ID,
		"plan_id":    rec.PlanID,
		"format":     rec.Format,
		"queued":     s.Queue != nil,
		"request_id": requestID,
	})

	if s.Queue == nil {
		return s.render(ctx, rec, plan)
	}
	err = s.Queue.Send(ctx, queue.Message{
		ExportID:   rec.ID,
		RequestID:  requestID,
		EnqueuedAt: s.now().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	})
	if err != nil {
		logFailure("enqueue", planID, rec.ID, err)
		if _, ferr := s.fail(ctx, rec, fmt.Errorf("enqueue: %w", err)); ferr != nil {
			logFailure("finish", planID, rec.ID, ferr)
		}
		return Record{}, err
	}
	return rec, nil
}

// ProcessExport renders a queued export on behalf of its owner. Exports that
// already finished are left alone so redelivered messages are harmless.
func (s *Service) ProcessExport(ctx context.Context, exportID string) error {
	rec, err := s.Repo.Get(ctx, exportID)
	if err != nil {
		return err
	}
	if rec.Status != StatusQueued {
		telemetry.Info("export.skipped", map[string]any{"export_id": rec.ID, "status": rec.Status})
		return nil
	}
	plan, err := s.Plans.Assemble(ctx, auth.Caller{UserID: rec.OwnerID}, rec.PlanID)
	if err != nil {
		if _, ferr := s.fail(ctx, rec, err); ferr != nil {
			logFailure("finish", rec.PlanID, rec.ID, ferr)
		}
		return planError(err)
	}
	done, err := s.render(ctx, rec, plan)
	if err != nil {
		return err
	}
	if done.Status == StatusFailed {
		return fmt.Errorf("export %s failed: %s", done.ID, done.Error)
	}
	return nil
}

// render builds the artifact, stores it and records the outcome. A render or
// storage failure is recorded on the export and not returned.
func (s *Service) render(ctx context.Context, rec Record, plan plans.Record) (Record, error) {
	start := time.Now()
	doc := NewDocument(plan.Plan, string(plan.Status), s.now())

	data, err := Render(rec.Format, doc)
	if err == nil {
		err = s.store(ctx, &rec, data)
	}
	if err != nil {
		logFailure("render", rec.PlanID, rec.ID, err)
		return s.fail(ctx, rec, err)
	}

	finished := s.now()
	rec.Status = StatusCompleted
	rec.CompletedAt = &finished
	rec.Error = ""
	saved, err := s.Repo.Finish(ctx, rec)
	if err != nil {
		logFailure("finish", rec.PlanID, rec.ID, err)
		return Record{}, err
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.IncExportCompleted()
	metrics.ObserveExportDurationMs(elapsed)
	telemetry.Info("export.completed", map[string]any{
		"export_id":   saved.ID,
		"plan_id":     saved.PlanID,
		"format":      saved.Format,
		"size_bytes":  saved.SizeBytes,
		"duration_ms": elapsed,
	})
	return saved, nil
}

func (s *Service) store(ctx context.Context, rec *Record, data []byte) error {
	key, err := object.Key(rec.OwnerID, rec.FileName)
	if err != nil {
		return err
	}
	n, err := s.Store.Put(ctx, key, rec.Format.ContentType(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	rec.StorageKey = key
	rec.ContentType = rec.Format.ContentType()
	rec.SizeBytes = n
	return nil
}

func (s *Service) fail(ctx context.Context, rec Record, cause error) (Record, error) {
	metrics.IncExportFailed()
	finished := s.now()
	rec.Status = StatusFailed
	rec.Error = cause.Error()
	rec.CompletedAt = &finished
	return s.Repo.Finish(ctx, rec)
}

// Get returns an export the caller owns.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (Record, error) {
	if err := caller.RequireUser(); err != nil {
		return Record{}, err
	}
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !caller.Owns(rec.OwnerID) {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// ListByPlan returns the exports of a plan the caller owns.
func (s *Service) ListByPlan(ctx context.Context, caller auth.Caller, planID string) ([]Record, error) {
	if err := caller.RequireUser(); err != nil {
		return nil, err
	}
	if _, err := s.Plans.Assemble(ctx, caller, planID); err != nil {
		return nil, planError(err)
	}
	return s.Repo.ListByPlan(ctx, planID)
}

// Open returns a completed export and a reader over its artifact.
func (s *Service) Open(ctx context.Context, caller auth.Caller, id string) (Record, io.ReadCloser, error) {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return Record{}, nil, err
	}
	if rec.Status != StatusCompleted || rec.StorageKey == "" {
		return rec, nil, ErrNotReady
	}
	rc, err := s.Store.Open(ctx, rec.StorageKey)
	if err != nil {
		logFailure("open", rec.PlanID, rec.ID, err)
		return Record{}, nil, err
	}
	return rec, rc, nil
}

func planError(err error) error {
	switch {
	case errors.Is(err, plans.ErrNotFound):
		return ErrPlanNotFound
	case errors.Is(err, plans.ErrForbidden):
		return ErrForbidden
	}
	return err
}

func logFailure(op, planID, exportID string, err error) {
	telemetry.Error("export.failed", map[string]any{
		"op":        op,
		"plan_id":   planID,
		"export_id": exportID,
		"error":     err,
	})
}
