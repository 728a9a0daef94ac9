package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

const (
	colOwnerID     = "owner_id"
	colStatus      = "status"
	colTemplateID  = "template_id"
	colSubmittedAt = "submitted_at"
	colName        = "name"
	colPlan        = "plan"
)

// Repo persists plans in the strategic_plans table. The plan document is
// stored whole under one column so an update replaces it atomically.
type Repo struct {
	Client backend.Client
}

func NewRepo(client backend.Client) *Repo {
	return &Repo{Client: client}
}

func (r *Repo) Create(ctx context.Context, rec Record) (Record, error) {
	row, err := toRow(rec)
	if err != nil {
		return Record{}, err
	}
	if rec.ID != "" {
		row[backend.ColID] = rec.ID
	}
	saved, err := r.Client.Insert(ctx, backend.TablePlans, row)
	if err != nil {
		return Record{}, err
	}
	return fromRow(saved)
}

func (r *Repo) Get(ctx context.Context, id string) (Record, error) {
	row, err := r.Client.Get(ctx, backend.TablePlans, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return fromRow(row)
}

// ListByOwner returns the owner's plans, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Record, error) {
	rows, err := r.Client.Select(ctx, backend.Query{
		Table:  backend.TablePlans,
		Eq:     map[string]any{colOwnerID: ownerID},
		Desc:   true,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update writes rec when the stored version equals expected.
func (r *Repo) Update(ctx context.Context, rec Record, expected int64) (Record, error) {
	row, err := toRow(rec)
	if err != nil {
		return Record{}, err
	}
	saved, err := r.Client.Update(ctx, backend.TablePlans, rec.ID, expected, row)
	if err != nil {
		var conflict *backend.ConflictError
		switch {
		case errors.As(err, &conflict):
			current, decodeErr := fromRow(conflict.Current)
			if decodeErr != nil {
				return Record{}, decodeErr
			}
			return Record{}, &ConflictError{Current: current}
		case errors.Is(err, backend.ErrNotFound):
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return fromRow(saved)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.Client.Delete(ctx, backend.TablePlans, id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func toRow(rec Record) (backend.Row, error) {
	doc, err := backend.Encode(rec.Plan)
	if err != nil {
		return nil, err
	}
	row := backend.Row{
		colOwnerID:    rec.OwnerID,
		colStatus:     string(rec.Status),
		colTemplateID: rec.TemplateID,
		colName:       rec.Plan.Name,
		colPlan:       map[string]any(doc),
		// Explicit nil clears the timestamp when a plan returns to draft.
		colSubmittedAt: nil,
	}
	if rec.SubmittedAt != nil {
		row[colSubmittedAt] = rec.SubmittedAt.UTC().Format(time.RFC3339Nano)
	}
	return row, nil
}

func fromRow(row backend.Row) (Record, error) {
	rec := Record{
		ID:         row.ID(),
		OwnerID:    row.String(colOwnerID),
		Status:     Status(row.String(colStatus)),
		TemplateID: row.String(colTemplateID),
		Version:    row.Version(),
		CreatedAt:  row.Time(backend.ColCreatedAt),
		UpdatedAt:  row.Time(backend.ColUpdatedAt),
	}
	if at := row.Time(colSubmittedAt); !at.IsZero() {
		rec.SubmittedAt = &at
	}
	if doc, ok := row[colPlan]; ok && doc != nil {
		var wrapper struct {
			Plan strategy.Plan `json:"plan"`
		}
		if err := backend.Decode(backend.Row{colPlan: doc}, &wrapper); err != nil {
			return Record{}, fmt.Errorf("plan %s: %w", rec.ID, err)
		}
		rec.Plan = wrapper.Plan
	}
	if rec.Status == "" {
		rec.Status = StatusDraft
	}
	return rec, nil
}
