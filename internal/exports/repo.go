package exports

import (
	"context"
	"errors"

	"innovation-backend/internal/shared/storage/backend"
)

// Repo persists export records in the plan_exports table.
type Repo struct {
	Client backend.Client
}

func NewRepo(client backend.Client) *Repo {
	return &Repo{Client: client}
}

func (r *Repo) Create(ctx context.Context, rec Record) (Record, error) {
	row, err := backend.Encode(rec)
	if err != nil {
		return Record{}, err
	}
	delete(row, backend.ColID)
	saved, err := r.Client.Insert(ctx, backend.TableExports, row)
	if err != nil {
		return Record{}, err
	}
	return decode(saved)
}

func (r *Repo) Get(ctx context.Context, id string) (Record, error) {
	row, err := r.Client.Get(ctx, backend.TableExports, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return decode(row)
}

// ListByPlan returns a plan's exports, newest first.
func (r *Repo) ListByPlan(ctx context.Context, planID string) ([]Record, error) {
	rows, err := r.Client.Select(ctx, backend.Query{
		Table: backend.TableExports,
		Eq:    map[string]any{"plan_id": planID},
		Desc:  true,
		Limit: 50,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Finish stores the outcome of rendering rec.
func (r *Repo) Finish(ctx context.Context, rec Record) (Record, error) {
	patch := backend.Row{
		"status":       rec.Status,
		"storage_key":  rec.StorageKey,
		"content_type": rec.ContentType,
		"size_bytes":   rec.SizeBytes,
		"error":        rec.Error,
		"completed_at": rec.CompletedAt,
	}
	saved, err := r.Client.Update(ctx, backend.TableExports, rec.ID, rec.Version, patch)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return decode(saved)
}

func decode(row backend.Row) (Record, error) {
	var rec Record
	if err := backend.Decode(row, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
