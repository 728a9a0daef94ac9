package templates

import (
	"context"
	"errors"
	"fmt"

	"innovation-backend/internal/shared/storage/backend"
)

const colUsageCount = "usage_count"

// Repo persists templates in the strategy_templates table.
type Repo struct {
	Client backend.Client
}

func NewRepo(client backend.Client) *Repo {
	return &Repo{Client: client}
}

func (r *Repo) Create(ctx context.Context, t Template) (Template, error) {
	row, err := backend.Encode(t)
	if err != nil {
		return Template{}, err
	}
	if t.ID == "" {
		delete(row, backend.ColID)
	}
	saved, err := r.Client.Insert(ctx, backend.TableTemplates, row)
	if err != nil {
		return Template{}, err
	}
	return decode(saved)
}

func (r *Repo) Get(ctx context.Context, id string) (Template, error) {
	row, err := r.Client.Get(ctx, backend.TableTemplates, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return decode(row)
}

// Public returns every public template.
func (r *Repo) Public(ctx context.Context) ([]Template, error) {
	return r.selectWhere(ctx, map[string]any{"is_public": true})
}

// OwnedBy returns every template ownerID created.
func (r *Repo) OwnedBy(ctx context.Context, ownerID string) ([]Template, error) {
	return r.selectWhere(ctx, map[string]any{"owner_id": ownerID})
}

func (r *Repo) selectWhere(ctx context.Context, eq map[string]any) ([]Template, error) {
	rows, err := r.Client.Select(ctx, backend.Query{Table: backend.TableTemplates, Eq: eq})
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(rows))
	for _, row := range rows {
		t, err := decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Update writes t when the stored version equals expected. The usage counter
// is owned by IncrementUsage and never overwritten here.
func (r *Repo) Update(ctx context.Context, t Template, expected int64) (Template, error) {
	row, err := backend.EncodeReplacement(t)
	if err != nil {
		return Template{}, err
	}
	delete(row, colUsageCount)
	saved, err := r.Client.Update(ctx, backend.TableTemplates, t.ID, expected, row)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrVersionConflict):
			return Template{}, fmt.Errorf("%w: %w", ErrVersionConflict, err)
		case errors.Is(err, backend.ErrNotFound):
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return decode(saved)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.Client.Delete(ctx, backend.TableTemplates, id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// IncrementUsage bumps the usage counter server-side and returns the new value.
func (r *Repo) IncrementUsage(ctx context.Context, id string) (int64, error) {
	var count int64
	if err := r.Client.RPC(ctx, backend.FuncIncrementTemplateUsage, map[string]any{"template_id": id}, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func decode(row backend.Row) (Template, error) {
	var t Template
	if err := backend.Decode(row, &t); err != nil {
		return Template{}, err
	}
	t.Tags = orEmpty(t.Tags)
	t.TargetSectors = orEmpty(t.TargetSectors)
	return t, nil
}
