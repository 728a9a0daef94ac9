package planitems

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/shared/telemetry"
)

const defaultConcurrency = 4

// Store persists one child collection of a plan.
type Store[T any] struct {
	Client backend.Client
	Table  string
	Guard  Guard
	// Concurrency bounds bulk writes on backends without transactions.
	Concurrency int

	validate func(T) error
}

// NewStore builds a store for table. validate may be nil.
func NewStore[T any](client backend.Client, table string, guard Guard, concurrency int, validate func(T) error) *Store[T] {
	return &Store[T]{Client: client, Table: table, Guard: guard, Concurrency: concurrency, validate: validate}
}

// List returns a plan's live items, oldest first.
func (s *Store[T]) List(ctx context.Context, caller auth.Caller, planID string) ([]Record[T], error) {
	if err := s.Guard.Authorize(ctx, caller, planID, false); err != nil {
		return nil, err
	}
	return s.ListByPlan(ctx, planID)
}

// ListByPlan reads without an ownership check. Callers must authorize first.
func (s *Store[T]) ListByPlan(ctx context.Context, planID string) ([]Record[T], error) {
	rows, err := s.Client.Select(ctx, backend.Query{Table: s.Table, Eq: map[string]any{colPlanID: planID}})
	if err != nil {
		s.logFailure("list", planID, err)
		return nil, err
	}
	out := make([]Record[T], 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// history returns the live items of a plan and whether the table has ever
// held a row for it.
func (s *Store[T]) history(ctx context.Context, planID string) ([]Record[T], bool, error) {
	rows, err := s.Client.Select(ctx, backend.Query{Table: s.Table, Eq: map[string]any{colPlanID: planID}, IncludeDeleted: true})
	if err != nil {
		s.logFailure("list", planID, err)
		return nil, false, err
	}
	out := make([]Record[T], 0, len(rows))
	for _, row := range rows {
		if row.Deleted() {
			continue
		}
		rec, err := fromRow[T](row)
		if err != nil {
			return nil, false, err
		}
		out = append(out, rec)
	}
	return out, len(rows) > 0, nil
}

// Create inserts a new item.
func (s *Store[T]) Create(ctx context.Context, caller auth.Caller, planID string, item T) (Record[T], error) {
	if err := s.check(item); err != nil {
		return Record[T]{}, err
	}
	if err := s.Guard.Authorize(ctx, caller, planID, true); err != nil {
		return Record[T]{}, err
	}
	return s.insert(ctx, s.Client, planID, item)
}

// Update replaces an item's fields when version matches the stored one.
func (s *Store[T]) Update(ctx context.Context, caller auth.Caller, planID, id string, version int64, item T) (Record[T], error) {
	if err := s.check(item); err != nil {
		return Record[T]{}, err
	}
	if err := s.Guard.Authorize(ctx, caller, planID, true); err != nil {
		return Record[T]{}, err
	}
	return s.update(ctx, s.Client, planID, id, version, item)
}

// Delete soft-deletes an item.
func (s *Store[T]) Delete(ctx context.Context, caller auth.Caller, planID, id string) error {
	if err := s.Guard.Authorize(ctx, caller, planID, true); err != nil {
		return err
	}
	if _, err := s.owned(ctx, s.Client, planID, id); err != nil {
		return err
	}
	if err := s.Client.Delete(ctx, s.Table, id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		s.logFailure("delete", planID, err)
		return err
	}
	return nil
}

// BulkSave writes every item. Backends with transactions apply all or
// nothing; otherwise writes run with bounded concurrency and the first
// failure cancels the rest.
func (s *Store[T]) BulkSave(ctx context.Context, caller auth.Caller, planID string, items []BulkItem[T]) ([]Record[T], error) {
	for i, it := range items {
		if err := s.check(it.Item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	if err := s.Guard.Authorize(ctx, caller, planID, true); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Record[T]{}, nil
	}

	out := make([]Record[T], len(items))
	if b, ok := s.Client.(backend.Batcher); ok {
		err := b.Batch(ctx, func(tx backend.Client) error {
			for i, it := range items {
				rec, err := s.save(ctx, tx, planID, it)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				out[i] = rec
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := s.save(gctx, s.Client, planID, it)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T]) save(ctx context.Context, c backend.Client, planID string, it BulkItem[T]) (Record[T], error) {
	if it.ID == "" {
		return s.insert(ctx, c, planID, it.Item)
	}
	return s.update(ctx, c, planID, it.ID, it.Version, it.Item)
}

func (s *Store[T]) insert(ctx context.Context, c backend.Client, planID string, item T) (Record[T], error) {
	row, err := toRow(planID, item)
	if err != nil {
		return Record[T]{}, err
	}
	saved, err := c.Insert(ctx, s.Table, row)
	if err != nil {
		s.logFailure("insert", planID, err)
		return Record[T]{}, err
	}
	return fromRow[T](saved)
}

func (s *Store[T]) update(ctx context.Context, c backend.Client, planID, id string, version int64, item T) (Record[T], error) {
	if _, err := s.owned(ctx, c, planID, id); err != nil {
		return Record[T]{}, err
	}
	row, err := toPatch(planID, item)
	if err != nil {
		return Record[T]{}, err
	}
	saved, err := c.Update(ctx, s.Table, id, version, row)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrVersionConflict):
			return Record[T]{}, fmt.Errorf("%w: %w", ErrVersionConflict, err)
		case errors.Is(err, backend.ErrNotFound):
			return Record[T]{}, ErrNotFound
		}
		s.logFailure("update", planID, err)
		return Record[T]{}, err
	}
	return fromRow[T](saved)
}

// owned loads the item and makes sure it belongs to planID.
func (s *Store[T]) owned(ctx context.Context, c backend.Client, planID, id string) (backend.Row, error) {
	row, err := c.Get(ctx, s.Table, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if row.String(colPlanID) != planID {
		return nil, ErrNotFound
	}
	return row, nil
}

func (s *Store[T]) check(item T) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(item)
}

func (s *Store[T]) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return defaultConcurrency
}

func (s *Store[T]) logFailure(op, planID string, err error) {
	telemetry.Error("planitems.backend_failed", map[string]any{
		"op":      op,
		"table":   s.Table,
		"plan_id": planID,
		"error":   err.Error(),
	})
}
