package planitems

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/strategy"
)

const colPlanID = "plan_id"

// Record is one persisted child row of a plan.
type Record[T any] struct {
	ID        string
	PlanID    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Item      T
}

// MarshalJSON flattens the item fields next to the row metadata.
func (r Record[T]) MarshalJSON() ([]byte, error) {
	row, err := backend.Encode(r.Item)
	if err != nil {
		return nil, err
	}
	row[backend.ColID] = r.ID
	row[colPlanID] = r.PlanID
	row[backend.ColVersion] = r.Version
	row[backend.ColCreatedAt] = r.CreatedAt
	row[backend.ColUpdatedAt] = r.UpdatedAt
	return json.Marshal(map[string]any(row))
}

// BulkItem is one entry of a bulk save. Empty IDs are inserted; others are
// updated against Version.
type BulkItem[T any] struct {
	ID      string
	Version int64
	Item    T
}

func toRow[T any](planID string, item T) (backend.Row, error) {
	row, err := backend.Encode(item)
	if err != nil {
		return nil, err
	}
	delete(row, backend.ColID)
	row[colPlanID] = planID
	return row, nil
}

// toPatch is toRow for updates: fields left empty are sent as nulls so the
// stored values are cleared.
func toPatch[T any](planID string, item T) (backend.Row, error) {
	row, err := backend.EncodeReplacement(item)
	if err != nil {
		return nil, err
	}
	delete(row, backend.ColID)
	row[colPlanID] = planID
	return row, nil
}

func fromRow[T any](row backend.Row) (Record[T], error) {
	var item T
	if err := backend.Decode(row, &item); err != nil {
		return Record[T]{}, err
	}
	return Record[T]{
		ID:        row.ID(),
		PlanID:    row.String(colPlanID),
		Version:   row.Version(),
		CreatedAt: row.Time(backend.ColCreatedAt),
		UpdatedAt: row.Time(backend.ColUpdatedAt),
		Item:      item,
	}, nil
}

// Items strips the row metadata, keeping the persisted id on the item.
func Items[T any](records []Record[T]) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, r.Item)
	}
	return out
}

func required(field, value string) error {
	if !strategy.HasText(value) {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

func validateRisk(r strategy.Risk) error { return required("title", r.Title) }

func validateStakeholder(s strategy.Stakeholder) error { return required("name", s.Name) }

func validateMilestone(m strategy.Milestone) error { return required("title", m.Title) }

func validateActionPlan(a strategy.ActionPlan) error { return required("title", a.Title) }

func validateAlignment(a strategy.Alignment) error { return required("program_id", a.ProgramID) }

func validateKPI(k strategy.KPI) error { return required("name", k.Name) }

func validateSWOTItem(s strategy.SWOTItem) error {
	if err := required("title", s.Title); err != nil {
		return err
	}
	if !strategy.ValidQuadrant(strings.TrimSpace(s.Quadrant)) {
		return fmt.Errorf("%w: unknown quadrant %q", ErrInvalidInput, s.Quadrant)
	}
	return nil
}
