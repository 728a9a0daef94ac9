// Package backend is the data-access contract with the hosted relational
// store. Rows are flat maps; every table carries the same meta columns and
// deletes are soft.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Meta columns present on every row.
const (
	ColID        = "id"
	ColVersion   = "version"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
	ColDeleted   = "is_deleted"
)

// Table names.
const (
	TablePlans        = "strategic_plans"
	TableRisks        = "strategy_risks"
	TableStakeholders = "stakeholder_analyses"
	TableMilestones   = "strategy_milestones"
	TableActionPlans  = "action_plans"
	TableAlignments   = "national_strategy_alignments"
	TableSWOTItems    = "swot_items"
	TableKPIs         = "strategy_kpis"
	TableTemplates    = "strategy_templates"
	TableExports      = "plan_exports"
)

// FuncIncrementTemplateUsage bumps a template's usage_count and returns the new value.
const FuncIncrementTemplateUsage = "increment_template_usage"

var tables = map[string]struct{}{
	TablePlans: {}, TableRisks: {}, TableStakeholders: {}, TableMilestones: {},
	TableActionPlans: {}, TableAlignments: {}, TableSWOTItems: {}, TableKPIs: {},
	TableTemplates: {}, TableExports: {},
}

var (
	ErrNotFound        = errors.New("row not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("row already exists")
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownFunction = errors.New("unknown rpc function")
	ErrInvalidColumn   = errors.New("invalid column name")
)

// ConflictError carries the stored row when an update used a stale version.
type ConflictError struct {
	Table   string
	ID      string
	Current Row
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %v (stored version %d)", e.Table, e.ID, ErrVersionConflict, e.Current.Version())
}

func (e *ConflictError) Unwrap() error { return ErrVersionConflict }

// Row is one flat record.
type Row map[string]any

// Query selects live rows from one table. Eq filters compare by text value.
type Query struct {
	Table          string
	Eq             map[string]any
	OrderBy        string
	Desc           bool
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// Client is implemented by every backend.
type Client interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Get(ctx context.Context, table, id string) (Row, error)
	// Insert assigns id (when empty), version 1 and timestamps.
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update merges patch into the row when its version equals expectedVersion
	// and bumps the version. A stale version returns *ConflictError.
	Update(ctx context.Context, table, id string, expectedVersion int64, patch Row) (Row, error)
	// Delete marks the row deleted; it stays stored.
	Delete(ctx context.Context, table, id string) error
	// RPC calls a named server-side function and decodes its result into out.
	RPC(ctx context.Context, fn string, args map[string]any, out any) error
}

// Batcher is implemented by backends that can run several calls in one transaction.
type Batcher interface {
	Batch(ctx context.Context, fn func(tx Client) error) error
}

// CheckTable rejects names outside the known table set.
func CheckTable(name string) error {
	if _, ok := tables[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return nil
}

// Tables lists every known table.
func Tables() []string {
	return []string{
		TablePlans, TableRisks, TableStakeholders, TableMilestones, TableActionPlans,
		TableAlignments, TableSWOTItems, TableKPIs, TableTemplates, TableExports,
	}
}

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// CheckColumn rejects column names that are not plain identifiers.
func CheckColumn(name string) error {
	if !columnPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, name)
	}
	return nil
}

// IsMeta reports whether col is a meta column managed by the backend.
func IsMeta(col string) bool {
	switch col {
	case ColID, ColVersion, ColCreatedAt, ColUpdatedAt, ColDeleted:
		return true
	}
	return false
}

func (r Row) ID() string { return r.String(ColID) }

func (r Row) Version() int64 { return r.Int64(ColVersion) }

func (r Row) Deleted() bool {
	v, _ := r[ColDeleted].(bool)
	return v
}

func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// Clone returns a shallow copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Encode converts a tagged struct into a row through its JSON form.
func Encode(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return row, nil
}

// EncodeReplacement encodes v like Encode and adds an explicit null for every
// field the encoding left out, so an Update patch built from it clears
// fields the caller emptied instead of keeping the stored values.
func EncodeReplacement(v any) (Row, error) {
	row, err := Encode(v)
	if err != nil {
		return nil, err
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(v)) {
		if _, ok := row[name]; !ok {
			row[name] = nil
		}
	}
	return row, nil
}

func jsonFieldNames(t reflect.Type) []string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			names = append(names, jsonFieldNames(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// Decode fills v from a row through its JSON form.
func Decode(row Row, v any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// DecodeAll decodes a slice of rows.
func DecodeAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := Decode(row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// stripMeta drops backend-managed columns from caller-supplied data.
func stripMeta(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		if IsMeta(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
