package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RPCFunc is a server-side function registered with the memory backend.
type RPCFunc func(ctx context.Context, tx Client, args map[string]any) (any, error)

// Memory is an in-process backend for development and tests.
type Memory struct {
	mu     sync.Mutex
	tables map[string]map[string]Row
	funcs  map[string]RPCFunc
	now    func() time.Time
	newID  func() string
}

// NewMemory returns an empty store with the built-in functions registered.
func NewMemory() *Memory {
	m := &Memory{
		tables: make(map[string]map[string]Row),
		funcs:  make(map[string]RPCFunc),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	m.Register(FuncIncrementTemplateUsage, incrementTemplateUsage)
	return m
}

// SetClock overrides the timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Register adds or replaces an RPC function.
func (m *Memory) Register(name string, fn RPCFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs[name] = fn
}

// Raw returns the stored row including soft-deleted ones.
func (m *Memory) Raw(table, id string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tables[table][id]
	if !ok {
		return nil, false
	}
	return row.Clone(), true
}

func (m *Memory) Select(ctx context.Context, q Query) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectLocked(q)
}

func (m *Memory) Get(ctx context.Context, table, id string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(table, id)
}

func (m *Memory) Insert(ctx context.Context, table string, row Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(table, row)
}

func (m *Memory) Update(ctx context.Context, table, id string, expectedVersion int64, patch Row) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(table, id, expectedVersion, patch)
}

func (m *Memory) Delete(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(table, id)
}

func (m *Memory) RPC(ctx context.Context, fn string, args map[string]any, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rpcLocked(ctx, &memoryTx{m: m}, fn, args, out)
}

// Batch runs fn while holding the store lock and restores the previous
// contents if fn fails.
func (m *Memory) Batch(ctx context.Context, fn func(tx Client) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.snapshotLocked()
	if err := fn(&memoryTx{m: m}); err != nil {
		m.tables = snapshot
		return err
	}
	return nil
}

func (m *Memory) snapshotLocked() map[string]map[string]Row {
	out := make(map[string]map[string]Row, len(m.tables))
	for name, rows := range m.tables {
		copied := make(map[string]Row, len(rows))
		for id, row := range rows {
			copied[id] = row.Clone()
		}
		out[name] = copied
	}
	return out
}

func (m *Memory) table(name string) (map[string]Row, error) {
	if err := CheckTable(name); err != nil {
		return nil, err
	}
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]Row)
		m.tables[name] = t
	}
	return t, nil
}

func (m *Memory) selectLocked(q Query) ([]Row, error) {
	t, err := m.table(q.Table)
	if err != nil {
		return nil, err
	}
	for col := range q.Eq {
		if err := CheckColumn(col); err != nil {
			return nil, err
		}
	}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = ColCreatedAt
	}
	if err := CheckColumn(orderBy); err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(t))
	for _, row := range t {
		if row.Deleted() && !q.IncludeDeleted {
			continue
		}
		if !matchesEq(row, q.Eq) {
			continue
		}
		out = append(out, row.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(out[i][orderBy], out[j][orderBy])
		if c == 0 {
			c = compareValues(out[i][ColID], out[j][ColID])
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []Row{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) getLocked(table, id string) (Row, error) {
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	row, ok := t[id]
	if !ok || row.Deleted() {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return row.Clone(), nil
}

func (m *Memory) insertLocked(table string, row Row) (Row, error) {
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	stored := stripMeta(row)
	id := row.ID()
	if id == "" {
		id = m.newID()
	}
	if _, exists := t[id]; exists {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrAlreadyExists)
	}
	now := m.now()
	stored[ColID] = id
	stored[ColVersion] = int64(1)
	stored[ColCreatedAt] = now
	stored[ColUpdatedAt] = now
	stored[ColDeleted] = false
	t[id] = stored
	return stored.Clone(), nil
}

func (m *Memory) updateLocked(table, id string, expectedVersion int64, patch Row) (Row, error) {
	current, err := m.getLocked(table, id)
	if err != nil {
		return nil, err
	}
	if current.Version() != expectedVersion {
		return nil, &ConflictError{Table: table, ID: id, Current: current}
	}
	for k, v := range stripMeta(patch) {
		current[k] = v
	}
	current[ColVersion] = expectedVersion + 1
	current[ColUpdatedAt] = m.now()
	m.tables[table][id] = current
	return current.Clone(), nil
}

func (m *Memory) deleteLocked(table, id string) error {
	current, err := m.getLocked(table, id)
	if err != nil {
		return err
	}
	current[ColDeleted] = true
	current[ColUpdatedAt] = m.now()
	m.tables[table][id] = current
	return nil
}

func (m *Memory) rpcLocked(ctx context.Context, tx Client, name string, args map[string]any, out any) error {
	fn, ok := m.funcs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	res, err := fn(ctx, tx, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", name, err)
	}
	return json.Unmarshal(data, out)
}

// memoryTx runs against a Memory whose lock is already held.
type memoryTx struct {
	m *Memory
}

func (tx *memoryTx) Select(ctx context.Context, q Query) ([]Row, error) {
	return tx.m.selectLocked(q)
}

func (tx *memoryTx) Get(ctx context.Context, table, id string) (Row, error) {
	return tx.m.getLocked(table, id)
}

func (tx *memoryTx) Insert(ctx context.Context, table string, row Row) (Row, error) {
	return tx.m.insertLocked(table, row)
}

func (tx *memoryTx) Update(ctx context.Context, table, id string, expectedVersion int64, patch Row) (Row, error) {
	return tx.m.updateLocked(table, id, expectedVersion, patch)
}

func (tx *memoryTx) Delete(ctx context.Context, table, id string) error {
	return tx.m.deleteLocked(table, id)
}

func (tx *memoryTx) RPC(ctx context.Context, fn string, args map[string]any, out any) error {
	return tx.m.rpcLocked(ctx, tx, fn, args, out)
}

// incrementTemplateUsage mirrors the SQL function of the same name. It does
// not bump the row version so concurrent edits are not rejected.
func incrementTemplateUsage(ctx context.Context, tx Client, args map[string]any) (any, error) {
	id := Row(args).String("template_id")
	mtx, ok := tx.(*memoryTx)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported client %T", FuncIncrementTemplateUsage, tx)
	}
	row, err := mtx.m.getLocked(TableTemplates, id)
	if err != nil {
		return nil, err
	}
	count := row.Int64("usage_count") + 1
	row["usage_count"] = count
	mtx.m.tables[TableTemplates][id] = row
	return count, nil
}

func matchesEq(row Row, eq map[string]any) bool {
	for col, want := range eq {
		if textValue(row[col]) != textValue(want) {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int64, int, float64:
		an, bn := Row{"v": a}.Int64("v"), Row{"v": b}.Int64("v")
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	as, bs := textValue(a), textValue(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
