package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rpcArgs fixes the positional argument order of each SQL function.
var rpcArgs = map[string][]string{
	FuncIncrementTemplateUsage: {"template_id"},
}

// PG stores each table as meta columns plus a jsonb data payload.
type PG struct {
	DB  *sql.DB
	Now func() time.Time

	q queryer
}

// NewPG wraps an open database.
func NewPG(db *sql.DB) *PG {
	return &PG{DB: db}
}

func (p *PG) conn() queryer {
	if p.q != nil {
		return p.q
	}
	return p.DB
}

func (p *PG) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

const pgColumns = `id, version, data, is_deleted, created_at, updated_at`

func (p *PG) Select(ctx context.Context, q Query) ([]Row, error) {
	if err := CheckTable(q.Table); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if !q.IncludeDeleted {
		where = append(where, "NOT is_deleted")
	}
	for _, col := range sortedKeys(q.Eq) {
		if err := CheckColumn(col); err != nil {
			return nil, err
		}
		args = append(args, textValue(q.Eq[col]))
		if IsMeta(col) {
			where = append(where, fmt.Sprintf("%s::text = $%d", col, len(args)))
			continue
		}
		args = append(args, col)
		where = append(where, fmt.Sprintf("data->>$%d = $%d", len(args), len(args)-1))
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = ColCreatedAt
	}
	if err := CheckColumn(orderBy); err != nil {
		return nil, err
	}
	orderExpr := orderBy
	if !IsMeta(orderBy) {
		orderExpr = fmt.Sprintf("data->>'%s'", orderBy)
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", pgColumns, q.Table)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", orderExpr, dir, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := p.conn().QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row, err := scanPGRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *PG) Get(ctx context.Context, table, id string) (Row, error) {
	if err := CheckTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND NOT is_deleted", pgColumns, table)
	row, err := scanPGRow(p.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return row, err
}

func (p *PG) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := CheckTable(table); err != nil {
		return nil, err
	}
	id := row.ID()
	if id == "" {
		id = uuid.NewString()
	}
	data := stripMeta(row)
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	now := p.now()
	query := fmt.Sprintf(`INSERT INTO %s (id, version, data, is_deleted, created_at, updated_at)
VALUES ($1, 1, $2, false, $3, $3)
ON CONFLICT (id) DO NOTHING`, table)
	res, err := p.conn().ExecContext(ctx, query, id, string(payload), now)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrAlreadyExists)
	}
	out := data.Clone()
	out[ColID] = id
	out[ColVersion] = int64(1)
	out[ColCreatedAt] = now
	out[ColUpdatedAt] = now
	out[ColDeleted] = false
	return out, nil
}

func (p *PG) Update(ctx context.Context, table, id string, expectedVersion int64, patch Row) (Row, error) {
	if err := CheckTable(table); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(stripMeta(patch))
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	query := fmt.Sprintf(`UPDATE %s SET data = data || $1::jsonb, version = version + 1, updated_at = $2
WHERE id = $3 AND version = $4 AND NOT is_deleted
RETURNING %s`, table, pgColumns)
	row, err := scanPGRow(p.conn().QueryRowContext(ctx, query, string(payload), p.now(), id, expectedVersion))
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	current, getErr := p.Get(ctx, table, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &ConflictError{Table: table, ID: id, Current: current}
}

func (p *PG) Delete(ctx context.Context, table, id string) error {
	if err := CheckTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET is_deleted = true, updated_at = $1 WHERE id = $2 AND NOT is_deleted", table)
	res, err := p.conn().ExecContext(ctx, query, p.now(), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (p *PG) RPC(ctx context.Context, fn string, args map[string]any, out any) error {
	names, ok := rpcArgs[fn]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
	}
	placeholders := make([]string, len(names))
	values := make([]any, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		values[i] = args[name]
	}
	query := fmt.Sprintf("SELECT to_jsonb(%s(%s))::text", fn, strings.Join(placeholders, ", "))
	var raw sql.NullString
	if err := p.conn().QueryRowContext(ctx, query, values...).Scan(&raw); err != nil {
		return fmt.Errorf("rpc %s: %w", fn, err)
	}
	if !raw.Valid || raw.String == "null" {
		return fmt.Errorf("rpc %s: %w", fn, ErrNotFound)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), out)
}

// Batch runs fn in a single transaction.
func (p *PG) Batch(ctx context.Context, fn func(tx Client) error) error {
	if p.q != nil {
		return fn(p)
	}
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&PG{DB: p.DB, Now: p.Now, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGRow(s rowScanner) (Row, error) {
	var (
		id        string
		version   int64
		data      []byte
		deleted   bool
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.Scan(&id, &version, &data, &deleted, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	row := Row{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("decode data for %s: %w", id, err)
		}
	}
	row[ColID] = id
	row[ColVersion] = version
	row[ColDeleted] = deleted
	row[ColCreatedAt] = createdAt.UTC()
	row[ColUpdatedAt] = updatedAt.UTC()
	return row, nil
}
