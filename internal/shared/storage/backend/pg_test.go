package backend

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var pgTestNow = time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)

func newPGMock(t *testing.T) (*PG, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	p := NewPG(db)
	p.Now = func() time.Time { return pgTestNow }
	return p, mock
}

func pgRowColumns() []string {
	return []string{"id", "version", "data", "is_deleted", "created_at", "updated_at"}
}

func TestPGSelectBuildsFilteredQuery(t *testing.T) {
	p, mock := newPGMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, version, data, is_deleted, created_at, updated_at FROM strategy_risks WHERE NOT is_deleted AND data->>$2 = $1 ORDER BY created_at DESC, id DESC LIMIT $3",
	)).
		WithArgs("plan-1", "plan_id", 10).
		WillReturnRows(sqlmock.NewRows(pgRowColumns()).
			AddRow("r1", 2, []byte(`{"plan_id":"plan-1","title":"Delay"}`), false, pgTestNow, pgTestNow))

	rows, err := p.Select(context.Background(), Query{
		Table: TableRisks,
		Eq:    map[string]any{"plan_id": "plan-1"},
		Desc:  true,
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || rows[0].String("title") != "Delay" || rows[0].Version() != 2 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGSelectRejectsUnknownTable(t *testing.T) {
	p, _ := newPGMock(t)
	if _, err := p.Select(context.Background(), Query{Table: "pg_user"}); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestPGInsert(t *testing.T) {
	p, mock := newPGMock(t)

	mock.ExpectExec("INSERT INTO strategic_plans").
		WithArgs("plan-1", `{"name":"Smart City"}`, pgTestNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	row, err := p.Insert(context.Background(), TablePlans, Row{"id": "plan-1", "name": "Smart City", "version": 7})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if row.Version() != 1 || row.ID() != "plan-1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGInsertDuplicate(t *testing.T) {
	p, mock := newPGMock(t)
	mock.ExpectExec("INSERT INTO strategic_plans").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := p.Insert(context.Background(), TablePlans, Row{"id": "plan-1"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGUpdateVersionConflict(t *testing.T) {
	p, mock := newPGMock(t)

	mock.ExpectQuery("UPDATE strategic_plans SET data = data").
		WithArgs(`{"name":"stale"}`, pgTestNow, "plan-1", int64(1)).
		WillReturnRows(sqlmock.NewRows(pgRowColumns()))
	mock.ExpectQuery("SELECT id, version, data, is_deleted, created_at, updated_at FROM strategic_plans WHERE id").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows(pgRowColumns()).
			AddRow("plan-1", 3, []byte(`{"name":"fresh"}`), false, pgTestNow, pgTestNow))

	_, err := p.Update(context.Background(), TablePlans, "plan-1", 1, Row{"name": "stale"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Current.Version() != 3 || conflict.Current.String("name") != "fresh" {
		t.Fatalf("unexpected current row: %+v", conflict.Current)
	}
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict in chain")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGUpdateMissingRow(t *testing.T) {
	p, mock := newPGMock(t)
	mock.ExpectQuery("UPDATE strategic_plans").WillReturnRows(sqlmock.NewRows(pgRowColumns()))
	mock.ExpectQuery("SELECT (.+) FROM strategic_plans").WillReturnRows(sqlmock.NewRows(pgRowColumns()))

	_, err := p.Update(context.Background(), TablePlans, "nope", 1, Row{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGDeleteIsSoft(t *testing.T) {
	p, mock := newPGMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE strategy_kpis SET is_deleted = true, updated_at = $1 WHERE id = $2 AND NOT is_deleted")).
		WithArgs(pgTestNow, "k1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE strategy_kpis SET is_deleted = true").
		WithArgs(pgTestNow, "k1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := p.Delete(context.Background(), TableKPIs, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := p.Delete(context.Background(), TableKPIs, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPGRPC(t *testing.T) {
	p, mock := newPGMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_jsonb(increment_template_usage($1))::text")).
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"to_jsonb"}).AddRow("4"))

	var count int
	if err := p.RPC(context.Background(), FuncIncrementTemplateUsage, map[string]any{"template_id": "tpl-1"}, &count); err != nil {
		t.Fatalf("RPC: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
	if err := p.RPC(context.Background(), "pg_sleep", nil, nil); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
}

func TestPGBatchCommitsAndRollsBack(t *testing.T) {
	p, mock := newPGMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO strategy_milestones").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.Batch(context.Background(), func(tx Client) error {
		_, err := tx.Insert(context.Background(), TableMilestones, Row{"title": "Pilot"})
		return err
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	if err := p.Batch(context.Background(), func(tx Client) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
