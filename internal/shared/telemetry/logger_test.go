package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteForwardsFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("plan.saved", map[string]any{"plan_id": "p1", "version": 3})
	Warn("draft.stale", nil)
	Error("backend.failed", map[string]any{"err": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].Message != "plan.saved" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	ctx := entries[0].ContextMap()
	if ctx["plan_id"] != "p1" {
		t.Fatalf("expected plan_id field, got %v", ctx)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", entries[1].Level)
	}
	if got := entries[2].ContextMap()["err"]; got != "boom" {
		t.Fatalf("expected error rendered as string, got %v", got)
	}
}

func TestSetLoggerRestore(t *testing.T) {
	before := Logger()
	restore := SetLogger(nil)
	if Logger() == before {
		t.Fatalf("expected logger swap")
	}
	restore()
	if Logger() != before {
		t.Fatalf("expected logger restored")
	}
}
