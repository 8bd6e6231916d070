package logger

import (
	"testing"

	"github.com/samvad-hq/staffdesk-client/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogsObjectUnderKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.WarnObj("lookup failed", "lookup_error", "store unavailable")

	entries := logs.FilterMessage("lookup failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["lookup_error"]; got != "store unavailable" {
		t.Fatalf("unexpected field value %v", got)
	}
}

func TestNewWithNilReturnsNop(t *testing.T) {
	if _, ok := New(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil zap logger")
	}
}

func TestInitSetsPackageLogger(t *testing.T) {
	t.Cleanup(func() { S = nil })

	log, err := Init(&config.Config{LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if log == nil || S == nil {
		t.Fatalf("expected logger to be initialized")
	}
	if !S.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}
