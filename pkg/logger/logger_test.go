package logger

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerInitStderr(t *testing.T) {
	if err := InitStderr(); err != nil {
		t.Fatalf("failed to initialize stderr logger: %v", err)
	}
	Get().Info(context.Background(), "stderr logger ready")
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

func TestLoggerNamedWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	if err := InitWithCore(core); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Named("engine").Info(ctx, "evaluated", String("task", "brochure"), Int("designers", 3), Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.LoggerName != "engine" {
		t.Errorf("logger name = %q, want engine", entry.LoggerName)
	}
	fields := entry.ContextMap()
	if fields["task"] != "brochure" {
		t.Errorf("task field = %v", fields["task"])
	}
	if fields["designers"] != int64(3) {
		t.Errorf("designers field = %v", fields["designers"])
	}
	if fields["error"] != "boom" {
		t.Errorf("error field = %v", fields["error"])
	}
}

func TestInitWithNilCore(t *testing.T) {
	if err := InitWithCore(nil); err == nil {
		t.Fatal("expected error for nil core")
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) error = %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}
