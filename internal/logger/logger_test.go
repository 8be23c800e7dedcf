package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewAcceptsKnownLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		l, err := New(Options{Level: lvl, Format: "console"})
		if err != nil {
			t.Fatalf("level %q: %v", lvl, err)
		}
		if l == nil {
			t.Fatalf("level %q: nil logger", lvl)
		}
	}
}

func TestObjVariantsAttachField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.WarnObj("provider failed", "image_stage", map[string]any{"stage": "lexica"})
	l.Info("batch done", "total", 2)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "provider failed" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if _, ok := entries[0].ContextMap()["image_stage"]; !ok {
		t.Errorf("missing image_stage field: %v", entries[0].ContextMap())
	}
	if got := entries[1].ContextMap()["total"]; got != int64(2) {
		t.Errorf("total = %v", got)
	}
}

func TestEnsure(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatal("Ensure(nil) should return NopLogger")
	}
}
