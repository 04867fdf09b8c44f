package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode, "")
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		if l.SugaredLogger == nil {
			t.Fatalf("New(%q): nil sugared logger", mode)
		}
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("dev", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "depgraph").Warn("cycle detected", "modules", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "depgraph" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["modules"] != int64(3) {
		t.Errorf("modules = %v (%T)", fields["modules"], fields["modules"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.With("k", "v").Error("still nothing")
}
