package backend

import (
	"context"
	"strings"
	"testing"

	"moneta/internal/config"
	exportmemory "moneta/internal/export/memory"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		typ   Type
		valid bool
	}{
		{TypeMemory, true},
		{TypeGoogle, true},
		{Type("sheets"), false},
		{Type(""), false},
	}
	for _, tt := range tests {
		if got := tt.typ.IsValid(); got != tt.valid {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.typ, got, tt.valid)
		}
	}
}

func TestNewMemoryBackend(t *testing.T) {
	cfg := &config.Config{ExportBackend: "memory"}

	res, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := res.Writer.(*exportmemory.Store); !ok {
		t.Errorf("Writer = %T, want *exportmemory.Store", res.Writer)
	}
	if res.Remover == nil {
		t.Error("Remover is nil")
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{ExportBackend: "sheets"}

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewGoogleBackendRequiresCredentials(t *testing.T) {
	cfg := &config.Config{ExportBackend: "google"}

	_, err := New(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected error without spreadsheet coordinates")
	}
	if !strings.Contains(err.Error(), "google sheets export") {
		t.Errorf("error = %q, want google sheets export context", err)
	}
}
