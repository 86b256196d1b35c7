package memory

import (
	"context"
	"testing"

	"moneta/internal/core"
)

func TestAppendAndRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, core.Transaction{ID: 1, Description: "Rent"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}
	if _, err := s.Append(ctx, core.Transaction{ID: 2, Description: "Groceries"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if got := len(s.List()); got != 2 {
		t.Fatalf("List() length = %d, want 2", got)
	}

	if err := s.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	list := s.List()
	if len(list) != 1 || list[0].ID != 2 {
		t.Errorf("List() after remove = %+v", list)
	}

	// Removing an unknown ID is a no-op.
	if err := s.Remove(ctx, 99); err != nil {
		t.Errorf("Remove(99) error = %v, want nil", err)
	}
}

func TestAppendOverwritesSameID(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, _ = s.Append(ctx, core.Transaction{ID: 1, Description: "v1"})
	_, _ = s.Append(ctx, core.Transaction{ID: 1, Description: "v2"})

	list := s.List()
	if len(list) != 1 || list[0].Description != "v2" {
		t.Errorf("List() = %+v, want single v2 entry", list)
	}
}
