package google

import (
	"context"
	"strings"
	"testing"

	"moneta/internal/core"
)

func TestRowValues(t *testing.T) {
	tx := core.Transaction{
		ID:          42,
		Date:        core.NewDate(2026, 3, 15),
		Description: "Groceries",
		Amount:      core.Money{Cents: 4550},
		Category:    "Food",
		AccountID:   3,
		Kind:        core.Expense,
	}

	row := rowValues(tx)
	if len(row) != 6 {
		t.Fatalf("row length = %d, want 6", len(row))
	}
	if row[0] != "2026-03-15" {
		t.Errorf("date cell = %v", row[0])
	}
	if desc, ok := row[1].(string); !ok || !strings.Contains(desc, "[tx:42]") {
		t.Errorf("description cell %v missing ID marker", row[1])
	}
	if row[3] != 45.50 {
		t.Errorf("amount cell = %v, want 45.5", row[3])
	}
}

func TestFindRowByMarker(t *testing.T) {
	values := [][]any{
		{"Description"},
		{"Rent [tx:7]"},
		{},
		{"Groceries [tx:42]"},
	}

	if got := findRowByMarker(values, 42); got != 4 {
		t.Errorf("findRowByMarker(42) = %d, want 4", got)
	}
	if got := findRowByMarker(values, 7); got != 2 {
		t.Errorf("findRowByMarker(7) = %d, want 2", got)
	}
	if got := findRowByMarker(values, 99); got != 0 {
		t.Errorf("findRowByMarker(99) = %d, want 0", got)
	}
}

func TestNewRequiresCoordinates(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("New() with empty config, want error")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"}); err == nil {
		t.Error("New() without sheet name, want error")
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", SheetName: "Ledger"})
	if err == nil || !strings.Contains(err.Error(), "oauth client") {
		t.Errorf("New() without credentials = %v, want oauth client error", err)
	}
}
