package services

import (
	"context"
	"testing"
	"time"

	"moneta/internal/core"
)

func TestProjectionServiceForecastsFromSnapshot(t *testing.T) {
	store := newFakeStore()
	accID, _ := store.CreateAccount(context.Background(), core.Account{
		Name: "Main", Kind: core.AccountSavings, Balance: core.Money{Cents: 100000},
	})
	_, err := NewRecurringService(store, NewTransactionService(store, nil)).Create(context.Background(), core.RecurringTransaction{
		Description: "Rent",
		Amount:      core.Money{Cents: 5000},
		Category:    "Housing",
		AccountID:   accID,
		Kind:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2025, 1, 1),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	svc := NewProjectionService(store)
	svc.now = func() time.Time { return core.NewDate(2025, 1, 1).Time }

	result, err := svc.Project(context.Background(), core.NewDate(2025, 4, 1).Time)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if result == nil {
		t.Fatal("expected a projection result")
	}
	if len(result.Movements) != 4 {
		t.Errorf("movements = %d, want 4 monthly occurrences", len(result.Movements))
	}
	if result.Total.Cents != 80000 {
		t.Errorf("total = %d, want 80000", result.Total.Cents)
	}
}

func TestProjectionServicePastTarget(t *testing.T) {
	svc := NewProjectionService(newFakeStore())
	svc.now = func() time.Time { return core.NewDate(2025, 6, 1).Time }

	result, err := svc.Project(context.Background(), core.NewDate(2025, 1, 1).Time)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if result != nil {
		t.Errorf("past target must yield nil, got %+v", result)
	}
}
