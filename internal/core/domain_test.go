package core

import (
	"errors"
	"testing"
)

func TestAccountValidate(t *testing.T) {
	valid := Account{Name: "Main", Kind: AccountSavings, Balance: Money{Cents: 1000}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid account rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(a *Account)
		wantErr error
	}{
		{"empty name", func(a *Account) { a.Name = "  " }, ErrEmptyName},
		{"bad kind", func(a *Account) { a.Kind = "checking" }, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			if err := a.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("goal without target", func(t *testing.T) {
		a := valid
		a.Goal = &Goal{}
		if err := a.Validate(); err == nil {
			t.Error("expected error for zero goal target")
		}
	})
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2025, 3, 10),
		Description: "Groceries",
		Amount:      Money{Cents: 4550},
		Category:    "Food",
		AccountID:   1,
		Kind:        Expense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(tr *Transaction)
	}{
		{"zero date", func(tr *Transaction) { tr.Date = Date{} }},
		{"empty description", func(tr *Transaction) { tr.Description = "" }},
		{"zero amount", func(tr *Transaction) { tr.Amount = Money{} }},
		{"empty category", func(tr *Transaction) { tr.Category = " " }},
		{"no account", func(tr *Transaction) { tr.AccountID = 0 }},
		{"bad kind", func(tr *Transaction) { tr.Kind = "refund" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTransactionSignedCents(t *testing.T) {
	in := Transaction{Amount: Money{Cents: 100}, Kind: Income}
	if in.SignedCents() != 100 {
		t.Errorf("income signed = %d", in.SignedCents())
	}
	out := Transaction{Amount: Money{Cents: 100}, Kind: Expense}
	if out.SignedCents() != -100 {
		t.Errorf("expense signed = %d", out.SignedCents())
	}
}

func TestRecurringValidate(t *testing.T) {
	valid := RecurringTransaction{
		Description: "Rent",
		Amount:      Money{Cents: 90000},
		Category:    "Housing",
		AccountID:   1,
		Kind:        Expense,
		Frequency:   Monthly,
		StartDate:   NewDate(2025, 1, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	t.Run("end before start", func(t *testing.T) {
		rt := valid
		rt.EndDate = NewDate(2024, 12, 1)
		if err := rt.Validate(); err == nil {
			t.Error("expected error for end date before start")
		}
	})
	t.Run("transfer kind rejected", func(t *testing.T) {
		rt := valid
		rt.Kind = Transfer
		if err := rt.Validate(); !errors.Is(err, ErrInvalidKind) {
			t.Errorf("expected ErrInvalidKind, got %v", err)
		}
	})
	t.Run("bad frequency", func(t *testing.T) {
		rt := valid
		rt.Frequency = "quarterly"
		if err := rt.Validate(); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("expected ErrInvalidFrequency, got %v", err)
		}
	})
}
