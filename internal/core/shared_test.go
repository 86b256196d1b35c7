package core

import "testing"

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name         string
		total        int64
		participants []string
		amounts      []int64
	}{
		{"even split", 3000, []string{"a", "b", "c"}, []int64{1000, 1000, 1000}},
		{"remainder to last", 10000, []string{"a", "b", "c"}, []int64{3333, 3333, 3334}},
		{"single participant", 777, []string{"a"}, []int64{777}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEqually(Money{Cents: tt.total}, tt.participants)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var sum int64
			for i, sh := range shares {
				if sh.Amount.Cents != tt.amounts[i] {
					t.Errorf("share %d = %d, want %d", i, sh.Amount.Cents, tt.amounts[i])
				}
				sum += sh.Amount.Cents
			}
			if sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
		})
	}

	if _, err := SplitEqually(Money{Cents: 100}, nil); err == nil {
		t.Error("expected error for no participants")
	}
	if _, err := SplitEqually(Money{Cents: 0}, []string{"a"}); err == nil {
		t.Error("expected error for zero total")
	}
}

func TestSharedExpenseOutstanding(t *testing.T) {
	se := SharedExpense{
		Description:    "Dinner",
		Date:           NewDate(2025, 3, 1),
		Total:          Money{Cents: 6000},
		PayerAccountID: 1,
		Shares: []SharedShare{
			{Participant: "a", Amount: Money{Cents: 2000}, Settled: true},
			{Participant: "b", Amount: Money{Cents: 2000}},
		},
	}
	if err := se.Validate(); err != nil {
		t.Fatalf("valid shared expense rejected: %v", err)
	}
	if got := se.Outstanding().Cents; got != 2000 {
		t.Errorf("outstanding = %d, want 2000", got)
	}
}
