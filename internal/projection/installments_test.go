package projection

import (
	"errors"
	"testing"

	"moneta/internal/core"
)

func TestBuildInstallmentSchedule_SumInvariant(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		count     int
		amounts   []int64
	}{
		{"100.00 over 3", 10000, 3, []int64{3333, 3333, 3334}},
		{"10.00 over 3", 1000, 3, []int64{333, 333, 334}},
		{"exact split", 9000, 3, []int64{3000, 3000, 3000}},
		{"single installment", 777, 1, []int64{777}},
		{"one cent each", 5, 5, []int64{1, 1, 1, 1, 1}},
		{"fewer cents than installments", 2, 3, []int64{0, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildInstallmentSchedule(core.Money{Cents: tt.principal}, tt.count, core.NewDate(2025, 1, 15), core.Monthly)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("expected %d installments, got %d", tt.count, len(got))
			}
			var sum int64
			for i, inst := range got {
				if inst.Sequence != i+1 {
					t.Errorf("installment %d has sequence %d", i, inst.Sequence)
				}
				if inst.Amount.Cents != tt.amounts[i] {
					t.Errorf("installment %d amount = %d, want %d", i+1, inst.Amount.Cents, tt.amounts[i])
				}
				sum += inst.Amount.Cents
			}
			if sum != tt.principal {
				t.Errorf("amounts sum to %d, want exactly %d", sum, tt.principal)
			}
		})
	}
}

func TestBuildInstallmentSchedule_DueDates(t *testing.T) {
	// principal=10.00, count=3, monthly from 2025-01-15
	got, err := BuildInstallmentSchedule(core.Money{Cents: 1000}, 3, core.NewDate(2025, 1, 15), core.Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDue := []core.Date{core.NewDate(2025, 1, 15), core.NewDate(2025, 2, 15), core.NewDate(2025, 3, 15)}
	wantAmt := []int64{333, 333, 334}
	for i, inst := range got {
		if !inst.DueDate.Equal(wantDue[i].Time) {
			t.Errorf("installment %d due %v, want %v", i+1, inst.DueDate, wantDue[i])
		}
		if inst.Amount.Cents != wantAmt[i] {
			t.Errorf("installment %d amount %d, want %d", i+1, inst.Amount.Cents, wantAmt[i])
		}
	}
}

func TestBuildInstallmentSchedule_InvalidInput(t *testing.T) {
	if _, err := BuildInstallmentSchedule(core.Money{Cents: 1000}, 0, core.NewDate(2025, 1, 15), core.Monthly); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("count=0: expected ErrInvalidCount, got %v", err)
	}
	if _, err := BuildInstallmentSchedule(core.Money{Cents: 1000}, -2, core.NewDate(2025, 1, 15), core.Monthly); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("count<0: expected ErrInvalidCount, got %v", err)
	}
	if _, err := BuildInstallmentSchedule(core.Money{Cents: 0}, 3, core.NewDate(2025, 1, 15), core.Monthly); !errors.Is(err, ErrInvalidPrincipal) {
		t.Errorf("principal=0: expected ErrInvalidPrincipal, got %v", err)
	}
}
