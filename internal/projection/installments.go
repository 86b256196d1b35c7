package projection

import (
	"errors"

	"moneta/internal/core"
)

// Installment is one row of a generated schedule.
type Installment struct {
	Sequence int
	Amount   core.Money
	DueDate  core.Date
}

var (
	ErrInvalidCount     = errors.New("installment count must be positive")
	ErrInvalidPrincipal = errors.New("principal must be positive")
)

// BuildInstallmentSchedule splits a loan principal into count installments.
//
// The base amount is principal/count truncated to the cent; every
// installment except the last uses it, and the last absorbs the rounding
// remainder so the amounts sum to the principal exactly. Due dates advance
// from firstDue by (sequence-1) frequency steps, with the same calendar
// semantics as NextDate.
func BuildInstallmentSchedule(principal core.Money, count int, firstDue core.Date, freq core.Frequency) ([]Installment, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if principal.Cents <= 0 {
		return nil, ErrInvalidPrincipal
	}

	base := principal.Cents / int64(count) // truncates sub-cent remainder
	out := make([]Installment, count)
	due := firstDue.Time
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount = principal.Cents - base*int64(count-1)
		}
		out[i] = Installment{
			Sequence: i + 1,
			Amount:   core.Money{Cents: amount},
			DueDate:  core.Date{Time: due},
		}
		due = NextDate(due, freq)
	}
	return out, nil
}
