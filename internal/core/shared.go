package core

import (
	"errors"
	"strings"
)

type (
	// SharedExpense is an expense split between friends. The payer fronted
	// the total; each share tracks what one participant owes back.
	SharedExpense struct {
		ID             int64
		Description    string
		Date           Date
		Total          Money
		PayerAccountID int64
		Shares         []SharedShare
	}

	SharedShare struct {
		ID          int64
		ExpenseID   int64
		Participant string
		Amount      Money
		Settled     bool
	}
)

func (se SharedExpense) Validate() error {
	if len(strings.TrimSpace(se.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := se.Date.Validate(); err != nil {
		return err
	}
	if err := se.Total.Validate(); err != nil {
		return err
	}
	if se.PayerAccountID <= 0 {
		return errors.New("missing payer account reference")
	}
	if len(se.Shares) == 0 {
		return errors.New("shared expense needs at least one share")
	}
	var sum int64
	for _, sh := range se.Shares {
		if strings.TrimSpace(sh.Participant) == "" {
			return errors.New("empty participant name")
		}
		if err := sh.Amount.Validate(); err != nil {
			return err
		}
		sum += sh.Amount.Cents
	}
	if sum > se.Total.Cents {
		return errors.New("share amounts exceed the expense total")
	}
	return nil
}

// SplitEqually divides total cents across n shares, truncating each share
// to the cent and folding the remainder into the last share so the sum is
// exact. Same rounding discipline as loan installments.
func SplitEqually(total Money, participants []string) ([]SharedShare, error) {
	n := len(participants)
	if n <= 0 {
		return nil, errors.New("no participants")
	}
	if err := total.Validate(); err != nil {
		return nil, err
	}
	base := total.Cents / int64(n)
	shares := make([]SharedShare, n)
	for i, name := range participants {
		amount := base
		if i == n-1 {
			amount = total.Cents - base*int64(n-1)
		}
		shares[i] = SharedShare{Participant: name, Amount: Money{Cents: amount}}
	}
	return shares, nil
}

// Outstanding returns the unsettled portion of the expense.
func (se SharedExpense) Outstanding() Money {
	var out int64
	for _, sh := range se.Shares {
		if !sh.Settled {
			out += sh.Amount.Cents
		}
	}
	return Money{Cents: out}
}
