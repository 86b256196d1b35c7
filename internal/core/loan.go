package core

import (
	"errors"
	"strings"
)

const (
	LoanLent     LoanDirection = "lent"
	LoanBorrowed LoanDirection = "borrowed"
)

const (
	LoanPending LoanStatus = "pending"
	LoanPaid    LoanStatus = "paid"
	LoanOverdue LoanStatus = "overdue"
)

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentPartial InstallmentStatus = "partial"
)

type (
	LoanDirection     string
	LoanStatus        string
	InstallmentStatus string

	// LoanInstallment is one scheduled partial payment of a loan's
	// principal.
	LoanInstallment struct {
		ID          int64
		LoanID      int64
		Sequence    int
		Amount      Money
		DueDate     Date
		Status      InstallmentStatus
		PartialPaid Money // meaningful only while Status is partial
	}

	Loan struct {
		ID           int64
		Description  string
		Amount       Money
		Counterparty string
		Direction    LoanDirection
		Status       LoanStatus
		Origination  Date
		DueDate      Date
		// Installment plan. Count zero means no plan: the loan settles in
		// one movement on DueDate.
		InstallmentCount int
		FirstDueDate     Date
		Frequency        Frequency
		Installments     []LoanInstallment
	}
)

var (
	ErrEmptyCounterparty   = errors.New("empty counterparty")
	ErrInvalidDirection    = errors.New("invalid loan direction")
	ErrInvalidInstallments = errors.New("installment count must be positive")
)

func (d LoanDirection) Validate() error {
	switch d {
	case LoanLent, LoanBorrowed:
		return nil
	default:
		return ErrInvalidDirection
	}
}

func (l Loan) Validate() error {
	if len(strings.TrimSpace(l.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(l.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := l.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(l.Counterparty)) == 0 {
		return ErrEmptyCounterparty
	}
	if err := l.Direction.Validate(); err != nil {
		return err
	}
	if err := l.Origination.Validate(); err != nil {
		return errors.New("invalid origination date: " + err.Error())
	}
	if err := l.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	if l.HasPlan() {
		if l.InstallmentCount < 0 {
			return ErrInvalidInstallments
		}
		if err := l.FirstDueDate.Validate(); err != nil {
			return errors.New("invalid first installment date: " + err.Error())
		}
		if err := l.Frequency.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasPlan reports whether the loan carries an installment plan.
func (l Loan) HasPlan() bool {
	return l.InstallmentCount != 0
}

// FullyPaid reports whether every installment is paid, or for plan-less
// loans, whether the aggregate status is paid. A loan's aggregate status is
// "paid" only under this condition.
func (l Loan) FullyPaid() bool {
	if !l.HasPlan() {
		return l.Status == LoanPaid
	}
	if len(l.Installments) == 0 {
		return false
	}
	for _, inst := range l.Installments {
		if inst.Status != InstallmentPaid {
			return false
		}
	}
	return true
}

// OutstandingCents returns the unpaid remainder across installments; for
// plan-less loans the full amount while unpaid.
func (l Loan) OutstandingCents() int64 {
	if !l.HasPlan() {
		if l.Status == LoanPaid {
			return 0
		}
		return l.Amount.Cents
	}
	var out int64
	for _, inst := range l.Installments {
		switch inst.Status {
		case InstallmentPaid:
		case InstallmentPartial:
			out += inst.Amount.Cents - inst.PartialPaid.Cents
		default:
			out += inst.Amount.Cents
		}
	}
	return out
}
