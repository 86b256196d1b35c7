package core

import (
	"errors"
	"strings"
)

type (
	// RecurringTransaction is a template for periodic postings. It never
	// posts by itself: due occurrences become PendingOccurrence rows that
	// the user confirms or cancels.
	RecurringTransaction struct {
		ID          int64
		Description string
		Amount      Money
		Category    string
		AccountID   int64
		Kind        TransactionKind // income or expense only
		Frequency   Frequency
		StartDate   Date
		EndDate     Date // zero = no end
		Active      bool
		// LastGenerated is the watermark: the latest occurrence date for
		// which a pending row has already been created.
		LastGenerated Date
	}

	// PendingOccurrence is one generated instance of a recurring
	// transaction awaiting explicit confirmation or cancellation.
	PendingOccurrence struct {
		ID          int64
		RecurringID int64
		DueDate     Date
		Description string
		Amount      Money
		Category    string
		AccountID   int64
		Kind        TransactionKind
	}
)

func (rt RecurringTransaction) Validate() error {
	if err := rt.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !rt.EndDate.IsZero() {
		if err := rt.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if rt.EndDate.Before(rt.StartDate.Time) {
			return errors.New("end date must not precede start date")
		}
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	if rt.AccountID <= 0 {
		return errors.New("missing account reference")
	}
	switch rt.Kind {
	case Income, Expense:
	default:
		return ErrInvalidKind
	}
	return nil
}

// Transaction materializes the pending occurrence into a posting dated at
// its due date. The caller assigns the ID on persist.
func (p PendingOccurrence) Transaction() Transaction {
	return Transaction{
		Date:        p.DueDate,
		Description: p.Description,
		Amount:      p.Amount,
		Category:    p.Category,
		AccountID:   p.AccountID,
		Kind:        p.Kind,
	}
}
