package services

import (
	"context"
	"fmt"

	"moneta/internal/core"
)

// SharedExpenseStore is the persistence surface the shared expense service
// needs.
type SharedExpenseStore interface {
	CreateSharedExpense(ctx context.Context, se core.SharedExpense) (int64, error)
	GetSharedExpense(ctx context.Context, id int64) (core.SharedExpense, error)
	ListSharedExpenses(ctx context.Context) ([]core.SharedExpense, error)
	GetShare(ctx context.Context, id int64) (core.SharedShare, error)
	SettleShare(ctx context.Context, shareID int64, t core.Transaction) (int64, error)
	DeleteSharedExpense(ctx context.Context, id int64) error
}

type SharedExpenseService struct {
	storage      SharedExpenseStore
	transactions TransactionRecorder
}

func NewSharedExpenseService(storage SharedExpenseStore, transactions TransactionRecorder) *SharedExpenseService {
	return &SharedExpenseService{
		storage:      storage,
		transactions: transactions,
	}
}

// Create persists a shared expense. With explicit shares they are taken as
// given; otherwise the total splits equally across participants, remainder
// folded into the last share.
func (s *SharedExpenseService) Create(ctx context.Context, se core.SharedExpense, participants []string) (int64, error) {
	if len(se.Shares) == 0 {
		shares, err := core.SplitEqually(se.Total, participants)
		if err != nil {
			return 0, err
		}
		se.Shares = shares
	}
	if err := se.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateSharedExpense(ctx, se)
	if err != nil {
		return 0, fmt.Errorf("create shared expense: %w", err)
	}
	return id, nil
}

func (s *SharedExpenseService) Get(ctx context.Context, id int64) (core.SharedExpense, error) {
	return s.storage.GetSharedExpense(ctx, id)
}

func (s *SharedExpenseService) List(ctx context.Context) ([]core.SharedExpense, error) {
	return s.storage.ListSharedExpenses(ctx)
}

func (s *SharedExpenseService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteSharedExpense(ctx, id)
}

// SettleShare marks a participant's share repaid and posts the repayment as
// income on the payer's account.
func (s *SharedExpenseService) SettleShare(ctx context.Context, shareID int64, date core.Date) error {
	share, err := s.storage.GetShare(ctx, shareID)
	if err != nil {
		return fmt.Errorf("get share: %w", err)
	}
	if share.Settled {
		return fmt.Errorf("share %d is already settled", shareID)
	}
	expense, err := s.storage.GetSharedExpense(ctx, share.ExpenseID)
	if err != nil {
		return fmt.Errorf("get shared expense: %w", err)
	}

	// The settled flag and the income posting commit together, so a
	// rejected posting cannot strand a settled share with no repayment.
	t := core.Transaction{
		Date:        date,
		Description: trimToLimit(fmt.Sprintf("Repayment from %s: %s", share.Participant, expense.Description)),
		Amount:      share.Amount,
		Category:    "Shared",
		AccountID:   expense.PayerAccountID,
		Kind:        core.Income,
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("share repayment invalid: %w", err)
	}

	id, err := s.storage.SettleShare(ctx, shareID, t)
	if err != nil {
		return fmt.Errorf("settle share: %w", err)
	}
	s.transactions.PublishPosted(ctx, id)
	return nil
}
