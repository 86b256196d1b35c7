package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"moneta/internal/core"
)

func newSharedFixture(t *testing.T) (*fakeStore, *SharedExpenseService, int64) {
	t.Helper()
	store := newFakeStore()
	svc := NewSharedExpenseService(store, NewTransactionService(store, nil))

	accID, _ := store.CreateAccount(context.Background(), core.Account{
		Name: "Main", Kind: core.AccountSavings, Balance: core.Money{Cents: 10000},
	})
	return store, svc, accID
}

func TestCreateEqualSplit(t *testing.T) {
	store, svc, accID := newSharedFixture(t)

	id, err := svc.Create(context.Background(), core.SharedExpense{
		Description:    "Pizza night",
		Date:           core.NewDate(2025, 2, 14),
		Total:          core.Money{Cents: 10000},
		PayerAccountID: accID,
	}, []string{"Ada", "Bea", "Cal"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	se, _ := store.GetSharedExpense(context.Background(), id)
	if len(se.Shares) != 3 {
		t.Fatalf("shares = %d, want 3", len(se.Shares))
	}
	if se.Shares[0].Amount.Cents != 3333 || se.Shares[1].Amount.Cents != 3333 || se.Shares[2].Amount.Cents != 3334 {
		t.Errorf("share amounts = %d/%d/%d, want 3333/3333/3334",
			se.Shares[0].Amount.Cents, se.Shares[1].Amount.Cents, se.Shares[2].Amount.Cents)
	}
	if se.Outstanding().Cents != 10000 {
		t.Errorf("outstanding = %d, want 10000", se.Outstanding().Cents)
	}
}

func TestCreateExplicitSharesValidated(t *testing.T) {
	_, svc, accID := newSharedFixture(t)

	_, err := svc.Create(context.Background(), core.SharedExpense{
		Description:    "Trip",
		Date:           core.NewDate(2025, 2, 14),
		Total:          core.Money{Cents: 5000},
		PayerAccountID: accID,
		Shares: []core.SharedShare{
			{Participant: "Ada", Amount: core.Money{Cents: 4000}},
			{Participant: "Bea", Amount: core.Money{Cents: 2000}},
		},
	}, nil)
	if err == nil {
		t.Error("shares exceeding the total must be rejected")
	}
}

func TestSettleSharePostsRepayment(t *testing.T) {
	store, svc, accID := newSharedFixture(t)

	id, err := svc.Create(context.Background(), core.SharedExpense{
		Description:    "Groceries run",
		Date:           core.NewDate(2025, 2, 1),
		Total:          core.Money{Cents: 6000},
		PayerAccountID: accID,
	}, []string{"Ada", "Bea"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	se, _ := store.GetSharedExpense(context.Background(), id)

	if err := svc.SettleShare(context.Background(), se.Shares[0].ID, core.NewDate(2025, 2, 10)); err != nil {
		t.Fatalf("SettleShare: %v", err)
	}

	se, _ = store.GetSharedExpense(context.Background(), id)
	if !se.Shares[0].Settled {
		t.Error("share must be settled")
	}
	if se.Outstanding().Cents != 3000 {
		t.Errorf("outstanding = %d, want 3000", se.Outstanding().Cents)
	}

	// The repayment lands as income on the payer's account.
	acc, _ := store.GetAccount(context.Background(), accID)
	if acc.Balance.Cents != 13000 {
		t.Errorf("payer balance = %d, want 13000", acc.Balance.Cents)
	}

	if err := svc.SettleShare(context.Background(), se.Shares[0].ID, core.NewDate(2025, 2, 11)); err == nil {
		t.Error("settling twice must fail")
	}
}

func TestSettleShareClampsLongDescription(t *testing.T) {
	store, svc, accID := newSharedFixture(t)

	id, err := svc.Create(context.Background(), core.SharedExpense{
		Description:    strings.Repeat("x", 195),
		Date:           core.NewDate(2025, 3, 1),
		Total:          core.Money{Cents: 4000},
		PayerAccountID: accID,
	}, []string{"Ada", "Bea"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	se, _ := store.GetSharedExpense(context.Background(), id)

	if err := svc.SettleShare(context.Background(), se.Shares[0].ID, core.NewDate(2025, 3, 2)); err != nil {
		t.Fatalf("SettleShare: %v", err)
	}

	se, _ = store.GetSharedExpense(context.Background(), id)
	if !se.Shares[0].Settled {
		t.Error("share must be settled")
	}
	if len(store.transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(store.transactions))
	}
	for _, tx := range store.transactions {
		if len(tx.Description) > 200 {
			t.Errorf("repayment description is %d bytes, want at most 200", len(tx.Description))
		}
	}
}

// settleFailStore simulates a storage failure while settling.
type settleFailStore struct {
	*fakeStore
}

func (s *settleFailStore) SettleShare(context.Context, int64, core.Transaction) (int64, error) {
	return 0, errors.New("commit failed")
}

func TestSettleShareFailureLeavesShareOpen(t *testing.T) {
	inner := newFakeStore()
	store := &settleFailStore{fakeStore: inner}
	svc := NewSharedExpenseService(store, NewTransactionService(inner, nil))

	accID, _ := inner.CreateAccount(context.Background(), core.Account{
		Name: "Main", Kind: core.AccountSavings, Balance: core.Money{Cents: 10000},
	})
	id, err := svc.Create(context.Background(), core.SharedExpense{
		Description:    "Dinner",
		Date:           core.NewDate(2025, 3, 1),
		Total:          core.Money{Cents: 4000},
		PayerAccountID: accID,
	}, []string{"Ada", "Bea"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	se, _ := inner.GetSharedExpense(context.Background(), id)

	if err := svc.SettleShare(context.Background(), se.Shares[0].ID, core.NewDate(2025, 3, 2)); err == nil {
		t.Fatal("expected settle to fail")
	}

	se, _ = inner.GetSharedExpense(context.Background(), id)
	if se.Shares[0].Settled {
		t.Error("share must stay open after a failed settle")
	}
	if len(inner.transactions) != 0 {
		t.Errorf("failed settle posted %d transactions, want 0", len(inner.transactions))
	}
	acc, _ := inner.GetAccount(context.Background(), accID)
	if acc.Balance.Cents != 10000 {
		t.Errorf("balance = %d, want 10000 untouched", acc.Balance.Cents)
	}
}
