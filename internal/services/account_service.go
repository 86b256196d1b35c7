package services

import (
	"context"
	"fmt"

	"moneta/internal/core"
)

// AccountStore is the persistence surface the account service needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, a core.Account) (int64, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	AdjustAccountBalance(ctx context.Context, id int64, deltaCents int64) error
}

type AccountService struct {
	storage AccountStore
}

func NewAccountService(storage AccountStore) *AccountService {
	return &AccountService{storage: storage}
}

// Create validates and persists the account with its opening balance.
func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateAccount(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

// Update changes name, kind, limit and goal. The balance is not touched
// here: only postings and loan payments move it.
func (s *AccountService) Update(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateAccount(ctx, a); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
