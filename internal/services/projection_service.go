package services

import (
	"context"
	"fmt"
	"time"

	"moneta/internal/core"
	"moneta/internal/projection"
)

// ProjectionSnapshot loads the inputs the projector needs.
type ProjectionSnapshot interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListRecurring(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error)
	ListLoans(ctx context.Context, onlyOpen bool) ([]core.Loan, error)
}

// ProjectionService snapshots persisted state and runs the pure projector
// over it. Results are ephemeral; nothing here writes.
type ProjectionService struct {
	storage ProjectionSnapshot
	now     func() time.Time
}

func NewProjectionService(storage ProjectionSnapshot) *ProjectionService {
	return &ProjectionService{
		storage: storage,
		now:     time.Now,
	}
}

// Project forecasts balances at target. A target before today yields a nil
// result, mirroring the projector.
func (s *ProjectionService) Project(ctx context.Context, target time.Time) (*projection.Result, error) {
	accounts, err := s.storage.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	recurrences, err := s.storage.ListRecurring(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load recurring transactions: %w", err)
	}
	loans, err := s.storage.ListLoans(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}

	return projection.Project(s.now(), target, accounts, recurrences, loans), nil
}
