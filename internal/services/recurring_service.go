package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/projection"
)

// RecurringStore is the persistence surface the recurring service needs.
type RecurringStore interface {
	CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error)
	ListRecurring(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id int64) error
	SetLastGenerated(ctx context.Context, id int64, d core.Date) error
	CreatePendingOccurrence(ctx context.Context, p core.PendingOccurrence) (int64, error)
	GetPendingOccurrence(ctx context.Context, id int64) (core.PendingOccurrence, error)
	ListPendingOccurrences(ctx context.Context) ([]core.PendingOccurrence, error)
	DeletePendingOccurrence(ctx context.Context, id int64) error
	ConfirmPendingOccurrence(ctx context.Context, pendingID int64, t core.Transaction) (int64, error)
}

// RecurringService manages recurring templates and the pending occurrences
// they generate. Occurrences are never posted automatically: Confirm
// materializes one into a transaction, Cancel discards it.
type RecurringService struct {
	storage      RecurringStore
	transactions TransactionRecorder
}

func NewRecurringService(storage RecurringStore, transactions TransactionRecorder) *RecurringService {
	return &RecurringService{
		storage:      storage,
		transactions: transactions,
	}
}

func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	if err := rt.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateRecurring(ctx, rt)
	if err != nil {
		return 0, fmt.Errorf("create recurring transaction: %w", err)
	}
	return id, nil
}

func (s *RecurringService) Get(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	return s.storage.GetRecurring(ctx, id)
}

func (s *RecurringService) List(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	return s.storage.ListRecurring(ctx, onlyActive)
}

func (s *RecurringService) Update(ctx context.Context, rt core.RecurringTransaction) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateRecurring(ctx, rt); err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return nil
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteRecurring(ctx, id)
}

// GeneratePending walks every active template from its watermark up to
// today, creating one pending occurrence per due date, and advances the
// watermark. The unique index on (recurring_id, due_date) makes reruns
// idempotent. Returns the number of occurrences created.
func (s *RecurringService) GeneratePending(ctx context.Context, today core.Date) (int, error) {
	templates, err := s.storage.ListRecurring(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	created := 0
	for _, rt := range templates {
		n, err := s.generateForTemplate(ctx, rt, today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to generate occurrences",
				"recurring_id", rt.ID,
				"error", err)
			continue
		}
		created += n
	}

	slog.InfoContext(ctx, "Pending generation completed",
		"templates", len(templates),
		"created", created,
		"date", today.Format("2006-01-02"))

	return created, nil
}

func (s *RecurringService) generateForTemplate(ctx context.Context, rt core.RecurringTransaction, today core.Date) (int, error) {
	cursor := rt.StartDate.Time
	if !rt.LastGenerated.IsZero() {
		cursor = projection.NextDate(rt.LastGenerated.Time, rt.Frequency)
	}

	created := 0
	last := rt.LastGenerated
	for !cursor.After(today.Time) {
		if !rt.EndDate.IsZero() && cursor.After(rt.EndDate.Time) {
			break
		}
		due := core.Date{Time: cursor}
		id, err := s.storage.CreatePendingOccurrence(ctx, core.PendingOccurrence{
			RecurringID: rt.ID,
			DueDate:     due,
			Description: rt.Description,
			Amount:      rt.Amount,
			Category:    rt.Category,
			AccountID:   rt.AccountID,
			Kind:        rt.Kind,
		})
		if err != nil {
			return created, err
		}
		if id != 0 {
			created++
		}
		last = due
		cursor = projection.NextDate(cursor, rt.Frequency)
	}

	if !last.IsZero() && !last.Equal(rt.LastGenerated.Time) {
		if err := s.storage.SetLastGenerated(ctx, rt.ID, last); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *RecurringService) ListPending(ctx context.Context) ([]core.PendingOccurrence, error) {
	return s.storage.ListPendingOccurrences(ctx)
}

// Confirm materializes a pending occurrence into a posted transaction. The
// posting and the pending-row removal commit together, so a retried confirm
// after any failure either finds the row intact or gets not-found, never a
// second posting.
func (s *RecurringService) Confirm(ctx context.Context, pendingID int64) (int64, error) {
	p, err := s.storage.GetPendingOccurrence(ctx, pendingID)
	if err != nil {
		return 0, fmt.Errorf("get pending occurrence: %w", err)
	}

	t := p.Transaction()
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("confirmed occurrence invalid: %w", err)
	}
	id, err := s.storage.ConfirmPendingOccurrence(ctx, pendingID, t)
	if err != nil {
		return 0, fmt.Errorf("confirm pending occurrence: %w", err)
	}
	s.transactions.PublishPosted(ctx, id)

	slog.InfoContext(ctx, "Pending occurrence confirmed",
		"pending_id", pendingID,
		"transaction_id", id)

	return id, nil
}

// Cancel discards a pending occurrence without posting anything.
func (s *RecurringService) Cancel(ctx context.Context, pendingID int64) error {
	if err := s.storage.DeletePendingOccurrence(ctx, pendingID); err != nil {
		return fmt.Errorf("cancel pending occurrence: %w", err)
	}
	slog.InfoContext(ctx, "Pending occurrence cancelled", "pending_id", pendingID)
	return nil
}
