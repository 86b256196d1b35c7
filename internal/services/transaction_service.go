// Package services provides business logic and orchestration over storage
// and messaging.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// TransactionStore is the persistence surface the transaction service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	CreateTransferPair(ctx context.Context, out, in core.Transaction) (int64, int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// SyncPublisher notifies the export worker about writes. Implemented by the
// AMQP client; nil disables publishing.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishTransactionDelete(ctx context.Context, id, version int64) error
}

// TransactionService orchestrates postings across SQLite and AMQP.
type TransactionService struct {
	storage   TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(storage TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

// Record validates and persists an income or expense posting, then publishes
// a sync message. The local write wins: publish failures are logged, never
// surfaced to the caller.
func (s *TransactionService) Record(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if t.Kind == core.Transfer {
		return 0, fmt.Errorf("transfers go through RecordTransfer: %w", core.ErrInvalidKind)
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.PublishPosted(ctx, id)
	return id, nil
}

// RecordTransfer moves amount between two accounts as a linked pair of
// transfer postings sharing a group UUID.
func (s *TransactionService) RecordTransfer(ctx context.Context, fromID, toID int64, amount core.Money, date core.Date, description string) (outID, inID int64, err error) {
	if fromID == toID {
		return 0, 0, core.ErrSameAccount
	}
	// A transfer is stored as an expense leg plus an income leg sharing a
	// group UUID, so balance posting and reversal fall out of SignedCents.
	group := uuid.NewString()
	out := core.Transaction{
		Date:          date,
		Description:   description,
		Amount:        amount,
		Category:      "Transfer",
		AccountID:     fromID,
		Kind:          core.Expense,
		TransferGroup: group,
	}
	in := out
	in.AccountID = toID
	in.Kind = core.Income
	if err := out.Validate(); err != nil {
		return 0, 0, err
	}

	outID, inID, err = s.storage.CreateTransferPair(ctx, out, in)
	if err != nil {
		return 0, 0, fmt.Errorf("save transfer: %w", err)
	}

	s.PublishPosted(ctx, outID)
	s.PublishPosted(ctx, inID)
	return outID, inID, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) ListMonth(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, year, month)
}

// Delete removes a posting (both legs for transfers) and publishes a delete
// message so the export target can follow.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping delete message")
		return nil
	}
	if err := s.publisher.PublishTransactionDelete(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

// PublishPosted announces an already persisted posting to the export
// worker. Failures are logged only; the periodic sweep re-delivers anything
// the broker missed.
func (s *TransactionService) PublishPosted(ctx context.Context, id int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping sync message")
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// trimToLimit shortens a composed description to the posting limit without
// splitting a multibyte character. Descriptions built from user text plus a
// fixed prefix or suffix can exceed what a bare posting accepts.
func trimToLimit(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
