// Package worker mirrors locally stored transactions into the configured
// export backend, driven by AMQP sync messages with a periodic catch-up
// sweep for anything the broker lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/export"
	"moneta/internal/storage"
)

// Storage is the slice of the repository the worker needs.
type Storage interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker pushes transactions to the export backend.
type SyncWorker struct {
	storage   Storage
	writer    export.TransactionWriter
	remover   export.TransactionRemover
	batchSize int
}

func NewSyncWorker(st Storage, writer export.TransactionWriter, remover export.TransactionRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from AMQP. Deletions
// carry no payload beyond the ID; creations are re-read from storage so
// the mirror always reflects the stored row, not the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version,
		"deleted", msg.Deleted)

	if msg.Deleted {
		return w.removeFromExport(ctx, msg.ID)
	}

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.syncToExport(ctx, t)
}

// removeFromExport drops the mirrored row for a deleted transaction.
func (w *SyncWorker) removeFromExport(ctx context.Context, id int64) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping export deletion", "id", id)
		return nil
	}

	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove transaction from export: %w", err)
	}

	slog.InfoContext(ctx, "Removed transaction from export", "id", id)
	return nil
}

// ProcessPending mirrors transactions that still wait for sync. This is
// the backup path for AMQP messages that never arrived.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		t, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
			}
			continue
		}

		if err := w.syncToExport(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, with
// a larger batch than the periodic sweep. Recovers from missed AMQP
// messages and worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		t, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup sync",
				"id", p.ID, "error", err)
			if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
			}
			failed++
			continue
		}

		if err := w.syncToExport(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

// RunPeriodic sweeps the pending backlog on the given interval until the
// context is canceled.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncToExport(ctx context.Context, t core.Transaction) error {
	ref, err := w.writer.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to export: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		// The append itself worked, keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"id", t.ID,
		"export_ref", ref,
		"description", t.Description,
		"amount_cents", t.Amount.Cents)

	return nil
}
