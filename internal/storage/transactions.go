package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/core"
)

// PendingSyncTransaction identifies a row awaiting export.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

const transactionColumns = "id, date, description, amount_cents, category, account_id, kind, transfer_group"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t    core.Transaction
		date string
		kind string
	)
	err := row.Scan(&t.ID, &date, &t.Description, &t.Amount.Cents, &t.Category, &t.AccountID, &kind, &t.TransferGroup)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = parseDate(date)
	t.Kind = core.TransactionKind(kind)
	return t, nil
}

func insertTransactionTx(tx *sql.Tx, t core.Transaction) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO transactions (date, description, amount_cents, category, account_id, kind, transfer_group)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fmtDate(t.Date), t.Description, t.Amount.Cents, t.Category, t.AccountID, string(t.Kind), t.TransferGroup)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

// CreateTransaction inserts a posting and applies its signed effect to the
// account balance in the same database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertTransactionTx(tx, t)
		if err != nil {
			return err
		}
		return adjustBalanceTx(tx, t.AccountID, t.SignedCents())
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"account_id", t.AccountID)

	return id, nil
}

// CreateTransferPair inserts both legs of a transfer atomically. The legs
// share the transfer group so they can only be deleted together; each leg
// posts its own signed effect.
func (r *SQLiteRepository) CreateTransferPair(ctx context.Context, out, in core.Transaction) (outID, inID int64, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		outID, err = insertTransactionTx(tx, out)
		if err != nil {
			return err
		}
		inID, err = insertTransactionTx(tx, in)
		if err != nil {
			return err
		}
		if err := adjustBalanceTx(tx, out.AccountID, out.SignedCents()); err != nil {
			return err
		}
		return adjustBalanceTx(tx, in.AccountID, in.SignedCents())
	})
	if err != nil {
		return 0, 0, err
	}

	slog.InfoContext(ctx, "Transfer recorded",
		"group", out.TransferGroup,
		"from_account", out.AccountID,
		"to_account", in.AccountID,
		"amount_cents", out.Amount.Cents)

	return outID, inID, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND deleted_at IS NULL", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns the postings of one calendar month, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE date LIKE ? || '%' AND deleted_at IS NULL
		ORDER BY date DESC, id DESC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", prefix, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTransaction soft-deletes a posting and reverses its balance effect.
// Transfer legs are deleted by group: removing either leg removes both and
// restores both balances.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	t, err := r.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	ids := []int64{id}
	if t.TransferGroup != "" {
		var err error
		ids, err = r.transferGroupIDs(ctx, t.TransferGroup)
		if err != nil {
			return err
		}
	}

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		for _, tid := range ids {
			row := tx.QueryRow(
				"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND deleted_at IS NULL", tid)
			leg, err := scanTransaction(row)
			if err != nil {
				return fmt.Errorf("load transaction %d for delete: %w", tid, err)
			}
			res, err := tx.Exec(`
				UPDATE transactions
				SET deleted_at = CURRENT_TIMESTAMP, version = version + 1, sync_status = 'pending'
				WHERE id = ? AND deleted_at IS NULL`, tid)
			if err != nil {
				return fmt.Errorf("delete transaction %d: %w", tid, err)
			}
			if err := requireRow(res, tid); err != nil {
				return err
			}
			if err := adjustBalanceTx(tx, leg.AccountID, -leg.SignedCents()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "legs", len(ids))
	return nil
}

func (r *SQLiteRepository) transferGroupIDs(ctx context.Context, group string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM transactions WHERE transfer_group = ? AND deleted_at IS NULL ORDER BY id", group)
	if err != nil {
		return nil, fmt.Errorf("list transfer group %s: %w", group, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transfer leg: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPendingSyncTransactions returns rows that still need to be exported.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM transactions
		WHERE sync_status IN ('pending', 'error') AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = 'synced' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = 'error' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
