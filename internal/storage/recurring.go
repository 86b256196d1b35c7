package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

const recurringColumns = "id, description, amount_cents, category, account_id, kind, frequency, start_date, end_date, active, last_generated"

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringTransaction, error) {
	var (
		rt            core.RecurringTransaction
		kind, freq    string
		start         string
		end, lastGen  sql.NullString
	)
	err := row.Scan(&rt.ID, &rt.Description, &rt.Amount.Cents, &rt.Category, &rt.AccountID,
		&kind, &freq, &start, &end, &rt.Active, &lastGen)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Kind = core.TransactionKind(kind)
	rt.Frequency = core.Frequency(freq)
	rt.StartDate = parseDate(start)
	if end.Valid {
		rt.EndDate = parseDate(end.String)
	}
	if lastGen.Valid {
		rt.LastGenerated = parseDate(lastGen.String)
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (description, amount_cents, category, account_id, kind, frequency, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.Description, rt.Amount.Cents, rt.Category, rt.AccountID,
		string(rt.Kind), string(rt.Frequency), fmtDate(rt.StartDate), nullDate(rt.EndDate), rt.Active)
	if err != nil {
		return 0, fmt.Errorf("create recurring transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring insert id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring transaction created",
		"id", id,
		"frequency", rt.Frequency,
		"amount_cents", rt.Amount.Cents)

	return id, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_transactions WHERE id = ?", id)
	rt, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("get recurring transaction %d: %w", id, err)
	}
	return rt, nil
}

// ListRecurring returns recurring transactions; onlyActive restricts to
// templates still generating occurrences.
func (r *SQLiteRepository) ListRecurring(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	q := "SELECT " + recurringColumns + " FROM recurring_transactions"
	if onlyActive {
		q += " WHERE active = 1"
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET description = ?, amount_cents = ?, category = ?, account_id = ?, kind = ?, frequency = ?, start_date = ?, end_date = ?, active = ?
		WHERE id = ?`,
		rt.Description, rt.Amount.Cents, rt.Category, rt.AccountID,
		string(rt.Kind), string(rt.Frequency), fmtDate(rt.StartDate), nullDate(rt.EndDate), rt.Active, rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction %d: %w", rt.ID, err)
	}
	return requireRow(res, rt.ID)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recurring_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction %d: %w", id, err)
	}
	return requireRow(res, id)
}

// SetLastGenerated advances the generation watermark.
func (r *SQLiteRepository) SetLastGenerated(ctx context.Context, id int64, d core.Date) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_transactions SET last_generated = ? WHERE id = ?", fmtDate(d), id)
	if err != nil {
		return fmt.Errorf("set last generated for recurring %d: %w", id, err)
	}
	return requireRow(res, id)
}

// CreatePendingOccurrence inserts one due occurrence. The unique index on
// (recurring_id, due_date) makes generation idempotent; duplicates are
// reported as already existing.
func (r *SQLiteRepository) CreatePendingOccurrence(ctx context.Context, p core.PendingOccurrence) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_occurrences (recurring_id, due_date, description, amount_cents, category, account_id, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.RecurringID, fmtDate(p.DueDate), p.Description, p.Amount.Cents, p.Category, p.AccountID, string(p.Kind))
	if err != nil {
		return 0, fmt.Errorf("create pending occurrence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pending occurrence rows affected: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("pending occurrence insert id: %w", err)
	}
	return id, nil
}

const occurrenceColumns = "id, recurring_id, due_date, description, amount_cents, category, account_id, kind"

func scanOccurrence(row interface{ Scan(...any) error }) (core.PendingOccurrence, error) {
	var (
		p    core.PendingOccurrence
		due  string
		kind string
	)
	err := row.Scan(&p.ID, &p.RecurringID, &due, &p.Description, &p.Amount.Cents, &p.Category, &p.AccountID, &kind)
	if err != nil {
		return core.PendingOccurrence{}, err
	}
	p.DueDate = parseDate(due)
	p.Kind = core.TransactionKind(kind)
	return p, nil
}

func (r *SQLiteRepository) GetPendingOccurrence(ctx context.Context, id int64) (core.PendingOccurrence, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+occurrenceColumns+" FROM pending_occurrences WHERE id = ?", id)
	p, err := scanOccurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PendingOccurrence{}, ErrNotFound
	}
	if err != nil {
		return core.PendingOccurrence{}, fmt.Errorf("get pending occurrence %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPendingOccurrences(ctx context.Context) ([]core.PendingOccurrence, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+occurrenceColumns+" FROM pending_occurrences ORDER BY due_date, id")
	if err != nil {
		return nil, fmt.Errorf("list pending occurrences: %w", err)
	}
	defer rows.Close()

	var out []core.PendingOccurrence
	for rows.Next() {
		p, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending occurrence: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeletePendingOccurrence(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pending_occurrences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete pending occurrence %d: %w", id, err)
	}
	return requireRow(res, id)
}

// ConfirmPendingOccurrence removes the pending row and posts the
// materialized transaction in one database transaction. The delete runs
// first, so a row that has already been confirmed (or cancelled) reports
// ErrNotFound and nothing is posted.
func (r *SQLiteRepository) ConfirmPendingOccurrence(ctx context.Context, pendingID int64, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM pending_occurrences WHERE id = ?", pendingID)
		if err != nil {
			return fmt.Errorf("delete pending occurrence %d: %w", pendingID, err)
		}
		if err := requireRow(res, pendingID); err != nil {
			return err
		}
		id, err = insertTransactionTx(tx, t)
		if err != nil {
			return err
		}
		return adjustBalanceTx(tx, t.AccountID, t.SignedCents())
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Pending occurrence confirmed",
		"pending_id", pendingID,
		"transaction_id", id)

	return id, nil
}
