package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

// CreateSharedExpense inserts the expense and its shares atomically.
func (r *SQLiteRepository) CreateSharedExpense(ctx context.Context, se core.SharedExpense) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO shared_expenses (description, date, total_cents, payer_account_id)
			VALUES (?, ?, ?, ?)`,
			se.Description, fmtDate(se.Date), se.Total.Cents, se.PayerAccountID)
		if err != nil {
			return fmt.Errorf("insert shared expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("shared expense insert id: %w", err)
		}
		for _, sh := range se.Shares {
			_, err := tx.Exec(`
				INSERT INTO shared_expense_shares (expense_id, participant, amount_cents, settled)
				VALUES (?, ?, ?, 0)`,
				id, sh.Participant, sh.Amount.Cents)
			if err != nil {
				return fmt.Errorf("insert share for %q: %w", sh.Participant, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Shared expense created",
		"id", id,
		"total_cents", se.Total.Cents,
		"shares", len(se.Shares))

	return id, nil
}

func (r *SQLiteRepository) GetSharedExpense(ctx context.Context, id int64) (core.SharedExpense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, description, date, total_cents, payer_account_id
		FROM shared_expenses WHERE id = ?`, id)

	var (
		se   core.SharedExpense
		date string
	)
	err := row.Scan(&se.ID, &se.Description, &date, &se.Total.Cents, &se.PayerAccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SharedExpense{}, ErrNotFound
	}
	if err != nil {
		return core.SharedExpense{}, fmt.Errorf("get shared expense %d: %w", id, err)
	}
	se.Date = parseDate(date)
	se.Shares, err = r.listShares(ctx, id)
	if err != nil {
		return core.SharedExpense{}, err
	}
	return se, nil
}

func (r *SQLiteRepository) ListSharedExpenses(ctx context.Context) ([]core.SharedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, date, total_cents, payer_account_id
		FROM shared_expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shared expenses: %w", err)
	}
	defer rows.Close()

	var out []core.SharedExpense
	for rows.Next() {
		var (
			se   core.SharedExpense
			date string
		)
		if err := rows.Scan(&se.ID, &se.Description, &date, &se.Total.Cents, &se.PayerAccountID); err != nil {
			return nil, fmt.Errorf("scan shared expense: %w", err)
		}
		se.Date = parseDate(date)
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Shares, err = r.listShares(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) listShares(ctx context.Context, expenseID int64) ([]core.SharedShare, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_id, participant, amount_cents, settled
		FROM shared_expense_shares
		WHERE expense_id = ?
		ORDER BY id`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list shares of expense %d: %w", expenseID, err)
	}
	defer rows.Close()

	var out []core.SharedShare
	for rows.Next() {
		var sh core.SharedShare
		if err := rows.Scan(&sh.ID, &sh.ExpenseID, &sh.Participant, &sh.Amount.Cents, &sh.Settled); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetShare(ctx context.Context, id int64) (core.SharedShare, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, expense_id, participant, amount_cents, settled
		FROM shared_expense_shares WHERE id = ?`, id)

	var sh core.SharedShare
	err := row.Scan(&sh.ID, &sh.ExpenseID, &sh.Participant, &sh.Amount.Cents, &sh.Settled)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SharedShare{}, ErrNotFound
	}
	if err != nil {
		return core.SharedShare{}, fmt.Errorf("get share %d: %w", id, err)
	}
	return sh, nil
}

// SettleShare marks the share repaid and posts the repayment in one
// database transaction. The settled guard in the UPDATE makes a repeat
// call report ErrNotFound instead of posting twice.
func (r *SQLiteRepository) SettleShare(ctx context.Context, shareID int64, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"UPDATE shared_expense_shares SET settled = 1 WHERE id = ? AND settled = 0", shareID)
		if err != nil {
			return fmt.Errorf("settle share %d: %w", shareID, err)
		}
		if err := requireRow(res, shareID); err != nil {
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

	slog.InfoContext(ctx, "Share settled", "id", shareID, "transaction_id", id)
	return id, nil
}

func (r *SQLiteRepository) DeleteSharedExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM shared_expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete shared expense %d: %w", id, err)
	}
	return requireRow(res, id)
}
