package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

const loanColumns = "id, description, amount_cents, counterparty, direction, status, origination_date, due_date, installment_count, first_due_date, frequency"

func scanLoan(row interface{ Scan(...any) error }) (core.Loan, error) {
	var (
		l                 core.Loan
		direction, status string
		orig, due         string
		firstDue, freq    sql.NullString
	)
	err := row.Scan(&l.ID, &l.Description, &l.Amount.Cents, &l.Counterparty,
		&direction, &status, &orig, &due, &l.InstallmentCount, &firstDue, &freq)
	if err != nil {
		return core.Loan{}, err
	}
	l.Direction = core.LoanDirection(direction)
	l.Status = core.LoanStatus(status)
	l.Origination = parseDate(orig)
	l.DueDate = parseDate(due)
	if firstDue.Valid {
		l.FirstDueDate = parseDate(firstDue.String)
	}
	if freq.Valid {
		l.Frequency = core.Frequency(freq.String)
	}
	return l, nil
}

// CreateLoan inserts the loan and its installment rows atomically.
func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.Loan) (int64, error) {
	var firstDue, freq any
	if l.HasPlan() {
		firstDue = fmtDate(l.FirstDueDate)
		freq = string(l.Frequency)
	}

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO loans (description, amount_cents, counterparty, direction, status, origination_date, due_date, installment_count, first_due_date, frequency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Description, l.Amount.Cents, l.Counterparty, string(l.Direction), string(core.LoanPending),
			fmtDate(l.Origination), fmtDate(l.DueDate), l.InstallmentCount, firstDue, freq)
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("loan insert id: %w", err)
		}
		for _, inst := range l.Installments {
			_, err := tx.Exec(`
				INSERT INTO loan_installments (loan_id, sequence, amount_cents, due_date, status)
				VALUES (?, ?, ?, ?, ?)`,
				id, inst.Sequence, inst.Amount.Cents, fmtDate(inst.DueDate), string(core.InstallmentPending))
			if err != nil {
				return fmt.Errorf("insert installment %d: %w", inst.Sequence, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Loan created",
		"id", id,
		"direction", l.Direction,
		"amount_cents", l.Amount.Cents,
		"installments", l.InstallmentCount)

	return id, nil
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, id int64) (core.Loan, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = ?", id)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Loan{}, ErrNotFound
	}
	if err != nil {
		return core.Loan{}, fmt.Errorf("get loan %d: %w", id, err)
	}
	l.Installments, err = r.listInstallments(ctx, id)
	if err != nil {
		return core.Loan{}, err
	}
	return l, nil
}

// ListLoans returns loans with their installments; onlyOpen restricts to
// loans not yet fully paid.
func (r *SQLiteRepository) ListLoans(ctx context.Context, onlyOpen bool) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+loanColumns+" FROM loans ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range loans {
		loans[i].Installments, err = r.listInstallments(ctx, loans[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if !onlyOpen {
		return loans, nil
	}
	open := loans[:0]
	for _, l := range loans {
		if !l.FullyPaid() {
			open = append(open, l)
		}
	}
	return open, nil
}

func (r *SQLiteRepository) listInstallments(ctx context.Context, loanID int64) ([]core.LoanInstallment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, loan_id, sequence, amount_cents, due_date, status, partial_paid_cents
		FROM loan_installments
		WHERE loan_id = ?
		ORDER BY sequence`, loanID)
	if err != nil {
		return nil, fmt.Errorf("list installments of loan %d: %w", loanID, err)
	}
	defer rows.Close()

	var out []core.LoanInstallment
	for rows.Next() {
		var (
			inst   core.LoanInstallment
			due    string
			status string
		)
		if err := rows.Scan(&inst.ID, &inst.LoanID, &inst.Sequence, &inst.Amount.Cents, &due, &status, &inst.PartialPaid.Cents); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		inst.DueDate = parseDate(due)
		inst.Status = core.InstallmentStatus(status)
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateLoanStatus(ctx context.Context, id int64, status core.LoanStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE loans SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("update loan %d status: %w", id, err)
	}
	return requireRow(res, id)
}

// PayInstallment persists the installment's new payment state and posts the
// settlement leg in one database transaction, so a failed posting rolls the
// installment back too.
func (r *SQLiteRepository) PayInstallment(ctx context.Context, inst core.LoanInstallment, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE loan_installments
			SET status = ?, partial_paid_cents = ?
			WHERE id = ?`,
			string(inst.Status), inst.PartialPaid.Cents, inst.ID)
		if err != nil {
			return fmt.Errorf("update installment %d: %w", inst.ID, err)
		}
		if err := requireRow(res, inst.ID); err != nil {
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
	return id, nil
}

func (r *SQLiteRepository) DeleteLoan(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM loans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete loan %d: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkOverdueInstallments flags unpaid installments whose due date has
// passed, and loans whose overall due date has passed while still unpaid.
// Returns the number of rows flagged.
func (r *SQLiteRepository) MarkOverdueInstallments(ctx context.Context, today core.Date) (int64, error) {
	cutoff := fmtDate(today)

	res, err := r.db.ExecContext(ctx, `
		UPDATE loan_installments
		SET status = 'overdue'
		WHERE status IN ('pending', 'partial') AND due_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark overdue installments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("overdue rows affected: %w", err)
	}

	res, err = r.db.ExecContext(ctx, `
		UPDATE loans
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark overdue loans: %w", err)
	}
	m, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("overdue loan rows affected: %w", err)
	}

	if n+m > 0 {
		slog.InfoContext(ctx, "Overdue sweep completed", "installments", n, "loans", m)
	}
	return n + m, nil
}
