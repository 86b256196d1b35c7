// Package storage persists the domain on SQLite via database/sql.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"moneta/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func fmtDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format(dateLayout)
}

func parseDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

// --- Accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	var goalCents, goalDate any
	if a.Goal != nil {
		goalCents = a.Goal.Target.Cents
		goalDate = nullDate(a.Goal.TargetDate)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, kind, balance_cents, credit_limit_cents, goal_target_cents, goal_target_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, string(a.Kind), a.Balance.Cents, a.CreditLimit.Cents, goalCents, goalDate)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", id,
		"name", a.Name,
		"kind", a.Kind,
		"balance_cents", a.Balance.Cents)

	return id, nil
}

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a         core.Account
		kind      string
		goalCents sql.NullInt64
		goalDate  sql.NullString
	)
	err := row.Scan(&a.ID, &a.Name, &kind, &a.Balance.Cents, &a.CreditLimit.Cents, &goalCents, &goalDate)
	if err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	if goalCents.Valid {
		a.Goal = &core.Goal{Target: core.Money{Cents: goalCents.Int64}}
		if goalDate.Valid {
			a.Goal.TargetDate = parseDate(goalDate.String)
		}
	}
	return a, nil
}

const accountColumns = "id, name, kind, balance_cents, credit_limit_cents, goal_target_cents, goal_target_date"

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// ListAccounts returns all accounts ordered by creation (id ascending).
// The order matters to projection: "first savings account" follows it.
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	var goalCents, goalDate any
	if a.Goal != nil {
		goalCents = a.Goal.Target.Cents
		goalDate = nullDate(a.Goal.TargetDate)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, kind = ?, credit_limit_cents = ?, goal_target_cents = ?, goal_target_date = ?
		WHERE id = ?`,
		a.Name, string(a.Kind), a.CreditLimit.Cents, goalCents, goalDate, a.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return requireRow(res, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return requireRow(res, id)
}

// AdjustAccountBalance applies a signed delta to an account balance.
func (r *SQLiteRepository) AdjustAccountBalance(ctx context.Context, id int64, deltaCents int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?", deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust balance of account %d: %w", id, err)
	}
	return requireRow(res, id)
}

func adjustBalanceTx(tx *sql.Tx, id int64, deltaCents int64) error {
	res, err := tx.Exec("UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?", deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust balance of account %d: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

// --- Categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
