package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/projection"
)

// LoanStore is the persistence surface the loan service needs.
type LoanStore interface {
	CreateLoan(ctx context.Context, l core.Loan) (int64, error)
	GetLoan(ctx context.Context, id int64) (core.Loan, error)
	ListLoans(ctx context.Context, onlyOpen bool) ([]core.Loan, error)
	UpdateLoanStatus(ctx context.Context, id int64, status core.LoanStatus) error
	PayInstallment(ctx context.Context, inst core.LoanInstallment, t core.Transaction) (int64, error)
	DeleteLoan(ctx context.Context, id int64) error
	MarkOverdueInstallments(ctx context.Context, today core.Date) (int64, error)
}

// TransactionRecorder posts the ledger side of loan settlements. Satisfied
// by TransactionService.
type TransactionRecorder interface {
	Record(ctx context.Context, t core.Transaction) (int64, error)
	PublishPosted(ctx context.Context, id int64)
}

type LoanService struct {
	storage      LoanStore
	transactions TransactionRecorder
}

func NewLoanService(storage LoanStore, transactions TransactionRecorder) *LoanService {
	return &LoanService{
		storage:      storage,
		transactions: transactions,
	}
}

// Create validates the loan and, when it carries an installment plan, builds
// the schedule before anything is persisted. Invalid plan input is rejected
// here; nothing reaches storage.
func (s *LoanService) Create(ctx context.Context, l core.Loan) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if l.HasPlan() {
		schedule, err := projection.BuildInstallmentSchedule(l.Amount, l.InstallmentCount, l.FirstDueDate, l.Frequency)
		if err != nil {
			return 0, fmt.Errorf("build installment schedule: %w", err)
		}
		l.Installments = make([]core.LoanInstallment, len(schedule))
		for i, inst := range schedule {
			l.Installments[i] = core.LoanInstallment{
				Sequence: inst.Sequence,
				Amount:   inst.Amount,
				DueDate:  inst.DueDate,
				Status:   core.InstallmentPending,
			}
		}
	}

	id, err := s.storage.CreateLoan(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("create loan: %w", err)
	}
	return id, nil
}

func (s *LoanService) Get(ctx context.Context, id int64) (core.Loan, error) {
	return s.storage.GetLoan(ctx, id)
}

func (s *LoanService) List(ctx context.Context, onlyOpen bool) ([]core.Loan, error) {
	return s.storage.ListLoans(ctx, onlyOpen)
}

func (s *LoanService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteLoan(ctx, id)
}

// RecordInstallmentPayment applies a payment to one installment and posts it
// to accountID: lent loans collect income, borrowed loans pay an expense.
// Short payments move the installment to partial; reaching the installment
// amount marks it paid, and the loan itself once every installment is paid.
func (s *LoanService) RecordInstallmentPayment(ctx context.Context, loanID int64, sequence int, amount core.Money, accountID int64, date core.Date) error {
	if err := amount.Validate(); err != nil {
		return err
	}

	loan, err := s.storage.GetLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("get loan: %w", err)
	}
	if !loan.HasPlan() {
		return fmt.Errorf("loan %d has no installment plan", loanID)
	}

	var inst *core.LoanInstallment
	for i := range loan.Installments {
		if loan.Installments[i].Sequence == sequence {
			inst = &loan.Installments[i]
			break
		}
	}
	if inst == nil {
		return fmt.Errorf("loan %d has no installment %d", loanID, sequence)
	}
	if inst.Status == core.InstallmentPaid {
		return fmt.Errorf("installment %d of loan %d is already paid", sequence, loanID)
	}

	paid := inst.PartialPaid.Cents + amount.Cents
	if paid > inst.Amount.Cents {
		return fmt.Errorf("payment exceeds remaining %d cents on installment %d", inst.Amount.Cents-inst.PartialPaid.Cents, sequence)
	}

	if paid == inst.Amount.Cents {
		inst.Status = core.InstallmentPaid
		inst.PartialPaid = core.Money{}
	} else {
		inst.Status = core.InstallmentPartial
		inst.PartialPaid = core.Money{Cents: paid}
	}
	// Installment state and its posting commit together, so a rejected
	// posting cannot strand a paid installment with no balance change.
	t := settlementTransaction(loan, amount, accountID, date,
		trimToLimit(fmt.Sprintf("%s (%d/%d)", loan.Description, sequence, loan.InstallmentCount)))
	if err := t.Validate(); err != nil {
		return fmt.Errorf("installment posting invalid: %w", err)
	}
	id, err := s.storage.PayInstallment(ctx, *inst, t)
	if err != nil {
		return fmt.Errorf("pay installment: %w", err)
	}
	s.transactions.PublishPosted(ctx, id)

	if loan.FullyPaid() {
		if err := s.storage.UpdateLoanStatus(ctx, loanID, core.LoanPaid); err != nil {
			return fmt.Errorf("close loan: %w", err)
		}
		slog.InfoContext(ctx, "Loan fully paid", "id", loanID)
	}
	return nil
}

// Settle closes a plan-less loan in one movement.
func (s *LoanService) Settle(ctx context.Context, loanID int64, accountID int64, date core.Date) error {
	loan, err := s.storage.GetLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("get loan: %w", err)
	}
	if loan.HasPlan() {
		return fmt.Errorf("loan %d settles through its installments", loanID)
	}
	if loan.Status == core.LoanPaid {
		return fmt.Errorf("loan %d is already paid", loanID)
	}

	if err := s.postSettlement(ctx, loan, loan.Amount, accountID, date, loan.Description); err != nil {
		return err
	}
	if err := s.storage.UpdateLoanStatus(ctx, loanID, core.LoanPaid); err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	return nil
}

func (s *LoanService) postSettlement(ctx context.Context, loan core.Loan, amount core.Money, accountID int64, date core.Date, description string) error {
	_, err := s.transactions.Record(ctx, settlementTransaction(loan, amount, accountID, date, trimToLimit(description)))
	if err != nil {
		return fmt.Errorf("post loan settlement: %w", err)
	}
	return nil
}

// settlementTransaction composes the ledger leg of a loan movement: lent
// loans collect income, borrowed loans pay an expense.
func settlementTransaction(loan core.Loan, amount core.Money, accountID int64, date core.Date, description string) core.Transaction {
	kind := core.Expense
	if loan.Direction == core.LoanLent {
		kind = core.Income
	}
	return core.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    "Loans",
		AccountID:   accountID,
		Kind:        kind,
	}
}

// MarkOverdue sweeps installments and loans past their due dates.
func (s *LoanService) MarkOverdue(ctx context.Context, today core.Date) (int64, error) {
	return s.storage.MarkOverdueInstallments(ctx, today)
}
