package projection

import (
	"fmt"
	"sort"
	"time"

	"moneta/internal/core"
)

const (
	MovementRecurring      MovementType = "recurring"
	MovementLoanPayment    MovementType = "loan_payment"
	MovementLoanCollection MovementType = "loan_collection"
)

type (
	MovementType string

	// Movement is one simulated posting contributing to the projection.
	Movement struct {
		Type        MovementType `json:"type"`
		Description string       `json:"description"`
		AmountCents int64        `json:"amount_cents"` // signed
		AccountID   int64        `json:"account_id"`
		AccountName string       `json:"account_name"`
		Date        time.Time    `json:"date"`
	}

	// AccountBalance is the projected balance of one account.
	AccountBalance struct {
		ID       int64            `json:"id"`
		Name     string           `json:"name"`
		Kind     core.AccountKind `json:"kind"`
		Balance  core.Money       `json:"balance_cents"`
		Starting core.Money       `json:"starting_cents"`
	}

	// Result is a simulated, non-persisted forecast. It never feeds back
	// into stored balances.
	Result struct {
		TargetDate time.Time        `json:"target_date"`
		Total      core.Money       `json:"total_cents"` // savings accounts only
		Accounts   []AccountBalance `json:"accounts"`
		Movements  []Movement       `json:"movements"`
	}
)

// Project simulates account balances at target, combining recurring
// occurrences and loan installments dated inside [today, target].
//
// A target before today means "no projection": the result is nil, not an
// error. Inputs are never mutated; repeated calls with identical snapshots
// yield identical output. Movements that have no destination account (for
// example a loan collection when no savings account exists) are skipped
// without touching any balance.
func Project(today, target time.Time, accounts []core.Account, recurrences []core.RecurringTransaction, loans []core.Loan) *Result {
	today = dateOnly(today)
	target = dateOnly(target)
	if target.Before(today) {
		return nil
	}

	// Working copy of balances, keyed by account id. Account order is
	// preserved from the input for output and for "first savings account".
	working := make(map[int64]int64, len(accounts))
	names := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		working[a.ID] = a.Balance.Cents
		names[a.ID] = a.Name
	}

	var movements []Movement

	apply := func(m Movement) {
		if _, ok := working[m.AccountID]; !ok {
			return
		}
		working[m.AccountID] += m.AmountCents
		m.AccountName = names[m.AccountID]
		movements = append(movements, m)
	}

	for _, rt := range recurrences {
		if !rt.Active {
			continue
		}
		sign := int64(1)
		if rt.Kind == core.Expense {
			sign = -1
		}
		for _, day := range ExpandOccurrences(dateOnly(rt.StartDate.Time), dateOnly(rt.EndDate.Time), rt.Frequency, today, target) {
			apply(Movement{
				Type:        MovementRecurring,
				Description: rt.Description,
				AmountCents: sign * rt.Amount.Cents,
				AccountID:   rt.AccountID,
				Date:        day,
			})
		}
	}

	for _, loan := range loans {
		if loan.FullyPaid() {
			continue
		}
		switch loan.Direction {
		case core.LoanLent:
			projectCollections(loan, today, target, accounts, apply)
		case core.LoanBorrowed:
			projectPayments(loan, today, target, accounts, working, apply)
		}
	}

	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].Date.Before(movements[j].Date)
	})

	result := &Result{TargetDate: target, Movements: movements}
	for _, a := range accounts {
		balance := core.Money{Cents: working[a.ID]}
		result.Accounts = append(result.Accounts, AccountBalance{
			ID:       a.ID,
			Name:     a.Name,
			Kind:     a.Kind,
			Balance:  balance,
			Starting: a.Balance,
		})
		// The headline total counts liquid savings balances only; credit
		// card balances are excluded on purpose.
		if a.Kind == core.AccountSavings {
			result.Total.Cents += balance.Cents
		}
	}
	return result
}

// projectCollections credits expected repayments of a lent loan to the
// first savings account. Installments due inside the window are included
// regardless of their current status; already-settled installments are
// re-applied as future collections. That mirrors the dashboard's historic
// behavior and is pinned by a test.
func projectCollections(loan core.Loan, today, target time.Time, accounts []core.Account, apply func(Movement)) {
	dest, ok := firstSavings(accounts)
	if !ok {
		return
	}
	if !loan.HasPlan() {
		due := dateOnly(loan.DueDate.Time)
		if inWindow(due, today, target) {
			apply(Movement{
				Type:        MovementLoanCollection,
				Description: collectionDesc(loan, 0),
				AmountCents: loan.Amount.Cents,
				AccountID:   dest,
				Date:        due,
			})
		}
		return
	}
	for _, inst := range loan.Installments {
		due := dateOnly(inst.DueDate.Time)
		if !inWindow(due, today, target) {
			continue
		}
		apply(Movement{
			Type:        MovementLoanCollection,
			Description: collectionDesc(loan, inst.Sequence),
			AmountCents: inst.Amount.Cents,
			AccountID:   dest,
			Date:        due,
		})
	}
}

// projectPayments debits expected repayments of a borrowed loan from the
// best payment account: the savings account with the largest balance among
// those that can cover the amount, else whichever account currently holds
// the largest balance even if insufficient. Negative projected balances
// are allowed so the risk is visible.
func projectPayments(loan core.Loan, today, target time.Time, accounts []core.Account, working map[int64]int64, apply func(Movement)) {
	debit := func(amount int64, due time.Time, seq int) {
		src, ok := bestPaymentAccount(accounts, working, amount)
		if !ok {
			return
		}
		apply(Movement{
			Type:        MovementLoanPayment,
			Description: paymentDesc(loan, seq),
			AmountCents: -amount,
			AccountID:   src,
			Date:        due,
		})
	}

	if !loan.HasPlan() {
		due := dateOnly(loan.DueDate.Time)
		if inWindow(due, today, target) {
			debit(loan.Amount.Cents, due, 0)
		}
		return
	}
	for _, inst := range loan.Installments {
		due := dateOnly(inst.DueDate.Time)
		if !inWindow(due, today, target) {
			continue
		}
		debit(inst.Amount.Cents, due, inst.Sequence)
	}
}

func firstSavings(accounts []core.Account) (int64, bool) {
	for _, a := range accounts {
		if a.Kind == core.AccountSavings {
			return a.ID, true
		}
	}
	return 0, false
}

func bestPaymentAccount(accounts []core.Account, working map[int64]int64, amount int64) (int64, bool) {
	if len(accounts) == 0 {
		return 0, false
	}
	var (
		bestCovering   int64
		coveringFound  bool
		bestCoveringAt int64
		bestAny        int64
		anyFound       bool
		bestAnyAt      int64
	)
	for _, a := range accounts {
		balance := working[a.ID]
		if a.Kind == core.AccountSavings && balance >= amount {
			if !coveringFound || balance > bestCoveringAt {
				bestCovering, bestCoveringAt, coveringFound = a.ID, balance, true
			}
		}
		if !anyFound || balance > bestAnyAt {
			bestAny, bestAnyAt, anyFound = a.ID, balance, true
		}
	}
	if coveringFound {
		return bestCovering, true
	}
	return bestAny, anyFound
}

func inWindow(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func collectionDesc(loan core.Loan, seq int) string {
	if seq > 0 {
		return fmt.Sprintf("Collection from %s: %s (%d/%d)", loan.Counterparty, loan.Description, seq, loan.InstallmentCount)
	}
	return fmt.Sprintf("Collection from %s: %s", loan.Counterparty, loan.Description)
}

func paymentDesc(loan core.Loan, seq int) string {
	if seq > 0 {
		return fmt.Sprintf("Payment to %s: %s (%d/%d)", loan.Counterparty, loan.Description, seq, loan.InstallmentCount)
	}
	return fmt.Sprintf("Payment to %s: %s", loan.Counterparty, loan.Description)
}
