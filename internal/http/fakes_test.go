package http

import (
	"context"
	"time"

	"moneta/internal/core"
	"moneta/internal/projection"
	"moneta/internal/storage"
)

// fakeAccounts is an in-memory AccountService for handler tests.
type fakeAccounts struct {
	accounts map[int64]core.Account
	nextID   int64
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[int64]core.Account), nextID: 1}
}

func (f *fakeAccounts) Create(_ context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	a.ID = f.nextID
	f.nextID++
	f.accounts[a.ID] = a
	return a.ID, nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (core.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) List(_ context.Context) ([]core.Account, error) {
	out := make([]core.Account, 0, len(f.accounts))
	for id := int64(1); id < f.nextID; id++ {
		if a, ok := f.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) Update(_ context.Context, a core.Account) error {
	stored, ok := f.accounts[a.ID]
	if !ok {
		return storage.ErrNotFound
	}
	a.Balance = stored.Balance
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.accounts, id)
	return nil
}

// fakeTransactions records calls so tests can assert routing and cache
// behavior.
type fakeTransactions struct {
	transactions   map[int64]core.Transaction
	nextID         int64
	listMonthCalls int
	transferCalls  int
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{transactions: make(map[int64]core.Transaction), nextID: 1}
}

func (f *fakeTransactions) Record(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	t.ID = f.nextID
	f.nextID++
	f.transactions[t.ID] = t
	return t.ID, nil
}

func (f *fakeTransactions) RecordTransfer(_ context.Context, fromID, toID int64, amount core.Money, date core.Date, description string) (int64, int64, error) {
	if fromID == toID {
		return 0, 0, core.ErrSameAccount
	}
	f.transferCalls++
	outID := f.nextID
	inID := f.nextID + 1
	f.nextID += 2
	return outID, inID, nil
}

func (f *fakeTransactions) Get(_ context.Context, id int64) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeTransactions) ListMonth(_ context.Context, year int, month time.Month) ([]core.Transaction, error) {
	f.listMonthCalls++
	var out []core.Transaction
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.transactions[id]
		if !ok {
			continue
		}
		if t.Date.Year() == year && t.Date.Month() == int(month) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) Delete(_ context.Context, id int64) error {
	if _, ok := f.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

type fakeLoans struct {
	loans        map[int64]core.Loan
	nextID       int64
	paymentCalls int
	settleCalls  int
}

func newFakeLoans() *fakeLoans {
	return &fakeLoans{loans: make(map[int64]core.Loan), nextID: 1}
}

func (f *fakeLoans) Create(_ context.Context, l core.Loan) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	l.ID = f.nextID
	l.Status = core.LoanPending
	f.nextID++
	f.loans[l.ID] = l
	return l.ID, nil
}

func (f *fakeLoans) Get(_ context.Context, id int64) (core.Loan, error) {
	l, ok := f.loans[id]
	if !ok {
		return core.Loan{}, storage.ErrNotFound
	}
	return l, nil
}

func (f *fakeLoans) List(_ context.Context, onlyOpen bool) ([]core.Loan, error) {
	var out []core.Loan
	for id := int64(1); id < f.nextID; id++ {
		l, ok := f.loans[id]
		if !ok {
			continue
		}
		if onlyOpen && l.FullyPaid() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLoans) Delete(_ context.Context, id int64) error {
	if _, ok := f.loans[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.loans, id)
	return nil
}

func (f *fakeLoans) RecordInstallmentPayment(_ context.Context, loanID int64, sequence int, amount core.Money, accountID int64, date core.Date) error {
	if _, ok := f.loans[loanID]; !ok {
		return storage.ErrNotFound
	}
	f.paymentCalls++
	return nil
}

func (f *fakeLoans) Settle(_ context.Context, loanID int64, accountID int64, date core.Date) error {
	l, ok := f.loans[loanID]
	if !ok {
		return storage.ErrNotFound
	}
	l.Status = core.LoanPaid
	f.loans[loanID] = l
	f.settleCalls++
	return nil
}

type fakeRecurring struct {
	templates map[int64]core.RecurringTransaction
	pending   map[int64]core.PendingOccurrence
	nextID    int64
}

func newFakeRecurring() *fakeRecurring {
	return &fakeRecurring{
		templates: make(map[int64]core.RecurringTransaction),
		pending:   make(map[int64]core.PendingOccurrence),
		nextID:    1,
	}
}

func (f *fakeRecurring) Create(_ context.Context, rt core.RecurringTransaction) (int64, error) {
	if err := rt.Validate(); err != nil {
		return 0, err
	}
	rt.ID = f.nextID
	f.nextID++
	f.templates[rt.ID] = rt
	return rt.ID, nil
}

func (f *fakeRecurring) Get(_ context.Context, id int64) (core.RecurringTransaction, error) {
	rt, ok := f.templates[id]
	if !ok {
		return core.RecurringTransaction{}, storage.ErrNotFound
	}
	return rt, nil
}

func (f *fakeRecurring) List(_ context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	var out []core.RecurringTransaction
	for id := int64(1); id < f.nextID; id++ {
		rt, ok := f.templates[id]
		if !ok {
			continue
		}
		if onlyActive && !rt.Active {
			continue
		}
		out = append(out, rt)
	}
	return out, nil
}

func (f *fakeRecurring) Update(_ context.Context, rt core.RecurringTransaction) error {
	if _, ok := f.templates[rt.ID]; !ok {
		return storage.ErrNotFound
	}
	f.templates[rt.ID] = rt
	return nil
}

func (f *fakeRecurring) Delete(_ context.Context, id int64) error {
	if _, ok := f.templates[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeRecurring) ListPending(_ context.Context) ([]core.PendingOccurrence, error) {
	var out []core.PendingOccurrence
	for id := int64(1); id < f.nextID; id++ {
		if p, ok := f.pending[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRecurring) Confirm(_ context.Context, pendingID int64) (int64, error) {
	if _, ok := f.pending[pendingID]; !ok {
		return 0, storage.ErrNotFound
	}
	delete(f.pending, pendingID)
	return 101, nil
}

func (f *fakeRecurring) Cancel(_ context.Context, pendingID int64) error {
	if _, ok := f.pending[pendingID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.pending, pendingID)
	return nil
}

func (f *fakeRecurring) addPending(p core.PendingOccurrence) int64 {
	p.ID = f.nextID
	f.nextID++
	f.pending[p.ID] = p
	return p.ID
}

type fakeShared struct {
	expenses map[int64]core.SharedExpense
	nextID   int64
}

func newFakeShared() *fakeShared {
	return &fakeShared{expenses: make(map[int64]core.SharedExpense), nextID: 1}
}

func (f *fakeShared) Create(_ context.Context, se core.SharedExpense, participants []string) (int64, error) {
	if len(se.Shares) == 0 {
		shares, err := core.SplitEqually(se.Total, participants)
		if err != nil {
			return 0, err
		}
		se.Shares = shares
	}
	if err := se.Validate(); err != nil {
		return 0, err
	}
	se.ID = f.nextID
	f.nextID++
	for i := range se.Shares {
		se.Shares[i].ID = int64(i + 1)
		se.Shares[i].ExpenseID = se.ID
	}
	f.expenses[se.ID] = se
	return se.ID, nil
}

func (f *fakeShared) Get(_ context.Context, id int64) (core.SharedExpense, error) {
	se, ok := f.expenses[id]
	if !ok {
		return core.SharedExpense{}, storage.ErrNotFound
	}
	return se, nil
}

func (f *fakeShared) List(_ context.Context) ([]core.SharedExpense, error) {
	var out []core.SharedExpense
	for id := int64(1); id < f.nextID; id++ {
		if se, ok := f.expenses[id]; ok {
			out = append(out, se)
		}
	}
	return out, nil
}

func (f *fakeShared) Delete(_ context.Context, id int64) error {
	if _, ok := f.expenses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeShared) SettleShare(_ context.Context, shareID int64, date core.Date) error {
	for id, se := range f.expenses {
		for i, sh := range se.Shares {
			if sh.ID == shareID {
				se.Shares[i].Settled = true
				f.expenses[id] = se
				return nil
			}
		}
	}
	return storage.ErrNotFound
}

type fakeProjections struct {
	calls  int
	result *projection.Result
}

func (f *fakeProjections) Project(_ context.Context, target time.Time) (*projection.Result, error) {
	f.calls++
	if f.result != nil {
		return f.result, nil
	}
	return &projection.Result{TargetDate: target}, nil
}
