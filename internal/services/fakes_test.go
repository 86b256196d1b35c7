package services

import (
	"context"
	"errors"
	"time"

	"moneta/internal/core"
)

// fakeStore is an in-memory implementation of the service store interfaces.
type fakeStore struct {
	accounts     map[int64]core.Account
	transactions map[int64]core.Transaction
	recurring    map[int64]core.RecurringTransaction
	pending      map[int64]core.PendingOccurrence
	loans        map[int64]core.Loan
	shared       map[int64]core.SharedExpense

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     map[int64]core.Account{},
		transactions: map[int64]core.Transaction{},
		recurring:    map[int64]core.RecurringTransaction{},
		pending:      map[int64]core.PendingOccurrence{},
		loans:        map[int64]core.Loan{},
		shared:       map[int64]core.SharedExpense{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

var errFakeNotFound = errors.New("not found")

func (f *fakeStore) CreateAccount(_ context.Context, a core.Account) (int64, error) {
	a.ID = f.id()
	f.accounts[a.ID] = a
	return a.ID, nil
}

func (f *fakeStore) GetAccount(_ context.Context, id int64) (core.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, errFakeNotFound
	}
	return a, nil
}

func (f *fakeStore) ListAccounts(_ context.Context) ([]core.Account, error) {
	var out []core.Account
	for i := int64(1); i <= f.nextID; i++ {
		if a, ok := f.accounts[i]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, a core.Account) error {
	if _, ok := f.accounts[a.ID]; !ok {
		return errFakeNotFound
	}
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeStore) DeleteAccount(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return errFakeNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeStore) AdjustAccountBalance(_ context.Context, id int64, delta int64) error {
	a, ok := f.accounts[id]
	if !ok {
		return errFakeNotFound
	}
	a.Balance.Cents += delta
	f.accounts[id] = a
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	t.ID = f.id()
	f.transactions[t.ID] = t
	if a, ok := f.accounts[t.AccountID]; ok {
		a.Balance.Cents += t.SignedCents()
		f.accounts[t.AccountID] = a
	}
	return t.ID, nil
}

func (f *fakeStore) CreateTransferPair(ctx context.Context, out, in core.Transaction) (int64, int64, error) {
	outID, _ := f.CreateTransaction(ctx, out)
	inID, _ := f.CreateTransaction(ctx, in)
	return outID, inID, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, errFakeNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, year int, month time.Month) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.transactions {
		if t.Date.Year() == year && t.Date.Month() == int(month) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	t, ok := f.transactions[id]
	if !ok {
		return errFakeNotFound
	}
	ids := []int64{id}
	if t.TransferGroup != "" {
		ids = ids[:0]
		for tid, leg := range f.transactions {
			if leg.TransferGroup == t.TransferGroup {
				ids = append(ids, tid)
			}
		}
	}
	for _, tid := range ids {
		leg := f.transactions[tid]
		if a, ok := f.accounts[leg.AccountID]; ok {
			a.Balance.Cents -= leg.SignedCents()
			f.accounts[leg.AccountID] = a
		}
		delete(f.transactions, tid)
	}
	return nil
}

func (f *fakeStore) CreateRecurring(_ context.Context, rt core.RecurringTransaction) (int64, error) {
	rt.ID = f.id()
	f.recurring[rt.ID] = rt
	return rt.ID, nil
}

func (f *fakeStore) GetRecurring(_ context.Context, id int64) (core.RecurringTransaction, error) {
	rt, ok := f.recurring[id]
	if !ok {
		return core.RecurringTransaction{}, errFakeNotFound
	}
	return rt, nil
}

func (f *fakeStore) ListRecurring(_ context.Context, onlyActive bool) ([]core.RecurringTransaction, error) {
	var out []core.RecurringTransaction
	for i := int64(1); i <= f.nextID; i++ {
		rt, ok := f.recurring[i]
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

func (f *fakeStore) UpdateRecurring(_ context.Context, rt core.RecurringTransaction) error {
	if _, ok := f.recurring[rt.ID]; !ok {
		return errFakeNotFound
	}
	f.recurring[rt.ID] = rt
	return nil
}

func (f *fakeStore) DeleteRecurring(_ context.Context, id int64) error {
	delete(f.recurring, id)
	return nil
}

func (f *fakeStore) SetLastGenerated(_ context.Context, id int64, d core.Date) error {
	rt, ok := f.recurring[id]
	if !ok {
		return errFakeNotFound
	}
	rt.LastGenerated = d
	f.recurring[id] = rt
	return nil
}

func (f *fakeStore) CreatePendingOccurrence(_ context.Context, p core.PendingOccurrence) (int64, error) {
	for _, existing := range f.pending {
		if existing.RecurringID == p.RecurringID && existing.DueDate.Equal(p.DueDate.Time) {
			return 0, nil // duplicate, mirrors INSERT OR IGNORE
		}
	}
	p.ID = f.id()
	f.pending[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) GetPendingOccurrence(_ context.Context, id int64) (core.PendingOccurrence, error) {
	p, ok := f.pending[id]
	if !ok {
		return core.PendingOccurrence{}, errFakeNotFound
	}
	return p, nil
}

func (f *fakeStore) ListPendingOccurrences(_ context.Context) ([]core.PendingOccurrence, error) {
	var out []core.PendingOccurrence
	for i := int64(1); i <= f.nextID; i++ {
		if p, ok := f.pending[i]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePendingOccurrence(_ context.Context, id int64) error {
	if _, ok := f.pending[id]; !ok {
		return errFakeNotFound
	}
	delete(f.pending, id)
	return nil
}

func (f *fakeStore) ConfirmPendingOccurrence(ctx context.Context, pendingID int64, t core.Transaction) (int64, error) {
	if _, ok := f.pending[pendingID]; !ok {
		return 0, errFakeNotFound
	}
	delete(f.pending, pendingID)
	return f.CreateTransaction(ctx, t)
}

func (f *fakeStore) CreateLoan(_ context.Context, l core.Loan) (int64, error) {
	l.ID = f.id()
	l.Status = core.LoanPending
	for i := range l.Installments {
		l.Installments[i].ID = f.id()
		l.Installments[i].LoanID = l.ID
	}
	f.loans[l.ID] = l
	return l.ID, nil
}

func (f *fakeStore) GetLoan(_ context.Context, id int64) (core.Loan, error) {
	l, ok := f.loans[id]
	if !ok {
		return core.Loan{}, errFakeNotFound
	}
	// Copy installments so callers cannot mutate stored state, mirroring
	// the real store's fresh row scans.
	l.Installments = append([]core.LoanInstallment(nil), l.Installments...)
	return l, nil
}

func (f *fakeStore) ListLoans(_ context.Context, onlyOpen bool) ([]core.Loan, error) {
	var out []core.Loan
	for i := int64(1); i <= f.nextID; i++ {
		l, ok := f.loans[i]
		if !ok {
			continue
		}
		if onlyOpen && l.FullyPaid() {
			continue
		}
		l.Installments = append([]core.LoanInstallment(nil), l.Installments...)
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) UpdateLoanStatus(_ context.Context, id int64, status core.LoanStatus) error {
	l, ok := f.loans[id]
	if !ok {
		return errFakeNotFound
	}
	l.Status = status
	f.loans[id] = l
	return nil
}

func (f *fakeStore) PayInstallment(ctx context.Context, inst core.LoanInstallment, t core.Transaction) (int64, error) {
	for id, l := range f.loans {
		for i := range l.Installments {
			if l.Installments[i].Sequence == inst.Sequence && id == inst.LoanID {
				l.Installments[i] = inst
				f.loans[id] = l
				return f.CreateTransaction(ctx, t)
			}
		}
	}
	return 0, errFakeNotFound
}

func (f *fakeStore) DeleteLoan(_ context.Context, id int64) error {
	delete(f.loans, id)
	return nil
}

func (f *fakeStore) MarkOverdueInstallments(_ context.Context, today core.Date) (int64, error) {
	var n int64
	for id, l := range f.loans {
		for i, inst := range l.Installments {
			if (inst.Status == core.InstallmentPending || inst.Status == core.InstallmentPartial) &&
				inst.DueDate.Before(today.Time) {
				l.Installments[i].Status = core.InstallmentOverdue
				n++
			}
		}
		if l.Status == core.LoanPending && l.DueDate.Before(today.Time) {
			l.Status = core.LoanOverdue
			n++
		}
		f.loans[id] = l
	}
	return n, nil
}

func (f *fakeStore) CreateSharedExpense(_ context.Context, se core.SharedExpense) (int64, error) {
	se.ID = f.id()
	for i := range se.Shares {
		se.Shares[i].ID = f.id()
		se.Shares[i].ExpenseID = se.ID
	}
	f.shared[se.ID] = se
	return se.ID, nil
}

func (f *fakeStore) GetSharedExpense(_ context.Context, id int64) (core.SharedExpense, error) {
	se, ok := f.shared[id]
	if !ok {
		return core.SharedExpense{}, errFakeNotFound
	}
	return se, nil
}

func (f *fakeStore) ListSharedExpenses(_ context.Context) ([]core.SharedExpense, error) {
	var out []core.SharedExpense
	for i := int64(1); i <= f.nextID; i++ {
		if se, ok := f.shared[i]; ok {
			out = append(out, se)
		}
	}
	return out, nil
}

func (f *fakeStore) GetShare(_ context.Context, id int64) (core.SharedShare, error) {
	for _, se := range f.shared {
		for _, sh := range se.Shares {
			if sh.ID == id {
				return sh, nil
			}
		}
	}
	return core.SharedShare{}, errFakeNotFound
}

func (f *fakeStore) SettleShare(ctx context.Context, shareID int64, t core.Transaction) (int64, error) {
	for seID, se := range f.shared {
		for i := range se.Shares {
			if se.Shares[i].ID == shareID && !se.Shares[i].Settled {
				se.Shares[i].Settled = true
				f.shared[seID] = se
				return f.CreateTransaction(ctx, t)
			}
		}
	}
	return 0, errFakeNotFound
}

func (f *fakeStore) DeleteSharedExpense(_ context.Context, id int64) error {
	delete(f.shared, id)
	return nil
}

// fakePublisher records published sync messages.
type fakePublisher struct {
	synced  []int64
	deleted []int64
	err     error
}

func (p *fakePublisher) PublishTransactionSync(_ context.Context, id, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.synced = append(p.synced, id)
	return nil
}

func (p *fakePublisher) PublishTransactionDelete(_ context.Context, id, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, id)
	return nil
}
