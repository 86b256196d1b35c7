package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

const (
	AccountSavings AccountKind = "savings"
	AccountCredit  AccountKind = "credit"
)

const (
	Income   TransactionKind = "income"
	Expense  TransactionKind = "expense"
	Transfer TransactionKind = "transfer"
)

type (
	Frequency       string
	AccountKind     string
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Goal is an optional savings target or spending limit on an account.
	Goal struct {
		Target     Money
		TargetDate Date // zero = open-ended
	}

	Account struct {
		ID          int64
		Name        string
		Kind        AccountKind
		Balance     Money // signed; credit balances are negative by convention
		CreditLimit Money // zero = no limit set
		Goal        *Goal
	}

	Transaction struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money // always positive; Kind determines the sign effect
		Category    string
		AccountID   int64
		Kind        TransactionKind
		// TransferGroup links the two legs of a transfer. Empty for
		// plain income/expense postings.
		TransferGroup string
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrSameAccount      = errors.New("transfer legs must reference different accounts")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Biweekly, Monthly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (k AccountKind) Validate() error {
	switch k {
	case AccountSavings, AccountCredit:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := a.Kind.Validate(); err != nil {
		return err
	}
	if a.CreditLimit.Cents < 0 {
		return errors.New("credit limit cannot be negative")
	}
	if a.Goal != nil {
		if err := a.Goal.Target.Validate(); err != nil {
			return errors.New("invalid goal target: " + err.Error())
		}
		if !a.Goal.TargetDate.IsZero() {
			if err := a.Goal.TargetDate.Validate(); err != nil {
				return errors.New("invalid goal target date: " + err.Error())
			}
		}
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.AccountID <= 0 {
		return errors.New("missing account reference")
	}
	switch t.Kind {
	case Income, Expense, Transfer:
	default:
		return ErrInvalidKind
	}
	return nil
}

// SignedCents returns the balance effect of the transaction on its account:
// positive for income, negative for expense. Transfer legs are stored as an
// expense leg plus an income leg, so the same rule applies per leg.
func (t Transaction) SignedCents() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
