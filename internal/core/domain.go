package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking    AccountType = "checking"
	Savings     AccountType = "savings"
	Wallet      AccountType = "wallet"
	MealVoucher AccountType = "meal_voucher"
	Investment  AccountType = "investment"
	CardAccount AccountType = "credit_card"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	DebtorActive    DebtorStatus = "active"
	DebtorSettled   DebtorStatus = "settled"
	DebtorCancelled DebtorStatus = "cancelled"
)

type (
	AccountType     string
	TransactionType string
	RepetitionTypes string
	DebtorStatus    string

	Date struct {
		time.Time
	}

	Account struct {
		ID             string
		Name           string
		Type           AccountType
		InitialBalance Money
		Currency       string
		Color          string
		Active         bool
		CreatedAt      time.Time
	}

	CreditCard struct {
		ID         string
		AccountID  string
		Name       string
		LastFour   string
		Limit      Money
		ClosingDay int // day of month the invoice closes, 1-28
		DueDay     int // day of month the invoice is due, 1-28
		Brand      string
	}

	// InstallmentInfo links a transaction to the purchase it was split from.
	InstallmentInfo struct {
		Index      int
		TotalCount int
		ParentRef  string
	}

	Transaction struct {
		ID           string
		AccountID    string
		Type         TransactionType
		Amount       Money
		Description  string
		Category     string
		Date         Date
		Paid         bool
		CreditCardID string
		Installment  *InstallmentInfo
		Tags         []string
		Notes        string
		CreatedAt    time.Time
	}

	Budget struct {
		ID              string
		Category        string
		Amount          Money
		Period          RepetitionTypes // monthly or yearly
		AlertThresholds []int           // usage percentages, e.g. 50, 80, 100
	}

	RecurringRule struct {
		ID          int64
		AccountID   string
		Type        TransactionType
		Amount      Money
		Description string
		Category    string
		Every       RepetitionTypes
		StartDate   Date
		EndDate     Date      // zero means open-ended
		Active      bool
		LastRun     time.Time // zero when the rule never produced a transaction
	}

	// Debtor tracks money owed to the user: a principal and an append-only
	// payment log. Status transitions are explicit, never derived.
	Debtor struct {
		ID          string
		Name        string
		Description string
		Principal   Money
		StartDate   Date
		DueDay      int
		Status      DebtorStatus
		CreatedAt   time.Time
	}

	Payment struct {
		ID                string
		DebtorID          string
		Amount            Money
		Date              Date
		InstallmentNumber int // 0 when the payment is not tied to an installment
		Note              string
		CreatedAt         time.Time
	}

	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrNegativePayment         = errors.New("negative payment amount")
	ErrInvalidInstallmentCount = errors.New("invalid installment count")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidDueDay           = errors.New("invalid due day")
	ErrEmptyDescription        = errors.New("empty description")
	ErrEmptyName               = errors.New("empty name")
	ErrEmptyCategory           = errors.New("empty category")
	ErrInvalidAccountType      = errors.New("invalid account type")
	ErrInvalidTransactionType  = errors.New("invalid transaction type")
	ErrInvalidRepetition       = errors.New("invalid repetition type")
	ErrDebtorNotActive         = errors.New("debtor is not active")
	ErrDebtorNotSettleable     = errors.New("debtor payments do not cover the principal")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Wallet, MealVoucher, Investment, CardAccount:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	if c.ClosingDay < 1 || c.ClosingDay > 28 {
		return ErrInvalidDueDay
	}
	if c.DueDay < 1 || c.DueDay > 28 {
		return ErrInvalidDueDay
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
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
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Period != Monthly && b.Period != Yearly {
		return ErrInvalidRepetition
	}
	for _, th := range b.AlertThresholds {
		if th < 1 || th > 100 {
			return errors.New("alert threshold must be between 1 and 100")
		}
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return errors.New("end date must be after start date")
	}
	switch r.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidRepetition
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !r.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (d Debtor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if err := d.Principal.Validate(); err != nil {
		return err
	}
	if d.DueDay < 1 || d.DueDay > 28 {
		return ErrInvalidDueDay
	}
	return nil
}

// Terminal reports whether the debtor reached a final state. Settled and
// cancelled debtors accept no further payments.
func (s DebtorStatus) Terminal() bool {
	return s == DebtorSettled || s == DebtorCancelled
}

func (p Payment) Validate() error {
	if p.Amount.Cents < 0 {
		return ErrNegativePayment
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return nil
}
