package http

import (
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// Wire representations. Amounts travel as decimal strings ("12.34") and
// dates as YYYY-MM-DD; the conversion helpers below are the only place
// where the two worlds meet.

type accountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	InitialBalance string    `json:"initial_balance"`
	Currency       string    `json:"currency"`
	Color          string    `json:"color,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	Currency       string `json:"currency"`
	Color          string `json:"color"`
}

type cardResponse struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Name       string `json:"name"`
	LastFour   string `json:"last_four"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Brand      string `json:"brand,omitempty"`
}

type createCardRequest struct {
	AccountID  string `json:"account_id"`
	Name       string `json:"name"`
	LastFour   string `json:"last_four"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Brand      string `json:"brand"`
}

type installmentInfoResponse struct {
	Index      int    `json:"index"`
	TotalCount int    `json:"total_count"`
	ParentRef  string `json:"parent_ref"`
}

type transactionResponse struct {
	ID           string                   `json:"id"`
	AccountID    string                   `json:"account_id"`
	Type         string                   `json:"type"`
	Amount       string                   `json:"amount"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category"`
	Date         string                   `json:"date"`
	Paid         bool                     `json:"paid"`
	CreditCardID string                   `json:"credit_card_id,omitempty"`
	Installment  *installmentInfoResponse `json:"installment,omitempty"`
	Tags         []string                 `json:"tags,omitempty"`
	Notes        string                   `json:"notes,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

type createTransactionRequest struct {
	AccountID    string   `json:"account_id"`
	Type         string   `json:"type"`
	Amount       string   `json:"amount"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Date         string   `json:"date"`
	Paid         bool     `json:"paid"`
	CreditCardID string   `json:"credit_card_id"`
	Tags         []string `json:"tags"`
	Notes        string   `json:"notes"`
}

type createInstallmentsRequest struct {
	createTransactionRequest
	Count int `json:"count"`
}

type installmentPreviewResponse struct {
	Index      int    `json:"index"`
	TotalCount int    `json:"total_count"`
	Amount     string `json:"amount"`
	DueDate    string `json:"due_date"`
}

type budgetResponse struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	Period          string `json:"period"`
	AlertThresholds []int  `json:"alert_thresholds,omitempty"`
}

type createBudgetRequest struct {
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	Period          string `json:"period"`
	AlertThresholds []int  `json:"alert_thresholds"`
}

type budgetUsageResponse struct {
	Budget     budgetResponse `json:"budget"`
	Spent      string         `json:"spent"`
	Percentage float64        `json:"percentage"`
	Exceeded   bool           `json:"exceeded"`
}

type recurringRuleResponse struct {
	ID          int64  `json:"id"`
	AccountID   string `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Every       string `json:"every"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Active      bool   `json:"active"`
	LastRun     string `json:"last_run,omitempty"`
}

type createRecurringRuleRequest struct {
	AccountID   string `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Every       string `json:"every"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type debtProgressResponse struct {
	Paid         string  `json:"paid"`
	Remaining    string  `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	FullySettled bool    `json:"fully_settled"`
}

type debtorResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Principal   string                `json:"principal"`
	StartDate   string                `json:"start_date"`
	DueDay      int                   `json:"due_day"`
	Status      string                `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	Progress    *debtProgressResponse `json:"progress,omitempty"`
}

type createDebtorRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Principal   string `json:"principal"`
	StartDate   string `json:"start_date"`
	DueDay      int    `json:"due_day"`
}

type paymentResponse struct {
	ID                string    `json:"id"`
	DebtorID          string    `json:"debtor_id"`
	Amount            string    `json:"amount"`
	Date              string    `json:"date"`
	InstallmentNumber int       `json:"installment_number,omitempty"`
	Note              string    `json:"note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type registerPaymentRequest struct {
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	InstallmentNumber int    `json:"installment_number"`
	Note              string `json:"note"`
}

type debtorTotalsResponse struct {
	ActiveCount    int    `json:"active_count"`
	TotalPrincipal string `json:"total_principal"`
	TotalPaid      string `json:"total_paid"`
	TotalRemaining string `json:"total_remaining"`
}

type categoryAmountResponse struct {
	Name       string  `json:"name"`
	Amount     string  `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type monthSummaryResponse struct {
	Year          int                      `json:"year"`
	Month         int                      `json:"month"`
	Income        string                   `json:"income"`
	Expenses      string                   `json:"expenses"`
	Net           string                   `json:"net"`
	SavingsRate   float64                  `json:"savings_rate"`
	TopCategories []categoryAmountResponse `json:"top_categories"`
}

type cashFlowPointResponse struct {
	Date      string `json:"date"`
	Income    string `json:"income"`
	Expense   string `json:"expense"`
	Balance   string `json:"balance"`
	Projected string `json:"projected"`
}

type calendarDayResponse struct {
	Date         string                `json:"date"`
	Income       string                `json:"income"`
	Expense      string                `json:"expense"`
	Transactions []transactionResponse `json:"transactions"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.String(),
		Currency:       a.Currency,
		Color:          a.Color,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}

func toCardResponse(c core.CreditCard) cardResponse {
	return cardResponse{
		ID:         c.ID,
		AccountID:  c.AccountID,
		Name:       c.Name,
		LastFour:   c.LastFour,
		Limit:      c.Limit.String(),
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		Brand:      c.Brand,
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         string(t.Type),
		Amount:       t.Amount.String(),
		Description:  t.Description,
		Category:     t.Category,
		Date:         t.Date.String(),
		Paid:         t.Paid,
		CreditCardID: t.CreditCardID,
		Tags:         t.Tags,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
	}
	if t.Installment != nil {
		resp.Installment = &installmentInfoResponse{
			Index:      t.Installment.Index,
			TotalCount: t.Installment.TotalCount,
			ParentRef:  t.Installment.ParentRef,
		}
	}
	return resp
}

func toTransactionResponses(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:              b.ID,
		Category:        b.Category,
		Amount:          b.Amount.String(),
		Period:          string(b.Period),
		AlertThresholds: b.AlertThresholds,
	}
}

func toRecurringRuleResponse(r core.RecurringRule) recurringRuleResponse {
	resp := recurringRuleResponse{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Type:        string(r.Type),
		Amount:      r.Amount.String(),
		Description: r.Description,
		Category:    r.Category,
		Every:       string(r.Every),
		StartDate:   r.StartDate.String(),
		Active:      r.Active,
	}
	if !r.EndDate.IsZero() {
		resp.EndDate = r.EndDate.String()
	}
	if !r.LastRun.IsZero() {
		resp.LastRun = r.LastRun.UTC().Format(time.RFC3339)
	}
	return resp
}

func toDebtorResponse(d services.DebtorWithProgress) debtorResponse {
	return debtorResponse{
		ID:          d.Debtor.ID,
		Name:        d.Debtor.Name,
		Description: d.Debtor.Description,
		Principal:   d.Debtor.Principal.String(),
		StartDate:   d.Debtor.StartDate.String(),
		DueDay:      d.Debtor.DueDay,
		Status:      string(d.Debtor.Status),
		CreatedAt:   d.Debtor.CreatedAt,
		Progress: &debtProgressResponse{
			Paid:         d.Progress.Paid.String(),
			Remaining:    d.Progress.Remaining.String(),
			Percentage:   d.Progress.Percentage,
			FullySettled: d.Progress.FullySettled,
		},
	}
}

func toBareDebtorResponse(d core.Debtor) debtorResponse {
	return debtorResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Principal:   d.Principal.String(),
		StartDate:   d.StartDate.String(),
		DueDay:      d.DueDay,
		Status:      string(d.Status),
		CreatedAt:   d.CreatedAt,
	}
}

func toPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		DebtorID:          p.DebtorID,
		Amount:            p.Amount.String(),
		Date:              p.Date.String(),
		InstallmentNumber: p.InstallmentNumber,
		Note:              p.Note,
		CreatedAt:         p.CreatedAt,
	}
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}
