package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name       string
	Amount     Money
	Percentage float64
}

// MonthSummary is a compact dashboard summary for a specific year+month.
type MonthSummary struct {
	Year          int
	Month         int // 1-12
	Income        Money
	Expenses      Money
	Net           Money
	SavingsRate   float64 // percentage of income kept, 0 when there is no income
	TopCategories []CategoryAmount
}

// CashFlowPoint is one day in a cash-flow series. Balance accumulates paid
// movements; Projected also counts scheduled but unpaid ones.
type CashFlowPoint struct {
	Date      Date
	Income    Money
	Expense   Money
	Balance   Money
	Projected Money
}

// CalendarDay groups the transactions due on a single day for the calendar
// view.
type CalendarDay struct {
	Date         Date
	Income       Money
	Expense      Money
	Transactions []Transaction
}

// BudgetUsage pairs a budget with the amount actually spent in the period.
type BudgetUsage struct {
	Budget     Budget
	Spent      Money
	Percentage float64 // spent/amount, clamped at 100 for display
	Exceeded   bool
}
