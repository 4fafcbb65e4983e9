package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testAccount(t *testing.T, repo *SQLiteRepository) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		Name:           "Main checking",
		Type:           core.Checking,
		InitialBalance: core.Money{Cents: 100000},
		Currency:       "BRL",
		Active:         true,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func TestAccountRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := testAccount(t, repo)
	if created.ID == "" {
		t.Fatal("expected generated account ID")
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Name != "Main checking" || got.Type != core.Checking {
		t.Errorf("got %+v", got)
	}
	if got.InitialBalance.Cents != 100000 {
		t.Errorf("initial balance = %d, want 100000", got.InitialBalance.Cents)
	}
	if !got.Active {
		t.Error("expected account to be active")
	}

	all, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 account, got %d", len(all))
	}
}

func TestCreditCardRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	card, err := repo.CreateCreditCard(ctx, core.CreditCard{
		AccountID:  account.ID,
		Name:       "Platinum",
		LastFour:   "4242",
		Limit:      core.Money{Cents: 500000},
		ClosingDay: 5,
		DueDay:     15,
		Brand:      "visa",
	})
	if err != nil {
		t.Fatalf("CreateCreditCard: %v", err)
	}

	cards, err := repo.ListCreditCards(ctx)
	if err != nil {
		t.Fatalf("ListCreditCards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != card.ID || cards[0].DueDay != 15 {
		t.Errorf("got %+v", cards)
	}
}

func TestTransactionBatchAndParentRef(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	installments, err := core.SplitInstallments(core.Money{Cents: 100000}, 3, core.NewDate(2026, 1, 15), "")
	if err != nil {
		t.Fatalf("SplitInstallments: %v", err)
	}

	batch := make([]core.Transaction, len(installments))
	for i, inst := range installments {
		batch[i] = core.Transaction{
			AccountID:   account.ID,
			Type:        core.Expense,
			Amount:      inst.Amount,
			Description: "New laptop",
			Category:    "electronics",
			Date:        inst.DueDate,
			Installment: &core.InstallmentInfo{
				Index:      inst.Index,
				TotalCount: inst.TotalCount,
				ParentRef:  inst.ParentRef,
			},
		}
	}

	saved, err := repo.CreateTransactionBatch(ctx, batch)
	if err != nil {
		t.Fatalf("CreateTransactionBatch: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("expected 3 saved transactions, got %d", len(saved))
	}

	linked, err := repo.ListTransactionsByParentRef(ctx, installments[0].ParentRef)
	if err != nil {
		t.Fatalf("ListTransactionsByParentRef: %v", err)
	}
	if len(linked) != 3 {
		t.Fatalf("expected 3 linked transactions, got %d", len(linked))
	}

	var sum int64
	for i, tr := range linked {
		if tr.Installment == nil {
			t.Fatalf("transaction %d has no installment info", i)
		}
		if tr.Installment.Index != i+1 {
			t.Errorf("installment %d index = %d", i, tr.Installment.Index)
		}
		sum += tr.Amount.Cents
	}
	if sum != 100000 {
		t.Errorf("installment sum = %d, want 100000", sum)
	}
}

func TestSoftDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	tr, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID:   account.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 5000},
		Description: "Groceries",
		Category:    "food",
		Date:        core.NewDate(2026, 3, 10),
		Paid:        true,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := repo.SoftDeleteTransaction(ctx, tr.ID); err != nil {
		t.Fatalf("SoftDeleteTransaction: %v", err)
	}

	if _, err := repo.GetTransaction(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction after delete = %v, want ErrNotFound", err)
	}
	if err := repo.SoftDeleteTransaction(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second SoftDeleteTransaction = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsMonthWindow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	dates := []core.Date{
		core.NewDate(2026, 2, 28),
		core.NewDate(2026, 3, 1),
		core.NewDate(2026, 3, 31),
		core.NewDate(2026, 4, 1),
	}
	for _, d := range dates {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			AccountID:   account.ID,
			Type:        core.Expense,
			Amount:      core.Money{Cents: 1000},
			Description: "d " + d.String(),
			Category:    "misc",
			Date:        d,
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	march, err := repo.ListTransactions(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(march) != 2 {
		t.Fatalf("expected 2 march transactions, got %d", len(march))
	}
	for _, tr := range march {
		if tr.Date.Month() != 3 {
			t.Errorf("transaction %s outside march: %s", tr.ID, tr.Date)
		}
	}
}

func TestDebtorStatusGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	debtor, err := repo.CreateDebtor(ctx, core.Debtor{
		Name:      "John",
		Principal: core.Money{Cents: 500000},
		StartDate: core.NewDate(2026, 1, 1),
		DueDay:    10,
	})
	if err != nil {
		t.Fatalf("CreateDebtor: %v", err)
	}
	if debtor.Status != core.DebtorActive {
		t.Fatalf("new debtor status = %s, want active", debtor.Status)
	}

	if err := repo.UpdateDebtorStatus(ctx, debtor.ID, core.DebtorSettled); err != nil {
		t.Fatalf("UpdateDebtorStatus: %v", err)
	}

	// terminal states are sticky
	err = repo.UpdateDebtorStatus(ctx, debtor.ID, core.DebtorCancelled)
	if !errors.Is(err, core.ErrDebtorNotActive) {
		t.Errorf("second transition = %v, want ErrDebtorNotActive", err)
	}

	got, err := repo.GetDebtor(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("GetDebtor: %v", err)
	}
	if got.Status != core.DebtorSettled {
		t.Errorf("status = %s, want settled", got.Status)
	}

	err = repo.UpdateDebtorStatus(ctx, "missing", core.DebtorSettled)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing debtor = %v, want ErrNotFound", err)
	}
}

func TestAppendPaymentTerminalDebtor(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	debtor, err := repo.CreateDebtor(ctx, core.Debtor{
		Name:      "Mary",
		Principal: core.Money{Cents: 320000},
		StartDate: core.NewDate(2026, 1, 1),
		DueDay:    5,
	})
	if err != nil {
		t.Fatalf("CreateDebtor: %v", err)
	}

	first, err := repo.AppendPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 80000},
		Date:     core.NewDate(2026, 2, 5),
	})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	_, err = repo.AppendPayment(ctx, core.Payment{
		DebtorID:          debtor.ID,
		Amount:            core.Money{Cents: 240000},
		Date:              core.NewDate(2026, 3, 5),
		InstallmentNumber: 2,
	})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}

	payments, err := repo.ListPayments(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if payments[0].ID != first.ID {
		t.Error("payments not in recording order")
	}

	if err := repo.UpdateDebtorStatus(ctx, debtor.ID, core.DebtorCancelled); err != nil {
		t.Fatalf("UpdateDebtorStatus: %v", err)
	}
	_, err = repo.AppendPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 100},
		Date:     core.NewDate(2026, 4, 5),
	})
	if !errors.Is(err, core.ErrDebtorNotActive) {
		t.Errorf("payment on cancelled debtor = %v, want ErrDebtorNotActive", err)
	}

	// the refused payment must not reach the log
	payments, err = repo.ListPayments(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("expected 2 payments after refused insert, got %d", len(payments))
	}

	_, err = repo.AppendPayment(ctx, core.Payment{
		DebtorID: "missing",
		Amount:   core.Money{Cents: 100},
		Date:     core.NewDate(2026, 4, 5),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("payment on missing debtor = %v, want ErrNotFound", err)
	}
}

func TestBudgetUsage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	_, err := repo.CreateBudget(ctx, core.Budget{
		Category:        "food",
		Amount:          core.Money{Cents: 50000},
		Period:          core.Monthly,
		AlertThresholds: []int{50, 80, 100},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	for _, cents := range []int64{30000, 35000} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			AccountID:   account.ID,
			Type:        core.Expense,
			Amount:      core.Money{Cents: cents},
			Description: "Food spend",
			Category:    "food",
			Date:        core.NewDate(2026, 5, 10),
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	usage, err := repo.ListBudgetUsage(ctx, 2026, 5)
	if err != nil {
		t.Fatalf("ListBudgetUsage: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("expected 1 budget usage, got %d", len(usage))
	}
	u := usage[0]
	if u.Spent.Cents != 65000 {
		t.Errorf("spent = %d, want 65000", u.Spent.Cents)
	}
	if !u.Exceeded {
		t.Error("expected budget to be exceeded")
	}
	if u.Percentage != 100 {
		t.Errorf("percentage = %v, want clamp at 100", u.Percentage)
	}
}

func TestMonthSummaryAndCashFlow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo) // opening balance 1000.00

	seed := []struct {
		typ   core.TransactionType
		cents int64
		cat   string
		date  core.Date
		paid  bool
	}{
		{core.Income, 500000, "salary", core.NewDate(2026, 6, 1), true},
		{core.Expense, 120000, "rent", core.NewDate(2026, 6, 5), true},
		{core.Expense, 30000, "food", core.NewDate(2026, 6, 5), false},
		{core.Expense, 20000, "food", core.NewDate(2026, 6, 20), true},
	}
	for _, s := range seed {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			AccountID:   account.ID,
			Type:        s.typ,
			Amount:      core.Money{Cents: s.cents},
			Description: s.cat,
			Category:    s.cat,
			Date:        s.date,
			Paid:        s.paid,
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	summary, err := repo.GetMonthSummary(ctx, 2026, 6)
	if err != nil {
		t.Fatalf("GetMonthSummary: %v", err)
	}
	if summary.Income.Cents != 500000 {
		t.Errorf("income = %d, want 500000", summary.Income.Cents)
	}
	if summary.Expenses.Cents != 170000 {
		t.Errorf("expenses = %d, want 170000", summary.Expenses.Cents)
	}
	if summary.Net.Cents != 330000 {
		t.Errorf("net = %d, want 330000", summary.Net.Cents)
	}
	if len(summary.TopCategories) == 0 || summary.TopCategories[0].Name != "rent" {
		t.Errorf("top categories = %+v", summary.TopCategories)
	}

	flow, err := repo.ListCashFlow(ctx, 2026, 6)
	if err != nil {
		t.Fatalf("ListCashFlow: %v", err)
	}
	if len(flow) != 3 {
		t.Fatalf("expected 3 cash flow points, got %d", len(flow))
	}
	// day 5: balance counts only the paid rent, projection counts both expenses
	day5 := flow[1]
	if day5.Balance.Cents != 100000+500000-120000 {
		t.Errorf("day 5 balance = %d", day5.Balance.Cents)
	}
	if day5.Projected.Cents != 100000+500000-150000 {
		t.Errorf("day 5 projected = %d", day5.Projected.Cents)
	}
	last := flow[len(flow)-1]
	if last.Balance.Cents != 100000+500000-140000 {
		t.Errorf("final balance = %d", last.Balance.Cents)
	}
}

func TestCalendarGroupsByDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	for _, d := range []core.Date{
		core.NewDate(2026, 7, 3),
		core.NewDate(2026, 7, 3),
		core.NewDate(2026, 7, 15),
	} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			AccountID:   account.ID,
			Type:        core.Expense,
			Amount:      core.Money{Cents: 1500},
			Description: "Coffee",
			Category:    "food",
			Date:        d,
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	days, err := repo.ListCalendar(ctx, 2026, 7)
	if err != nil {
		t.Fatalf("ListCalendar: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 calendar days, got %d", len(days))
	}
	if days[0].Date.Day() != 3 || len(days[0].Transactions) != 2 {
		t.Errorf("first day = %+v", days[0])
	}
	if days[0].Expense.Cents != 3000 {
		t.Errorf("first day expense = %d, want 3000", days[0].Expense.Cents)
	}
}

func TestRecurringRuleLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	rule, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		AccountID:   account.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 99900},
		Description: "Rent",
		Category:    "housing",
		Every:       core.Monthly,
		StartDate:   core.NewDate(2026, 1, 31),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}
	if rule.ID == 0 {
		t.Fatal("expected generated rule ID")
	}

	active, err := repo.ListActiveRecurringRules(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurringRules: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active rule, got %d", len(active))
	}
	if !active[0].LastRun.IsZero() {
		t.Error("expected zero LastRun on a fresh rule")
	}

	ranAt := time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkRecurringRuleRun(ctx, rule.ID, ranAt); err != nil {
		t.Fatalf("MarkRecurringRuleRun: %v", err)
	}
	got, err := repo.GetRecurringRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRecurringRule: %v", err)
	}
	if !got.LastRun.Equal(ranAt) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, ranAt)
	}

	if err := repo.DeactivateRecurringRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeactivateRecurringRule: %v", err)
	}
	active, err = repo.ListActiveRecurringRules(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurringRules: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active rules, got %d", len(active))
	}
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{
		Email:        "ana@example.com",
		Name:         "Ana",
		PasswordHash: "$2a$10$fakehashfortest",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("id = %s, want %s", byEmail.ID, u.ID)
	}

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user = %v, want ErrNotFound", err)
	}

	_, err = repo.CreateUser(ctx, core.User{
		Email:        "ana@example.com",
		Name:         "Duplicate",
		PasswordHash: "x",
	})
	if err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestExportStatusQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := testAccount(t, repo)

	tr, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID:   account.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4200},
		Description: "Book",
		Category:    "leisure",
		Date:        core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	pending, err := repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tr.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkExported(ctx, tr.ID); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	pending, err = repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected empty pending queue, got %d", len(pending))
	}
}
