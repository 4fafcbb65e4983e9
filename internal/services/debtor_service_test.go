package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newDebtor(t *testing.T, svc *DebtorService, principalCents int64) core.Debtor {
	t.Helper()
	d, err := svc.CreateDebtor(context.Background(), core.Debtor{
		Name:      "John",
		Principal: core.Money{Cents: principalCents},
		StartDate: core.NewDate(2026, 1, 1),
		DueDay:    10,
	})
	if err != nil {
		t.Fatalf("CreateDebtor: %v", err)
	}
	return d
}

func TestRegisterPaymentUpdatesProgress(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	ctx := context.Background()
	debtor := newDebtor(t, svc, 500000) // 5000.00

	dp, err := svc.RegisterPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 200000},
		Date:     core.NewDate(2026, 2, 10),
	})
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}

	if dp.Progress.Paid.Cents != 200000 {
		t.Errorf("paid = %d, want 200000", dp.Progress.Paid.Cents)
	}
	if dp.Progress.Remaining.Cents != 300000 {
		t.Errorf("remaining = %d, want 300000", dp.Progress.Remaining.Cents)
	}
	if dp.Progress.Percentage != 40 {
		t.Errorf("percentage = %v, want 40", dp.Progress.Percentage)
	}
	if dp.Progress.FullySettled {
		t.Error("debtor should not be fully settled at 40%")
	}
}

func TestOverpaymentClampsRemaining(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	ctx := context.Background()
	debtor := newDebtor(t, svc, 100000) // 1000.00

	dp, err := svc.RegisterPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 120000},
		Date:     core.NewDate(2026, 2, 10),
	})
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}

	if dp.Progress.Remaining.Cents != 0 {
		t.Errorf("remaining = %d, want 0", dp.Progress.Remaining.Cents)
	}
	if dp.Progress.Percentage != 100 {
		t.Errorf("percentage = %v, want clamp at 100", dp.Progress.Percentage)
	}
	if !dp.Progress.FullySettled {
		t.Error("overpaid debtor should report fully settled")
	}

	// fully paid is reported, never auto-applied
	got, err := svc.GetDebtor(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("GetDebtor: %v", err)
	}
	if got.Debtor.Status != core.DebtorActive {
		t.Errorf("status = %s, payments must not auto-settle", got.Debtor.Status)
	}
}

func TestSettleRequiresFullCoverage(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	ctx := context.Background()
	debtor := newDebtor(t, svc, 320000) // 3200.00

	_, err := svc.RegisterPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 80000},
		Date:     core.NewDate(2026, 2, 10),
	})
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}

	if _, err := svc.Settle(ctx, debtor.ID); !errors.Is(err, core.ErrDebtorNotSettleable) {
		t.Fatalf("Settle with partial coverage = %v, want ErrDebtorNotSettleable", err)
	}

	_, err = svc.RegisterPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 240000},
		Date:     core.NewDate(2026, 3, 10),
	})
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}

	settled, err := svc.Settle(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if settled.Status != core.DebtorSettled {
		t.Errorf("status = %s, want settled", settled.Status)
	}

	// terminal: no more payments, no more transitions
	_, err = svc.RegisterPayment(ctx, core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: 100},
		Date:     core.NewDate(2026, 4, 10),
	})
	if !errors.Is(err, core.ErrDebtorNotActive) {
		t.Errorf("payment on settled debtor = %v, want ErrDebtorNotActive", err)
	}
	if _, err := svc.Cancel(ctx, debtor.ID); !errors.Is(err, core.ErrDebtorNotActive) {
		t.Errorf("cancel on settled debtor = %v, want ErrDebtorNotActive", err)
	}
}

func TestCancelForgivesRemainingDebt(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	ctx := context.Background()
	debtor := newDebtor(t, svc, 100000)

	cancelled, err := svc.Cancel(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != core.DebtorCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	if _, err := svc.Settle(ctx, debtor.ID); err == nil {
		t.Error("settling a cancelled debtor should fail")
	}
}

func TestRegisterPaymentRejectsNegativeAmount(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	debtor := newDebtor(t, svc, 100000)

	_, err := svc.RegisterPayment(context.Background(), core.Payment{
		DebtorID: debtor.ID,
		Amount:   core.Money{Cents: -500},
		Date:     core.NewDate(2026, 2, 10),
	})
	if !errors.Is(err, core.ErrNegativePayment) {
		t.Errorf("negative payment = %v, want ErrNegativePayment", err)
	}
}

func TestTotalsSkipTerminalDebtors(t *testing.T) {
	svc := NewDebtorService(newTestStorage(t), nil)
	ctx := context.Background()

	active := newDebtor(t, svc, 300000)
	gone := newDebtor(t, svc, 900000)

	_, err := svc.RegisterPayment(ctx, core.Payment{
		DebtorID: active.ID,
		Amount:   core.Money{Cents: 100000},
		Date:     core.NewDate(2026, 2, 10),
	})
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}
	if _, err := svc.Cancel(ctx, gone.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	totals, err := svc.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.ActiveCount != 1 {
		t.Errorf("active count = %d, want 1", totals.ActiveCount)
	}
	if totals.TotalPrincipal.Cents != 300000 {
		t.Errorf("total principal = %d, want 300000", totals.TotalPrincipal.Cents)
	}
	if totals.TotalRemaining.Cents != 200000 {
		t.Errorf("total remaining = %d, want 200000", totals.TotalRemaining.Cents)
	}
}
