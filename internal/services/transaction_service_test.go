package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func newTransactionService(t *testing.T) *TransactionService {
	t.Helper()
	// nil AMQP client: export messages are skipped, writes must still work
	return NewTransactionService(newTestStorage(t), nil)
}

func testAccountID(t *testing.T, svc *TransactionService) string {
	t.Helper()
	a, err := svc.storage.CreateAccount(context.Background(), core.Account{
		Name:   "Checking",
		Type:   core.Checking,
		Active: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a.ID
}

func TestCreateInstallmentPurchase(t *testing.T) {
	svc := newTransactionService(t)
	ctx := context.Background()
	accountID := testAccountID(t, svc)

	saved, err := svc.CreateInstallmentPurchase(ctx, core.Transaction{
		AccountID:   accountID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 100000}, // 1000.00
		Description: "New phone",
		Category:    "electronics",
		Date:        core.NewDate(2026, 1, 15),
	}, 3)
	if err != nil {
		t.Fatalf("CreateInstallmentPurchase: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(saved))
	}

	wantCents := []int64{33333, 33333, 33334}
	var sum int64
	for i, tr := range saved {
		if tr.Amount.Cents != wantCents[i] {
			t.Errorf("installment %d amount = %d, want %d", i+1, tr.Amount.Cents, wantCents[i])
		}
		sum += tr.Amount.Cents

		wantDesc := fmt.Sprintf("New phone (%d/3)", i+1)
		if tr.Description != wantDesc {
			t.Errorf("installment %d description = %q, want %q", i+1, tr.Description, wantDesc)
		}
		if tr.Installment == nil || tr.Installment.ParentRef != saved[0].Installment.ParentRef {
			t.Errorf("installment %d should share the parent ref", i+1)
		}
	}
	if sum != 100000 {
		t.Errorf("installment sum = %d, want 100000", sum)
	}

	linked, err := svc.ListInstallments(ctx, saved[0].Installment.ParentRef)
	if err != nil {
		t.Fatalf("ListInstallments: %v", err)
	}
	if len(linked) != 3 {
		t.Errorf("expected 3 linked installments, got %d", len(linked))
	}
}

func TestCreateInstallmentPurchaseInvalidCount(t *testing.T) {
	svc := newTransactionService(t)
	accountID := testAccountID(t, svc)

	_, err := svc.CreateInstallmentPurchase(context.Background(), core.Transaction{
		AccountID:   accountID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 100000},
		Description: "Bad purchase",
		Category:    "misc",
		Date:        core.NewDate(2026, 1, 15),
	}, 0)
	if !errors.Is(err, core.ErrInvalidInstallmentCount) {
		t.Errorf("count 0 = %v, want ErrInvalidInstallmentCount", err)
	}
}

func TestPreviewInstallmentsPersistsNothing(t *testing.T) {
	svc := newTransactionService(t)
	ctx := context.Background()

	preview, err := svc.PreviewInstallments(ctx, core.Money{Cents: 100000}, 3, core.NewDate(2026, 1, 31))
	if err != nil {
		t.Fatalf("PreviewInstallments: %v", err)
	}
	if len(preview) != 3 {
		t.Fatalf("expected 3 preview rows, got %d", len(preview))
	}
	// Jan 31 start clamps to Feb 28 in a non-leap year path
	if preview[1].DueDate.String() != "2026-02-28" {
		t.Errorf("second due date = %s, want 2026-02-28", preview[1].DueDate)
	}

	stored, err := svc.ListTransactions(ctx, 2026, 1)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("preview must not persist, found %d transactions", len(stored))
	}
}

func TestDeleteTransaction(t *testing.T) {
	svc := newTransactionService(t)
	ctx := context.Background()
	accountID := testAccountID(t, svc)

	tr, err := svc.CreateTransaction(ctx, core.Transaction{
		AccountID:   accountID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4200},
		Description: "Book",
		Category:    "leisure",
		Date:        core.NewDate(2026, 2, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, tr.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := svc.GetTransaction(ctx, tr.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTransaction after delete = %v, want ErrNotFound", err)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc := newTransactionService(t)
	accountID := testAccountID(t, svc)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		AccountID: accountID,
		Type:      core.Expense,
		Amount:    core.Money{Cents: 4200},
		Category:  "leisure",
		Date:      core.NewDate(2026, 2, 1),
	})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("missing description = %v, want ErrEmptyDescription", err)
	}
}
