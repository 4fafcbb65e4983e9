package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestProcessDueRulesCreatesTransactions(t *testing.T) {
	repo := newTestStorage(t)
	txService := NewTransactionService(repo, nil)
	processor := NewRecurringProcessor(repo, txService)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: core.Checking, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	rule, err := repo.CreateRecurringRule(ctx, core.RecurringRule{
		AccountID:   account.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 99900},
		Description: "Rent",
		Category:    "housing",
		Every:       core.Monthly,
		StartDate:   core.NewDate(2026, 1, 5),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	processed, err := processor.ProcessDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	created, err := repo.ListTransactions(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(created) != 1 || created[0].Description != "Rent" || created[0].Amount.Cents != 99900 {
		t.Fatalf("created = %+v", created)
	}

	got, err := repo.GetRecurringRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRecurringRule: %v", err)
	}
	if !got.LastRun.Equal(now) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, now)
	}

	// same month again: nothing new
	processed, err = processor.ProcessDueRules(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if processed != 0 {
		t.Errorf("second run processed = %d, want 0", processed)
	}
}

func TestProcessDueRulesDeactivatesExpired(t *testing.T) {
	repo := newTestStorage(t)
	processor := NewRecurringProcessor(repo, NewTransactionService(repo, nil))
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: core.Checking, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	_, err = repo.CreateRecurringRule(ctx, core.RecurringRule{
		AccountID:   account.ID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 5000},
		Description: "Old subscription",
		Category:    "services",
		Every:       core.Monthly,
		StartDate:   core.NewDate(2025, 1, 1),
		EndDate:     core.NewDate(2025, 12, 31),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringRule: %v", err)
	}

	processed, err := processor.ProcessDueRules(ctx, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueRules: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0 for expired rule", processed)
	}

	active, err := repo.ListActiveRecurringRules(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurringRules: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected expired rule to be deactivated, %d still active", len(active))
	}
}
