package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func validTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		AccountID:   "acc-1",
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1234},
		Description: "Coffee",
		Category:    "food",
		Date:        core.NewDate(2026, 3, 1),
	}
}

func TestStoreAppendAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, validTransaction("a"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("append: ref=%q err=%v", ref, err)
	}
	if _, err := s.Append(ctx, validTransaction("b")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("items = %+v", items)
	}

	// deleting an unknown ID is a no-op
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestStoreAppendValidates(t *testing.T) {
	s := New()
	bad := validTransaction("c")
	bad.Description = ""
	if _, err := s.Append(context.Background(), bad); err == nil {
		t.Error("expected validation error")
	}
}
