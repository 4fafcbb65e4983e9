// Package services provides business logic and orchestration on top of the
// storage and messaging layers.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// SQLite is the source of truth; export messages are best effort.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateTransaction validates and saves one transaction, then publishes an
// export message. A failed publish never fails the request.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishExport(ctx, saved.ID, amqp.ActionSync)
	return saved, nil
}

// CreateInstallmentPurchase splits a purchase into monthly installments and
// saves all of them atomically. Either every installment lands or none.
func (s *TransactionService) CreateInstallmentPurchase(ctx context.Context, t core.Transaction, count int) ([]core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	installments, err := core.SplitInstallments(t.Amount, count, t.Date, "")
	if err != nil {
		return nil, err
	}

	batch := make([]core.Transaction, len(installments))
	for i, inst := range installments {
		entry := t
		entry.ID = ""
		entry.Amount = inst.Amount
		entry.Date = inst.DueDate
		entry.Description = fmt.Sprintf("%s (%d/%d)", t.Description, inst.Index, inst.TotalCount)
		entry.Installment = &core.InstallmentInfo{
			Index:      inst.Index,
			TotalCount: inst.TotalCount,
			ParentRef:  inst.ParentRef,
		}
		batch[i] = entry
	}

	saved, err := s.storage.CreateTransactionBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("save installments: %w", err)
	}

	for _, tr := range saved {
		s.publishExport(ctx, tr.ID, amqp.ActionSync)
	}

	slog.InfoContext(ctx, "Installment purchase created",
		"parent_ref", installments[0].ParentRef,
		"count", len(saved),
		"total_cents", t.Amount.Cents)
	return saved, nil
}

// PreviewInstallments splits without persisting anything.
func (s *TransactionService) PreviewInstallments(ctx context.Context, total core.Money, count int, start core.Date) ([]core.Installment, error) {
	return core.SplitInstallments(total, count, start, "")
}

// GetTransaction returns one transaction by ID.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListTransactions returns the transactions of a month.
func (s *TransactionService) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, year, month)
}

// ListInstallments returns all installments of one purchase.
func (s *TransactionService) ListInstallments(ctx context.Context, parentRef string) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByParentRef(ctx, parentRef)
}

// DeleteTransaction soft deletes a transaction and publishes a delete
// message so the export backend can reconcile.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.storage.SoftDeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}

	s.publishExport(ctx, id, amqp.ActionDelete)
	return nil
}

func (s *TransactionService) publishExport(ctx context.Context, id, action string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message", "id", id)
		return
	}
	if err := s.amqpClient.PublishTransactionExport(ctx, id, action); err != nil {
		// Don't fail the request - the row is saved locally
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", id, "action", action, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
