// Package worker drains the transaction export queue into the configured
// export backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/export"
	"bilancio/internal/storage"
)

// ExportWorker moves transactions from SQLite to the export backend. AMQP
// messages drive it in steady state; the pending-export scan covers lost
// messages and downtime.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.TransactionWriter
	deleter   export.TransactionDeleter
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, writer export.TransactionWriter, deleter export.TransactionDeleter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleMessage processes one export message from AMQP.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	switch msg.Action {
	case amqp.ActionSync:
		return w.exportOne(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.deleteOne(ctx, msg.ID)
	default:
		// Unknown actions are dropped, not requeued.
		slog.WarnContext(ctx, "Ignoring export message with unknown action",
			"id", msg.ID, "action", msg.Action)
		return nil
	}
}

func (w *ExportWorker) exportOne(ctx context.Context, id string) error {
	t, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the message was consumed; nothing to export.
		slog.WarnContext(ctx, "Transaction gone before export", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.writer.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to export backend: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// Don't fail here - the export itself worked
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", id,
		"ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (w *ExportWorker) deleteOne(ctx context.Context, id string) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No export deleter configured, skipping", "id", id)
		return nil
	}
	if err := w.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from export backend: %w", err)
	}
	return nil
}

// ProcessPending exports transactions still marked pending. Called
// periodically and at startup to recover from missed messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	exported, failed := 0, 0
	for _, p := range pending {
		if err := w.exportOne(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Pending export pass complete",
		"exported", exported,
		"failed", failed)
	return nil
}
