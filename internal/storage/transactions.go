package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// ErrNotFound is returned when a requested row does not exist or was soft
// deleted.
var ErrNotFound = errors.New("not found")

const transactionColumns = `id, account_id, type, amount_cents, description, category, date, paid,
	credit_card_id, installment_index, installment_total, parent_ref, tags, notes, created_at`

// CreateTransaction inserts one transaction, generating its ID when empty.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err = insertTransaction(ctx, tx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

// CreateTransactionBatch inserts all transactions in one SQL transaction.
// Installment purchases rely on this: either every installment lands or none.
func (r *SQLiteRepository) CreateTransactionBatch(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]core.Transaction, len(ts))
	for i, t := range ts {
		out[i], err = insertTransaction(ctx, tx, t)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved", "count", len(out))
	return out, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var cardID, parentRef any
	var instIndex, instTotal any
	if t.CreditCardID != "" {
		cardID = t.CreditCardID
	}
	if t.Installment != nil {
		instIndex = t.Installment.Index
		instTotal = t.Installment.TotalCount
		parentRef = t.Installment.ParentRef
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, type, amount_cents, description, category, date, paid,
			credit_card_id, installment_index, installment_total, parent_ref, tags, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, string(t.Type), t.Amount.Cents, t.Description, t.Category,
		t.Date.String(), boolToInt(t.Paid), cardID, instIndex, instTotal, parentRef,
		joinTags(t.Tags), t.Notes, t.CreatedAt.Unix())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

// GetTransaction returns a transaction by ID, excluding soft-deleted rows.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND deleted_at IS NULL`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return t, err
}

// ListTransactions returns the transactions of a month, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE date >= ? AND date < ? AND deleted_at IS NULL
		ORDER BY date DESC, created_at DESC`,
		monthStart(year, month), monthEnd(year, month))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsByParentRef returns all installments of one purchase in
// installment order.
func (r *SQLiteRepository) ListTransactionsByParentRef(ctx context.Context, parentRef string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE parent_ref = ? AND deleted_at IS NULL
		ORDER BY installment_index`, parentRef)
	if err != nil {
		return nil, fmt.Errorf("list transactions by parent ref: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SoftDeleteTransaction marks a transaction as deleted without dropping the
// row, so the export pipeline can still reconcile it.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = strftime('%s', 'now')
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction soft deleted", "id", id)
	return nil
}

// PendingExportTransaction is the minimal row the export queue needs.
type PendingExportTransaction struct {
	ID        string
	CreatedAt time.Time
}

// ListPendingExports returns transactions not yet exported, oldest first.
func (r *SQLiteRepository) ListPendingExports(ctx context.Context, limit int) ([]PendingExportTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE export_status = 'pending' AND deleted_at IS NULL
		ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExportTransaction
	for rows.Next() {
		var p PendingExportTransaction
		var createdAt int64
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET export_status = 'exported' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError marks a transaction as having failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET export_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ       string
		date      string
		paid      int
		cardID    sql.NullString
		instIndex sql.NullInt64
		instTotal sql.NullInt64
		parentRef sql.NullString
		tags      string
		createdAt int64
	)
	err := row.Scan(&t.ID, &t.AccountID, &typ, &t.Amount.Cents, &t.Description, &t.Category,
		&date, &paid, &cardID, &instIndex, &instTotal, &parentRef, &tags, &t.Notes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(typ)
	t.Date, err = parseStoredDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Paid = paid != 0
	t.CreditCardID = cardID.String
	if instIndex.Valid && instTotal.Valid {
		t.Installment = &core.InstallmentInfo{
			Index:      int(instIndex.Int64),
			TotalCount: int(instTotal.Int64),
			ParentRef:  parentRef.String,
		}
	}
	t.Tags = splitTags(tags)
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

// monthStart returns the inclusive YYYY-MM-DD lower bound of a month.
func monthStart(year, month int) string {
	return core.NewDate(year, month, 1).String()
}

// monthEnd returns the exclusive YYYY-MM-DD upper bound of a month.
func monthEnd(year, month int) string {
	return core.NewDate(year, month, 1).AddDate(0, 1, 0).Format("2006-01-02")
}
