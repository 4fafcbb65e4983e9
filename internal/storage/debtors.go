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

// CreateDebtor inserts a new debtor in the active state.
func (r *SQLiteRepository) CreateDebtor(ctx context.Context, d core.Debtor) (core.Debtor, error) {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Status == "" {
		d.Status = core.DebtorActive
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debtors (id, name, description, principal_cents, start_date, due_day, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.Principal.Cents, d.StartDate.String(), d.DueDay, string(d.Status), d.CreatedAt.Unix())
	if err != nil {
		return core.Debtor{}, fmt.Errorf("insert debtor: %w", err)
	}

	slog.InfoContext(ctx, "Debtor saved", "debtor_id", d.ID, "name", d.Name, "principal_cents", d.Principal.Cents)
	return d, nil
}

// GetDebtor returns a debtor by ID.
func (r *SQLiteRepository) GetDebtor(ctx context.Context, id string) (core.Debtor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, principal_cents, start_date, due_day, status, created_at
		FROM debtors WHERE id = ?`, id)
	d, err := scanDebtor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debtor{}, ErrNotFound
	}
	return d, err
}

// ListDebtors returns all debtors, newest first.
func (r *SQLiteRepository) ListDebtors(ctx context.Context) ([]core.Debtor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, principal_cents, start_date, due_day, status, created_at
		FROM debtors ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	defer rows.Close()

	var out []core.Debtor
	for rows.Next() {
		d, err := scanDebtor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDebtorStatus performs the active -> settled / active -> cancelled
// transition. The WHERE guard makes terminal states sticky: transitioning an
// already settled or cancelled debtor reports ErrDebtorNotActive.
func (r *SQLiteRepository) UpdateDebtorStatus(ctx context.Context, id string, status core.DebtorStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE debtors SET status = ? WHERE id = ? AND status = 'active'`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update debtor status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetDebtor(ctx, id); err != nil {
			return err
		}
		return core.ErrDebtorNotActive
	}
	slog.InfoContext(ctx, "Debtor status updated", "debtor_id", id, "status", status)
	return nil
}

// DeleteDebtor removes a debtor and, via cascade, its payment log.
func (r *SQLiteRepository) DeleteDebtor(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debtors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debtor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Debtor deleted", "debtor_id", id)
	return nil
}

// AppendPayment adds a payment to a debtor's log. Only active debtors accept
// payments; settled and cancelled are terminal. The insert carries the status
// guard so a settle racing with a payment cannot leave a payment on a
// terminal debtor.
func (r *SQLiteRepository) AppendPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var installmentNumber any
	if p.InstallmentNumber > 0 {
		installmentNumber = p.InstallmentNumber
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO debtor_payments (id, debtor_id, amount_cents, payment_date, installment_number, note, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM debtors WHERE id = ? AND status = 'active')`,
		p.ID, p.DebtorID, p.Amount.Cents, p.Date.String(), installmentNumber, p.Note, p.CreatedAt.Unix(), p.DebtorID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Payment{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetDebtor(ctx, p.DebtorID); err != nil {
			return core.Payment{}, err
		}
		return core.Payment{}, core.ErrDebtorNotActive
	}

	slog.InfoContext(ctx, "Payment recorded", "debtor_id", p.DebtorID, "amount_cents", p.Amount.Cents)
	return p, nil
}

// ListPayments returns a debtor's payments in recording order, which is the
// order the progress aggregation contract expects.
func (r *SQLiteRepository) ListPayments(ctx context.Context, debtorID string) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, debtor_id, amount_cents, payment_date, installment_number, note, created_at
		FROM debtor_payments WHERE debtor_id = ?
		ORDER BY created_at, id`, debtorID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p                 core.Payment
			date              string
			installmentNumber sql.NullInt64
			createdAt         int64
		)
		if err := rows.Scan(&p.ID, &p.DebtorID, &p.Amount.Cents, &date, &installmentNumber, &p.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Date, err = parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		p.InstallmentNumber = int(installmentNumber.Int64)
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanDebtor(row rowScanner) (core.Debtor, error) {
	var (
		d         core.Debtor
		startDate string
		status    string
		createdAt int64
	)
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Principal.Cents, &startDate, &d.DueDay, &status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Debtor{}, err
		}
		return core.Debtor{}, fmt.Errorf("scan debtor: %w", err)
	}
	d.StartDate, err = parseStoredDate(startDate)
	if err != nil {
		return core.Debtor{}, err
	}
	d.Status = core.DebtorStatus(status)
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	return d, nil
}
