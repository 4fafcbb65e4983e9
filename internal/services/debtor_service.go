package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// DebtorService manages debtors and their payment logs. Progress is always
// recomputed from the stored payments; settling is an explicit transition,
// never a side effect of a payment covering the principal.
type DebtorService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// NewDebtorService creates a debtor service. amqpClient may be nil; status
// transition events are then kept local.
func NewDebtorService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *DebtorService {
	return &DebtorService{storage: storage, amqpClient: amqpClient}
}

// DebtorWithProgress pairs a debtor with its computed repayment progress.
type DebtorWithProgress struct {
	Debtor   core.Debtor
	Progress core.DebtProgress
}

// DebtorTotals aggregates repayment state across all active debtors.
type DebtorTotals struct {
	ActiveCount    int
	TotalPrincipal core.Money
	TotalPaid      core.Money
	TotalRemaining core.Money
}

// CreateDebtor validates and saves a new debtor in the active state.
func (s *DebtorService) CreateDebtor(ctx context.Context, d core.Debtor) (core.Debtor, error) {
	if err := d.Validate(); err != nil {
		return core.Debtor{}, err
	}
	return s.storage.CreateDebtor(ctx, d)
}

// GetDebtor returns a debtor together with its current progress.
func (s *DebtorService) GetDebtor(ctx context.Context, id string) (DebtorWithProgress, error) {
	debtor, err := s.storage.GetDebtor(ctx, id)
	if err != nil {
		return DebtorWithProgress{}, err
	}
	return s.withProgress(ctx, debtor)
}

// ListDebtors returns all debtors with their progress.
func (s *DebtorService) ListDebtors(ctx context.Context) ([]DebtorWithProgress, error) {
	debtors, err := s.storage.ListDebtors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DebtorWithProgress, 0, len(debtors))
	for _, d := range debtors {
		dp, err := s.withProgress(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	return out, nil
}

// ListPayments returns a debtor's payment log in recording order.
func (s *DebtorService) ListPayments(ctx context.Context, debtorID string) ([]core.Payment, error) {
	if _, err := s.storage.GetDebtor(ctx, debtorID); err != nil {
		return nil, err
	}
	return s.storage.ListPayments(ctx, debtorID)
}

// RegisterPayment appends a payment to an active debtor and returns the
// updated progress. Covering the principal does NOT settle the debtor; the
// caller decides when to call Settle.
func (s *DebtorService) RegisterPayment(ctx context.Context, p core.Payment) (DebtorWithProgress, error) {
	if err := p.Validate(); err != nil {
		return DebtorWithProgress{}, err
	}

	if _, err := s.storage.AppendPayment(ctx, p); err != nil {
		return DebtorWithProgress{}, err
	}

	dp, err := s.GetDebtor(ctx, p.DebtorID)
	if err != nil {
		return DebtorWithProgress{}, fmt.Errorf("reload debtor after payment: %w", err)
	}

	if dp.Progress.FullySettled {
		slog.InfoContext(ctx, "Debtor payments now cover the principal",
			"debtor_id", p.DebtorID,
			"paid_cents", dp.Progress.Paid.Cents)
	}
	return dp, nil
}

// Settle marks an active debtor as settled. The payments must cover the
// principal first.
func (s *DebtorService) Settle(ctx context.Context, id string) (core.Debtor, error) {
	dp, err := s.GetDebtor(ctx, id)
	if err != nil {
		return core.Debtor{}, err
	}
	if !dp.Progress.FullySettled {
		return core.Debtor{}, core.ErrDebtorNotSettleable
	}

	if err := s.storage.UpdateDebtorStatus(ctx, id, core.DebtorSettled); err != nil {
		return core.Debtor{}, err
	}
	s.publishEvent(ctx, id, amqp.DebtorEventSettled)
	return s.storage.GetDebtor(ctx, id)
}

// Cancel marks an active debtor as cancelled, forgiving the remaining debt.
func (s *DebtorService) Cancel(ctx context.Context, id string) (core.Debtor, error) {
	if err := s.storage.UpdateDebtorStatus(ctx, id, core.DebtorCancelled); err != nil {
		return core.Debtor{}, err
	}
	s.publishEvent(ctx, id, amqp.DebtorEventCancelled)
	return s.storage.GetDebtor(ctx, id)
}

// publishEvent announces a status transition; the transition itself already
// committed, so a broker failure is logged and swallowed.
func (s *DebtorService) publishEvent(ctx context.Context, id, event string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDebtorEvent(ctx, id, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish debtor event",
			"error", err,
			"debtor_id", id,
			"event", event)
	}
}

// Delete permanently removes a debtor and its payment log.
func (s *DebtorService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteDebtor(ctx, id)
}

// Totals aggregates principal, paid and remaining over active debtors.
func (s *DebtorService) Totals(ctx context.Context) (DebtorTotals, error) {
	debtors, err := s.ListDebtors(ctx)
	if err != nil {
		return DebtorTotals{}, err
	}

	var totals DebtorTotals
	for _, dp := range debtors {
		if dp.Debtor.Status != core.DebtorActive {
			continue
		}
		totals.ActiveCount++
		totals.TotalPrincipal = totals.TotalPrincipal.Add(dp.Debtor.Principal)
		totals.TotalPaid = totals.TotalPaid.Add(dp.Progress.Paid)
		totals.TotalRemaining = totals.TotalRemaining.Add(dp.Progress.Remaining)
	}
	return totals, nil
}

func (s *DebtorService) withProgress(ctx context.Context, d core.Debtor) (DebtorWithProgress, error) {
	payments, err := s.storage.ListPayments(ctx, d.ID)
	if err != nil {
		return DebtorWithProgress{}, err
	}

	progress, err := core.ComputeProgress(d.Principal, payments)
	if err != nil {
		return DebtorWithProgress{}, fmt.Errorf("compute progress for debtor %s: %w", d.ID, err)
	}
	return DebtorWithProgress{Debtor: d, Progress: progress}, nil
}
