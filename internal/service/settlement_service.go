package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/gateway"
	"github.com/esusuhq/esusu/internal/metrics"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/schedule"
	"github.com/esusuhq/esusu/internal/storage"
)

// SettlementService runs the two daily sweeps: collect-savings charges every
// due member's saved card, disburse-payments pays out the member whose turn
// it is. Both sweeps are idempotent per due date and tolerate per-row
// failures; only a storage failure aborts a sweep.
type SettlementService struct {
	store storage.Store
	gw    gateway.Gateway

	now func() time.Time
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, gw gateway.Gateway) *SettlementService {
	return &SettlementService{store: store, gw: gw, now: time.Now}
}

// SavingsReport summarizes one collect-savings run.
type SavingsReport struct {
	Cycles  int `json:"cycles"`
	Charged int `json:"charged"`
	Skipped int `json:"skipped"`
}

// PaymentsReport summarizes one disburse-payments run.
type PaymentsReport struct {
	Due     int `json:"due"`
	Paid    int `json:"paid"`
	Skipped int `json:"skipped"`
}

// CollectSavings charges every member of every cycle whose next saving date
// is today.
//
// Every charge attempt is recorded as a Transaction plus SavingsListEntry,
// whatever the gateway reported, so failures stay auditable. Members without
// a saved card are skipped for this window. After a cycle's members are
// processed its next saving date advances by a week, or goes null once the
// cycle's end date has been reached — that single advance is what makes a
// same-day rerun a no-op.
func (s *SettlementService) CollectSavings(ctx context.Context) (*SavingsReport, error) {
	today := schedule.DateOnly(s.now())

	cycles, err := s.store.CyclesDueForSaving(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load due cycles: %w", err)
	}

	report := &SavingsReport{Cycles: len(cycles)}
	for _, cycle := range cycles {
		if err := s.collectForCycle(ctx, cycle, report); err != nil {
			metrics.SweepRuns.WithLabelValues("save", "aborted").Inc()
			return nil, err
		}

		if cycle.EndDate != nil && !today.Before(*cycle.EndDate) {
			if err := s.store.SetCycleNextSavingDate(ctx, cycle.ID, nil); err != nil {
				return nil, err
			}
			slog.Info("Cycle collection phase finished", "cycle_id", cycle.ID, "group_id", cycle.GroupID)
		} else {
			next := schedule.NextSavingDate(today)
			if err := s.store.SetCycleNextSavingDate(ctx, cycle.ID, &next); err != nil {
				return nil, err
			}
		}
	}

	metrics.SweepRuns.WithLabelValues("save", "completed").Inc()
	slog.Info("Collect-savings sweep completed",
		"date", today.Format(time.DateOnly),
		"cycles", report.Cycles,
		"charged", report.Charged,
		"skipped", report.Skipped,
	)

	return report, nil
}

func (s *SettlementService) collectForCycle(ctx context.Context, cycle *models.Cycle, report *SavingsReport) error {
	group, err := s.store.GetGroup(ctx, cycle.GroupID)
	if err != nil {
		return err
	}
	members, err := s.store.ListMemberships(ctx, cycle.GroupID)
	if err != nil {
		return err
	}

	for _, member := range members {
		card, err := s.store.GetCardByUser(ctx, member.UserID)
		if apperror.IsNotFound(err) {
			slog.Info("Member has no saved card, skipping contribution",
				"group_id", group.ID, "user_id", member.UserID)
			metrics.SweepSkips.WithLabelValues("save", "no_card").Inc()
			report.Skipped++
			continue
		}
		if err != nil {
			return err
		}

		txn := s.chargeMember(ctx, group, card, member.UserID)
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		entry := &models.SavingsListEntry{
			GroupID:       group.ID,
			CycleID:       cycle.ID,
			UserID:        member.UserID,
			TransactionID: txn.ID,
		}
		if err := s.store.CreateSavingsEntry(ctx, entry); err != nil {
			return err
		}
		report.Charged++
	}

	return nil
}

// chargeMember attempts one contribution charge and always produces a
// Transaction to record. A charge that never reached the gateway gets a
// locally generated reference and failed status.
func (s *SettlementService) chargeMember(ctx context.Context, group *models.Group, card *models.Card, userID string) *models.Transaction {
	txn := &models.Transaction{
		Type:   models.TransactionSavings,
		UserID: userID,
	}

	res, err := s.gw.ChargeSavedInstrument(ctx, card.AuthorizationCode, card.Email, group.AmountToSave.MinorUnits())
	if err != nil {
		slog.Warn("Contribution charge failed",
			"group_id", group.ID, "user_id", userID, "error", err)
		metrics.SavingsCharges.WithLabelValues("failed").Inc()
		txn.Reference = "local-" + uuid.New().String()
		txn.Status = models.StatusFailed
		txn.Amount = group.AmountToSave
		return txn
	}

	metrics.SavingsCharges.WithLabelValues(res.Status).Inc()
	txn.Reference = res.Reference
	txn.Status = models.TransactionStatus(res.Status)
	txn.Amount = models.MoneyFromMinorUnits(res.AmountMinor, group.AmountToSave.Currency)
	return txn
}

// DisbursePayments pays out every payout slot due today.
//
// Slots already carrying a transaction are skipped, which is what makes a
// rerun safe. Recipients without a registered bank are left pending for a
// later run. A gateway failure skips the slot without writing anything so
// tomorrow's run can retry; only a successful transfer is recorded and
// attached.
func (s *SettlementService) DisbursePayments(ctx context.Context) (*PaymentsReport, error) {
	today := schedule.DateOnly(s.now())

	entries, err := s.store.PaymentEntriesDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load due payment entries: %w", err)
	}

	report := &PaymentsReport{Due: len(entries)}
	for _, entry := range entries {
		if entry.TransactionID != nil {
			metrics.SweepSkips.WithLabelValues("pay", "already_settled").Inc()
			report.Skipped++
			continue
		}

		if err := s.disburseEntry(ctx, entry, report); err != nil {
			metrics.SweepRuns.WithLabelValues("pay", "aborted").Inc()
			return nil, err
		}
	}

	metrics.SweepRuns.WithLabelValues("pay", "completed").Inc()
	slog.Info("Disburse-payments sweep completed",
		"date", today.Format(time.DateOnly),
		"due", report.Due,
		"paid", report.Paid,
		"skipped", report.Skipped,
	)

	return report, nil
}

func (s *SettlementService) disburseEntry(ctx context.Context, entry *models.PaymentListEntry, report *PaymentsReport) error {
	bank, err := s.store.GetBankByUser(ctx, entry.UserID)
	if apperror.IsNotFound(err) {
		slog.Info("Recipient has no registered bank, leaving payout pending",
			"group_id", entry.GroupID, "user_id", entry.UserID)
		metrics.SweepSkips.WithLabelValues("pay", "no_bank").Inc()
		report.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	group, err := s.store.GetGroup(ctx, entry.GroupID)
	if err != nil {
		return err
	}
	count, err := s.store.CountMemberships(ctx, entry.GroupID)
	if err != nil {
		return err
	}

	// The payout is the full pool for the period: the fixed contribution
	// times the current member count.
	amount := group.AmountToSave.Mul(int64(count))

	res, err := s.gw.InitiateTransfer(ctx, bank.RecipientCode, amount.MinorUnits())
	if err != nil {
		slog.Warn("Payout transfer failed, will retry on a future run",
			"group_id", entry.GroupID, "user_id", entry.UserID, "error", err)
		metrics.DisbursementTransfers.WithLabelValues("failed").Inc()
		metrics.SweepSkips.WithLabelValues("pay", "gateway_failed").Inc()
		report.Skipped++
		return nil
	}

	txn := &models.Transaction{
		Reference: res.Reference,
		Amount:    models.MoneyFromMinorUnits(res.AmountMinor, amount.Currency),
		Type:      models.TransactionPayment,
		Status:    models.TransactionStatus(res.Status),
		UserID:    entry.UserID,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return err
	}
	if err := s.store.AttachTransactionToPaymentEntry(ctx, entry.ID, txn.ID); err != nil {
		return err
	}

	metrics.DisbursementTransfers.WithLabelValues(res.Status).Inc()
	report.Paid++
	return nil
}

// HandleGatewayWebhook applies a gateway-pushed status change to the
// transaction with the given reference. References this service never
// recorded are ignored.
func (s *SettlementService) HandleGatewayWebhook(ctx context.Context, reference string, status models.TransactionStatus) error {
	err := s.store.UpdateTransactionStatus(ctx, reference, status)
	if apperror.IsNotFound(err) {
		slog.Debug("Webhook for unknown transaction reference ignored", "reference", reference)
		return nil
	}
	return err
}
