package reconciliation

import (
	"context"
	"errors"
	"fmt"

	settlementRepo "casabay/database/repository/settlement"
	"casabay/models"

	"go.uber.org/zap"
)

// Approve confirms a pending settlement and marks its booking paid and
// confirmed in the same transaction. Once both writes commit, the guest
// confirmation is dispatched exactly once, best-effort: a dispatch failure
// is recorded on the decision as a warning and never reverts the approval.
func (s *DefaultReconciliationService) Approve(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
	decision, err := s.decide(ctx, reference, actor,
		models.SettlementConfirmed, models.BookingConfirmed, models.PaymentPaid)
	if err != nil {
		return nil, err
	}

	payload := buildNotification(decision.Settlement, decision.Booking)
	if err := s.Notifier.SendSettlementConfirmation(ctx, payload); err != nil {
		s.Logger.Warn("settlement confirmation dispatch failed",
			zap.String("reference", reference), zap.Error(err))
		decision.NotificationError = err.Error()
	} else {
		decision.NotificationSent = true
	}
	return decision, nil
}

// Cancel moves a pending settlement to cancelled and cancels its booking.
// The booking's payment status is left untouched and no notification is sent.
// A corrected payment means opening a new settlement, never reviving this one.
func (s *DefaultReconciliationService) Cancel(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
	return s.decide(ctx, reference, actor,
		models.SettlementCancelled, models.BookingCancelled, "")
}

// decide runs the shared half of approve/cancel: resolve the reference,
// refuse terminal settlements, and hand the paired write to the repository's
// transactional finalizer. The finalizer's compare-and-swap on state makes
// concurrent decisions on one reference resolve to a single winner; losers
// surface as AlreadyFinalizedError.
func (s *DefaultReconciliationService) decide(
	ctx context.Context,
	reference, actor string,
	newState models.SettlementState,
	bookingStatus models.BookingStatus,
	paymentStatus models.PaymentStatus,
) (*models.SettlementDecision, error) {
	existing, err := s.Settlements.FindByReference(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to look up settlement %s: %w", reference, err)
	}
	if existing == nil {
		return nil, ErrSettlementNotFound
	}
	if existing.IsTerminal() {
		return nil, &AlreadyFinalizedError{Settlement: existing}
	}

	updated, err := s.Settlements.FinalizeWithBooking(ctx, reference, newState, actor, s.now(), bookingStatus, paymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, settlementRepo.ErrNoPendingMatch):
			// Lost a race: someone finalized it between our read and the
			// transaction. Report the terminal record they produced.
			latest, lookupErr := s.Settlements.FindByReference(reference)
			if lookupErr == nil && latest != nil {
				return nil, &AlreadyFinalizedError{Settlement: latest}
			}
			return nil, ErrSettlementNotFound
		case errors.Is(err, settlementRepo.ErrBookingMissing):
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to finalize settlement %s: %w", reference, err)
	}

	s.invalidateViewCache(ctx)

	booking, err := s.Bookings.GetByID(updated.BookingID)
	if err != nil {
		// The decision is committed; the snapshot is informational.
		s.Logger.Warn("failed to fetch booking snapshot after decision",
			zap.String("booking", updated.BookingID), zap.Error(err))
	}

	return &models.SettlementDecision{Settlement: updated, Booking: booking}, nil
}

func buildNotification(settlement *models.Settlement, booking *models.Booking) models.SettlementNotification {
	payload := models.SettlementNotification{
		Kind:         settlement.Kind,
		Reference:    settlement.Reference,
		BookingID:    settlement.BookingID,
		GuestName:    settlement.CustomerName,
		GuestEmail:   settlement.CustomerEmail,
		Amount:       settlement.Amount,
		Currency:     settlement.Currency,
		BankTransfer: settlement.BankTransfer,
		Cash:         settlement.Cash,
	}
	if booking != nil {
		payload.PropertyName = booking.PropertyName
		payload.CheckIn = booking.CheckIn
		payload.FCMToken = booking.CustomerFCMToken
	}
	return payload
}
