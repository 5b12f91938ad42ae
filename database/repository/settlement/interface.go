package settlementRepo

import (
	"context"
	"errors"
	"time"

	"casabay/models"
)

// Storage-level sentinels. The reconciliation service maps these onto its
// own error taxonomy.
var (
	// ErrNoPendingMatch means the compare-and-swap filter matched nothing:
	// the settlement is absent or no longer pending.
	ErrNoPendingMatch = errors.New("no pending settlement matched")
	// ErrBookingMissing means the linked booking row vanished mid-transaction.
	ErrBookingMissing = errors.New("booking not found for settlement")
	// ErrDuplicateActive means the booking already holds a pending settlement.
	ErrDuplicateActive = errors.New("booking already has a pending settlement")
	// ErrReferenceTaken means another settlement already uses the reference code.
	ErrReferenceTaken = errors.New("reference code already in use")
)

// SettlementRepository defines persistence for settlement records.
// Lookups return (nil, nil) when nothing matches.
type SettlementRepository interface {
	Create(settlement *models.Settlement) error
	GetByID(id string) (*models.Settlement, error)
	FindByReference(code string) (*models.Settlement, error)
	FindActiveByBooking(bookingID string) (*models.Settlement, error)
	// ListPending returns all pending settlements; kind == "" means both variants.
	ListPending(kind models.SettlementKind) ([]models.Settlement, error)

	// FinalizeWithBooking atomically moves a pending settlement to newState
	// and mirrors the decision onto the linked booking. Both writes commit
	// together or not at all. An empty paymentStatus leaves the booking's
	// payment status untouched.
	FinalizeWithBooking(
		ctx context.Context,
		reference string,
		newState models.SettlementState,
		actor string,
		decidedAt time.Time,
		bookingStatus models.BookingStatus,
		paymentStatus models.PaymentStatus,
	) (*models.Settlement, error)
}
