package reconciliation

import (
	"errors"
	"fmt"

	"casabay/models"
)

var (
	// ErrSettlementNotFound means the reference code resolves to nothing.
	ErrSettlementNotFound = errors.New("settlement not found")
	// ErrBookingNotFound means the booking linked to a settlement is gone.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrInvalidTransition means a transition was attempted on a settlement
	// that is not pending.
	ErrInvalidTransition = errors.New("settlement is not pending")
	// ErrDuplicateActiveSettlement means the booking already holds a pending
	// settlement; the existing one must be cancelled first.
	ErrDuplicateActiveSettlement = errors.New("booking already has a pending settlement")
	// ErrUnknownSettlementKind means the requested kind is neither bank
	// transfer nor cash.
	ErrUnknownSettlementKind = errors.New("unknown settlement kind")
)

// AlreadyFinalizedError reports an approve/cancel attempt against a terminal
// settlement. It carries the finalized record so callers can surface the
// existing decision without re-fetching. Matches ErrInvalidTransition under
// errors.Is.
type AlreadyFinalizedError struct {
	Settlement *models.Settlement
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("settlement %s already %s", e.Settlement.Reference, e.Settlement.State)
}

func (e *AlreadyFinalizedError) Is(target error) bool {
	return target == ErrInvalidTransition
}
