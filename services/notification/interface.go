package notification

import (
	"context"

	"casabay/models"
)

// Service defines the outbound guest/admin messaging consumed by the
// reconciliation workflow. Delivery is best-effort: a returned error must be
// treated as a warning by callers, never as grounds to revert state.
type Service interface {
	SendSettlementConfirmation(ctx context.Context, payload models.SettlementNotification) error
	NotifyExpiredTransfers(ctx context.Context, count int, references []string) error
}
