package reconciliation

import (
	"time"

	"casabay/models"
)

// IsExpired reports whether a settlement's payment window has closed at the
// given instant. Bank transfers expire once now passes their deadline; cash
// settlements never expire automatically; a passed check-in date is a
// signal for the administrator, not a transition. The predicate takes now as
// a parameter and never reads the clock or mutates state.
func IsExpired(s *models.Settlement, now time.Time) bool {
	if s.Kind != models.KindBankTransfer || s.BankTransfer == nil {
		return false
	}
	return now.After(s.BankTransfer.ExpiresAt)
}
