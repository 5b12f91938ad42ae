package models

import "time"

// SettlementState is the state machine position of a settlement.
// Only pending -> confirmed and pending -> cancelled are reachable;
// confirmed and cancelled are terminal.
type SettlementState string

const (
	SettlementPending   SettlementState = "pending"
	SettlementConfirmed SettlementState = "confirmed"
	SettlementCancelled SettlementState = "cancelled"
)

// SettlementKind tags the payment rail a settlement is expected on.
type SettlementKind string

const (
	KindBankTransfer SettlementKind = "bank_transfer"
	KindCash         SettlementKind = "cash"
)

// BankTransferDetails describes the destination account the guest was
// instructed to wire money to, and the deadline for the transfer to arrive.
type BankTransferDetails struct {
	AccountHolder string    `bson:"account_holder" json:"account_holder"`
	IBAN          string    `bson:"iban" json:"iban"`
	BIC           string    `bson:"bic" json:"bic"`
	BankName      string    `bson:"bank_name" json:"bank_name"`
	ExpiresAt     time.Time `bson:"expires_at" json:"expires_at"`
}

// CashDetails describes when and where a pay-on-arrival guest settles up.
type CashDetails struct {
	ExpectedArrival string `bson:"expected_arrival" json:"expected_arrival"` // e.g. "15:00"
	PayAtLocation   string `bson:"pay_at_location" json:"pay_at_location"`
}

// Settlement is a single attempt to pay a booking through one manually
// reconciled rail. Exactly one of BankTransfer / Cash is set, matching Kind.
// Customer name and email are snapshots taken at creation time.
type Settlement struct {
	ID            string               `bson:"id" json:"id"`
	BookingID     string               `bson:"booking_id" json:"booking_id"`
	Reference     string               `bson:"reference" json:"reference"`
	Kind          SettlementKind       `bson:"kind" json:"kind"`
	Amount        int64                `bson:"amount" json:"amount"` // minor currency units
	Currency      string               `bson:"currency" json:"currency"`
	CustomerName  string               `bson:"customer_name" json:"customer_name"`
	CustomerEmail string               `bson:"customer_email" json:"customer_email"`
	State         SettlementState      `bson:"state" json:"state"`
	BankTransfer  *BankTransferDetails `bson:"bank_transfer,omitempty" json:"bank_transfer,omitempty"`
	Cash          *CashDetails         `bson:"cash,omitempty" json:"cash,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	DecidedBy     string               `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt     *time.Time           `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
}

// IsTerminal reports whether the settlement can no longer transition.
func (s *Settlement) IsTerminal() bool {
	return s.State == SettlementConfirmed || s.State == SettlementCancelled
}

// OpenSettlementRequest is the input for opening a new settlement against a
// booking. Bank account details for transfers come from configuration, not
// from the caller.
type OpenSettlementRequest struct {
	BookingID       string         `json:"booking_id"`
	Kind            SettlementKind `json:"kind"`
	Amount          int64          `json:"amount"` // minor units; 0 means "use the booking total"
	Currency        string         `json:"currency,omitempty"`
	ExpectedArrival string         `json:"expected_arrival,omitempty"` // cash only
	PayAtLocation   string         `json:"pay_at_location,omitempty"`  // cash only
}

// SettlementDecision is the outcome of an approve or cancel action: the
// finalized settlement, the booking it updated, and whether the guest
// notification went out. A failed dispatch never reverts the decision.
type SettlementDecision struct {
	Settlement        *Settlement `json:"settlement"`
	Booking           *Booking    `json:"booking"`
	NotificationSent  bool        `json:"notification_sent"`
	NotificationError string      `json:"notification_error,omitempty"`
}
