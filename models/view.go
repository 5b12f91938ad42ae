package models

import "time"

// PendingSettlementRow is one normalized line of the administrator's
// reconciliation view: a pending settlement joined with its booking.
type PendingSettlementRow struct {
	SettlementID string               `json:"settlement_id"`
	BookingID    string               `json:"booking_id"`
	Reference    string               `json:"reference"`
	Kind         SettlementKind       `json:"kind"`
	Amount       int64                `json:"amount"`
	Currency     string               `json:"currency"`
	GuestName    string               `json:"guest_name"`
	GuestEmail   string               `json:"guest_email"`
	PropertyName string               `json:"property_name"`
	CheckIn      string               `json:"check_in"`
	CheckOut     string               `json:"check_out"`
	Guests       int                  `json:"guests"`
	CreatedAt    time.Time            `json:"created_at"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
	Cash         *CashDetails         `json:"cash,omitempty"`
	Expired      bool                 `json:"expired"`
}

// PendingCounters aggregates the pending workload.
type PendingCounters struct {
	Total        int   `json:"total"`
	BankTransfer int   `json:"bank_transfer"`
	Cash         int   `json:"cash"`
	TotalAmount  int64 `json:"total_amount"`
}

// PendingSettlementView is the full reconciliation view: rows sorted
// newest-first plus aggregate counters.
type PendingSettlementView struct {
	Rows        []PendingSettlementRow `json:"rows"`
	Counters    PendingCounters        `json:"counters"`
	GeneratedAt time.Time              `json:"generated_at"`
}
