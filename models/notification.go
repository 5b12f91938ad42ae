package models

// SettlementNotification is the payload handed to the notification
// dispatcher after an approval. Kind-specific fields mirror the settlement
// variant: bank details for transfers, arrival/location for cash.
type SettlementNotification struct {
	Kind         SettlementKind       `json:"kind"`
	Reference    string               `json:"reference"`
	BookingID    string               `json:"booking_id"`
	GuestName    string               `json:"guest_name"`
	GuestEmail   string               `json:"guest_email"`
	FCMToken     string               `json:"-"`
	PropertyName string               `json:"property_name"`
	CheckIn      string               `json:"check_in"`
	Amount       int64                `json:"amount"`
	Currency     string               `json:"currency"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
	Cash         *CashDetails         `json:"cash,omitempty"`
}
