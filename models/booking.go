package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// PaymentStatus tracks whether a booking has been paid, independent of the
// rail the money arrives on.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Booking represents a property booking record.
// Status and PaymentStatus are owned by the reconciliation workflow once a
// settlement exists; the admin CRUD surface must not write them directly.
type Booking struct {
	ID               string        `bson:"id" json:"id"`
	CustomerName     string        `bson:"customer_name" json:"customer_name"`
	CustomerEmail    string        `bson:"customer_email" json:"customer_email"`
	CustomerPhone    string        `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	CustomerFCMToken string        `bson:"customer_fcm_token,omitempty" json:"-"` // push target from the mobile client, if any
	PropertyName     string        `bson:"property_name" json:"property_name"`
	CheckIn          string        `bson:"check_in" json:"check_in"`   // "YYYY-MM-DD"
	CheckOut         string        `bson:"check_out" json:"check_out"` // "YYYY-MM-DD"
	Guests           int           `bson:"guests" json:"guests"`
	TotalAmount      int64         `bson:"total_amount" json:"total_amount"` // minor currency units
	Currency         string        `bson:"currency" json:"currency"`
	Status           BookingStatus `bson:"status" json:"status"`
	PaymentStatus    PaymentStatus `bson:"payment_status" json:"payment_status"`
	Channel          string        `bson:"channel,omitempty" json:"channel,omitempty"` // source channel, e.g. "web", "phone"
	Notes            string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updated_at"`
}
