package bookingRepo

import "casabay/models"

// BookingRepository defines persistence for booking records.
// Lookups return (nil, nil) when no booking matches, so callers can treat a
// missing booking as a domain condition rather than a storage failure.
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id string) (*models.Booking, error)
	GetAll() ([]models.Booking, error)
	Update(booking *models.Booking) error
	SetStatus(id string, status models.BookingStatus) error
	SetPaymentStatus(id string, status models.PaymentStatus) error
}
