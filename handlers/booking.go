package handlers

import (
	"net/http"
	"time"

	"casabay/config"
	bookingRepo "casabay/database/repository/booking"
	"casabay/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingHandler exposes the administrative booking CRUD surface. Booking
// status and payment status are deliberately absent from its inputs: those
// fields belong to the reconciliation workflow.
type BookingHandler struct {
	Repo   bookingRepo.BookingRepository
	Logger *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(repo bookingRepo.BookingRepository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Repo: repo, Logger: logger}
}

// CreateBookingHandler registers a new booking with pending status.
func (bh *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var input struct {
		CustomerName     string `json:"customer_name" binding:"required"`
		CustomerEmail    string `json:"customer_email" binding:"required,email"`
		CustomerPhone    string `json:"customer_phone"`
		CustomerFCMToken string `json:"customer_fcm_token"`
		PropertyName     string `json:"property_name" binding:"required"`
		CheckIn          string `json:"check_in" binding:"required"`
		CheckOut         string `json:"check_out" binding:"required"`
		Guests           int    `json:"guests" binding:"required,min=1"`
		TotalAmount      int64  `json:"total_amount" binding:"required,min=1"`
		Currency         string `json:"currency"`
		Channel          string `json:"channel"`
		Notes            string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	for _, date := range []string{input.CheckIn, input.CheckOut} {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = config.AppConfig.DefaultCurrency
	}

	booking := &models.Booking{
		ID:               uuid.New().String(),
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		CustomerPhone:    input.CustomerPhone,
		CustomerFCMToken: input.CustomerFCMToken,
		PropertyName:     input.PropertyName,
		CheckIn:          input.CheckIn,
		CheckOut:         input.CheckOut,
		Guests:           input.Guests,
		TotalAmount:      input.TotalAmount,
		Currency:         currency,
		Status:           models.BookingPending,
		PaymentStatus:    models.PaymentPending,
		Channel:          input.Channel,
		Notes:            input.Notes,
	}

	if err := bh.Repo.Create(booking); err != nil {
		bh.Logger.Error("failed to create booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create booking"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// GetBookingHandler returns a single booking by ID.
func (bh *BookingHandler) GetBookingHandler(c *gin.Context) {
	booking, err := bh.Repo.GetByID(c.Param("id"))
	if err != nil {
		bh.Logger.Error("failed to fetch booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListBookingsHandler returns all bookings, newest first.
func (bh *BookingHandler) ListBookingsHandler(c *gin.Context) {
	bookings, err := bh.Repo.GetAll()
	if err != nil {
		bh.Logger.Error("failed to list bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// UpdateBookingHandler edits guest-facing booking fields. Reconciliation-owned
// fields (status, payment_status, amounts already under settlement) are not
// editable here.
func (bh *BookingHandler) UpdateBookingHandler(c *gin.Context) {
	var input struct {
		CustomerName  *string `json:"customer_name"`
		CustomerEmail *string `json:"customer_email"`
		CustomerPhone *string `json:"customer_phone"`
		CheckIn       *string `json:"check_in"`
		CheckOut      *string `json:"check_out"`
		Guests        *int    `json:"guests"`
		Channel       *string `json:"channel"`
		Notes         *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := bh.Repo.GetByID(c.Param("id"))
	if err != nil {
		bh.Logger.Error("failed to fetch booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	if input.CustomerName != nil {
		booking.CustomerName = *input.CustomerName
	}
	if input.CustomerEmail != nil {
		booking.CustomerEmail = *input.CustomerEmail
	}
	if input.CustomerPhone != nil {
		booking.CustomerPhone = *input.CustomerPhone
	}
	if input.CheckIn != nil {
		booking.CheckIn = *input.CheckIn
	}
	if input.CheckOut != nil {
		booking.CheckOut = *input.CheckOut
	}
	if input.Guests != nil {
		booking.Guests = *input.Guests
	}
	if input.Channel != nil {
		booking.Channel = *input.Channel
	}
	if input.Notes != nil {
		booking.Notes = *input.Notes
	}

	if err := bh.Repo.Update(booking); err != nil {
		bh.Logger.Error("failed to update booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
