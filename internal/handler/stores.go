package handler

import (
	"nibog/internal/models"
	"nibog/internal/repository"
)

// Store interfaces the payment handlers depend on. The gorm repositories
// satisfy them; tests substitute in-memory fakes.

type PendingBookingStore interface {
	Stage(pb *models.PendingBooking) error
	Get(transactionID string) (*models.PendingBooking, repository.LookupOutcome, error)
	Delete(transactionID string) error
	MarkStatus(transactionID, status string) error
}

type PaymentStore interface {
	GetByMerchantTransactionID(txID string) (*models.Payment, error)
}

type BookingPromoter interface {
	PromotePending(pb *models.PendingBooking, gatewayRef string, amountPaise int64) (*models.Booking, error)
}
