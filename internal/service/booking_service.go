package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nibog/internal/domain"
	"nibog/internal/models"
	"nibog/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingService promotes staged pending bookings into confirmed bookings.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

// PromotePending converts a verified staged booking into a confirmed Booking
// plus a COMPLETED Payment and removes the staged row, all in one database
// transaction. The unique index on payments.merchant_transaction_id makes a
// racing duplicate promotion fail and roll back, so the same transaction id
// can never yield two confirmed bookings.
func (s *BookingService) PromotePending(pb *models.PendingBooking, gatewayRef string, amountPaise int64) (*models.Booking, error) {
	payload, err := models.ParseBookingPayload(pb.BookingData)
	if err != nil {
		return nil, err
	}
	if amountPaise <= 0 {
		amountPaise = payment.ToPaise(payload.TotalRupees)
	}
	gameIDs, _ := json.Marshal(payload.GameIDs)
	var childDOB *time.Time
	if payload.ChildDOB != "" {
		if t, perr := time.Parse("2006-01-02", payload.ChildDOB); perr == nil {
			childDOB = &t
		}
	}
	booking := &models.Booking{
		BookingRef:  newBookingRef(),
		UserID:      payload.UserID,
		EventID:     payload.EventID,
		ParentName:  payload.ParentName,
		ParentEmail: payload.ParentEmail,
		ParentPhone: payload.ParentPhone,
		ChildName:   payload.ChildName,
		ChildDOB:    childDOB,
		GameIDs:     string(gameIDs),
		PromoCode:   payload.PromoCode,
		AmountPaise: amountPaise,
		Status:      domain.BookingStatusConfirmed,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		now := time.Now()
		pay := &models.Payment{
			BookingID:             &booking.ID,
			UserID:                payload.UserID,
			AmountPaise:           amountPaise,
			Provider:              "phonepe",
			MerchantTransactionID: pb.TransactionID,
			GatewayRef:            gatewayRef,
			Status:                domain.PaymentStatusCompleted,
			CompletedAt:           &now,
		}
		if err := tx.Create(pay).Error; err != nil {
			return err
		}
		return tx.Where("transaction_id = ?", pb.TransactionID).
			Delete(&models.PendingBooking{}).Error
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func newBookingRef() string {
	return fmt.Sprintf("NIBOG-B-%s", strings.ToUpper(uuid.New().String()[:8]))
}
