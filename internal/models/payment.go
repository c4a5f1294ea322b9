package models

import (
	"time"

	"gorm.io/gorm"
)

type Payment struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	BookingID             *uint          `gorm:"index" json:"booking_id"`
	UserID                uint           `gorm:"index" json:"user_id"`
	AmountPaise           int64          `gorm:"not null" json:"amount_paise"`
	Provider              string         `gorm:"size:50;not null" json:"provider"`
	MerchantTransactionID string         `gorm:"size:64;uniqueIndex" json:"merchant_transaction_id"`
	GatewayRef            string         `gorm:"size:128" json:"gateway_ref"` // gateway-side transaction id
	Status                string         `gorm:"size:20;not null;index" json:"status"`
	CompletedAt           *time.Time     `json:"completed_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
