package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking is a confirmed, paid registration. Rows only ever appear here via
// promotion of a verified PendingBooking; there is no direct create path.
type Booking struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BookingRef  string         `gorm:"size:64;uniqueIndex;not null" json:"booking_ref"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventID     uint           `gorm:"not null;index" json:"event_id"`
	ParentName  string         `gorm:"size:128" json:"parent_name"`
	ParentEmail string         `gorm:"size:255" json:"parent_email"`
	ParentPhone string         `gorm:"size:20" json:"parent_phone"`
	ChildName   string         `gorm:"size:128" json:"child_name"`
	ChildDOB    *time.Time     `json:"child_dob"`
	GameIDs     string         `gorm:"type:text" json:"game_ids"` // JSON array of game ids
	PromoCode   string         `gorm:"size:64" json:"promo_code"`
	AmountPaise int64          `gorm:"not null" json:"amount_paise"`
	Status      string         `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Event Event `gorm:"foreignKey:EventID" json:"-"`
}

func (Booking) TableName() string {
	return "bookings"
}
