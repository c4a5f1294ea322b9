package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// PendingBooking stages the full booking form payload across the redirect
// round-trip to the payment gateway. Keyed by merchant transaction id; at
// most one live row per transaction id (unique index).
type PendingBooking struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID string    `gorm:"size:64;uniqueIndex;not null" json:"transaction_id"`
	BookingData   string    `gorm:"type:text" json:"booking_data"`
	Status        string    `gorm:"size:20;not null;index" json:"status"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PendingBooking) TableName() string {
	return "pending_bookings"
}

// Expired reports whether the record must be treated as gone even if the row
// still physically exists (it is garbage-collected later).
func (p *PendingBooking) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// BookingPayload is the staged checkout form data.
type BookingPayload struct {
	BookingID   string  `json:"booking_id"`
	UserID      uint    `json:"user_id"`
	EventID     uint    `json:"event_id"`
	ParentName  string  `json:"parent_name"`
	ParentEmail string  `json:"parent_email"`
	ParentPhone string  `json:"parent_phone"`
	ChildName   string  `json:"child_name"`
	ChildDOB    string  `json:"child_dob"` // YYYY-MM-DD
	GameIDs     []uint  `json:"game_ids"`
	AddOnIDs    []uint  `json:"add_on_ids"`
	PromoCode   string  `json:"promo_code"`
	TotalRupees float64 `json:"total_rupees"`
}

// ErrCorruptedPayload marks stored booking data that cannot be trusted and
// needs manual cleanup rather than silent partial processing.
var ErrCorruptedPayload = errors.New("pending booking payload corrupted")

// ParseBookingPayload decodes staged booking data. The literal strings
// "undefined" and "null" show up when an upstream client serialises a missing
// value; they are corruption, not valid JSON to proceed with.
func ParseBookingPayload(raw string) (*BookingPayload, error) {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "", "undefined", "null":
		return nil, ErrCorruptedPayload
	}
	var p BookingPayload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, errors.Join(ErrCorruptedPayload, err)
	}
	if p.EventID == 0 {
		return nil, ErrCorruptedPayload
	}
	return &p, nil
}
