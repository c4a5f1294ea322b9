package repository

import (
	"errors"
	"time"

	"nibog/internal/domain"
	"nibog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupOutcome classifies a pending-booking read. Expired is distinct from
// NotFound so clients can tell "too slow, start over" (410) from "never
// existed" (404); Corrupted flags data needing manual cleanup (207).
type LookupOutcome int

const (
	LookupFound LookupOutcome = iota
	LookupNotFound
	LookupExpired
	LookupCorrupted
)

type PendingBookingRepository struct {
	db *gorm.DB
}

func NewPendingBookingRepository(db *gorm.DB) *PendingBookingRepository {
	return &PendingBookingRepository{db: db}
}

// Stage upserts the staged payload by transaction id. The unique index keeps
// at most one live row per transaction id; a re-stage refreshes the payload
// and the expiry.
func (r *PendingBookingRepository) Stage(pb *models.PendingBooking) error {
	if pb.Status == "" {
		pb.Status = domain.PendingStatusStaged
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"booking_data", "status", "expires_at", "updated_at"}),
	}).Create(pb).Error
}

// Get fetches the record and classifies it. A row past its expiry is
// reported Expired even though it still physically exists until the sweep
// deletes it.
func (r *PendingBookingRepository) Get(transactionID string) (*models.PendingBooking, LookupOutcome, error) {
	var pb models.PendingBooking
	err := r.db.Where("transaction_id = ?", transactionID).First(&pb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, LookupNotFound, nil
		}
		return nil, LookupNotFound, err
	}
	if pb.Expired(time.Now()) {
		return &pb, LookupExpired, nil
	}
	if _, perr := models.ParseBookingPayload(pb.BookingData); perr != nil {
		return &pb, LookupCorrupted, nil
	}
	return &pb, LookupFound, nil
}

func (r *PendingBookingRepository) Delete(transactionID string) error {
	return r.db.Where("transaction_id = ?", transactionID).Delete(&models.PendingBooking{}).Error
}

func (r *PendingBookingRepository) MarkStatus(transactionID, status string) error {
	return r.db.Model(&models.PendingBooking{}).
		Where("transaction_id = ?", transactionID).
		Update("status", status).Error
}

// DeleteExpired garbage-collects rows whose expiry passed before cutoff.
// Corrupted rows are kept for manual cleanup.
func (r *PendingBookingRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	res := r.db.Where("expires_at < ? AND status <> ?", cutoff, domain.PendingStatusCorrupted).
		Delete(&models.PendingBooking{})
	return res.RowsAffected, res.Error
}
