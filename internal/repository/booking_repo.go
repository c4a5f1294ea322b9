package repository

import (
	"nibog/internal/models"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByRef(ref string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.Where("booking_ref = ?", ref).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(userID uint) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}
