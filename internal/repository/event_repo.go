package repository

import (
	"time"

	"nibog/internal/domain"
	"nibog/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) ListUpcoming(city string, from time.Time) ([]models.Event, error) {
	q := r.db.Where("status = ? AND event_date >= ?", domain.EventStatusScheduled, from)
	if city != "" {
		q = q.Where("city_name = ?", city)
	}
	var events []models.Event
	err := q.Order("event_date ASC").Find(&events).Error
	return events, err
}

func (r *EventRepository) GetByID(id uint) (*models.Event, error) {
	var e models.Event
	if err := r.db.Preload("Games").First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
