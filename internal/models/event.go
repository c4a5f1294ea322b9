package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CityName  string         `gorm:"size:128;index" json:"city_name"`
	VenueName string         `gorm:"size:255" json:"venue_name"`
	EventDate time.Time      `gorm:"not null;index" json:"event_date"`
	Status    string         `gorm:"size:20;not null;default:'SCHEDULED'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Games []Game `gorm:"many2many:event_games" json:"games,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

// Game is a bookable activity slot with an age window in whole months.
type Game struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	MinAgeMonths int            `gorm:"not null" json:"min_age_months"`
	MaxAgeMonths int            `gorm:"not null" json:"max_age_months"`
	PriceRupees  float64        `gorm:"not null" json:"price_rupees"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Game) TableName() string {
	return "games"
}
