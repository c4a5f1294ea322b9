package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"nibog/internal/repository"
	"nibog/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventHandler struct {
	eventRepo *repository.EventRepository
}

func NewEventHandler(eventRepo *repository.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventRepo.ListUpcoming(c.Query("city"), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// EligibleGames returns the games a child may register for at an event,
// based on age in whole months at the event date.
func (h *EventHandler) EligibleGames(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	dob, err := time.Parse("2006-01-02", c.Query("dob"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dob must be YYYY-MM-DD"})
		return
	}
	event, err := h.eventRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event_id":   event.ID,
		"event_date": event.EventDate,
		"age_months": service.AgeInMonths(dob, event.EventDate),
		"games":      service.EligibleGames(dob, event.EventDate, event.Games),
	})
}
