package handler

import (
	"errors"
	"net/http"

	"nibog/internal/domain"
	"nibog/internal/middleware"
	"nibog/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BookingHandler struct {
	bookingRepo *repository.BookingRepository
}

func NewBookingHandler(bookingRepo *repository.BookingRepository) *BookingHandler {
	return &BookingHandler{bookingRepo: bookingRepo}
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.bookingRepo.ListByUser(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) GetByRef(c *gin.Context) {
	b, err := h.bookingRepo.GetByRef(c.Param("ref"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load booking"})
		return
	}
	role, _ := c.Get("role")
	if b.UserID != middleware.GetUserID(c) && role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, b)
}
