package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"nibog/internal/repository"

	"github.com/gin-gonic/gin"
)

// PendingBookingHandler exposes the staging store to the checkout frontend:
// it restores form data after the redirect back from the gateway and lets
// the flow discard abandoned attempts.
type PendingBookingHandler struct {
	store PendingBookingStore
}

func NewPendingBookingHandler(store PendingBookingStore) *PendingBookingHandler {
	return &PendingBookingHandler{store: store}
}

// Get returns the staged record for a transaction id.
// 200 found, 404 never existed, 410 expired (start over), 207 corrupted
// (partial data, needs cleanup), 503 store unreachable.
func (h *PendingBookingHandler) Get(c *gin.Context) {
	var req struct {
		TransactionID string `json:"transaction_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pb, outcome, err := h.store.Get(req.TransactionID)
	if err != nil {
		log.Printf("[PENDING] get txn=%s store error: %v", req.TransactionID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pending booking store unreachable"})
		return
	}
	switch outcome {
	case repository.LookupNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no pending booking for this transaction"})
	case repository.LookupExpired:
		c.JSON(http.StatusGone, gin.H{"success": false, "error": "booking session expired, please restart checkout"})
	case repository.LookupCorrupted:
		c.JSON(http.StatusMultiStatus, gin.H{
			"success":       false,
			"transactionId": pb.TransactionID,
			"status":        pb.Status,
			"error":         "stored booking data is corrupted and needs cleanup",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"transactionId": pb.TransactionID,
			"bookingData":   json.RawMessage(pb.BookingData),
			"expiresAt":     pb.ExpiresAt,
			"status":        pb.Status,
		})
	}
}

// Delete removes a staged record, e.g. when the user abandons checkout
// explicitly. Missing rows are fine; TTL expiry handles silent abandons.
func (h *PendingBookingHandler) Delete(c *gin.Context) {
	txID := c.Param("transactionId")
	if err := h.store.Delete(txID); err != nil {
		log.Printf("[PENDING] delete txn=%s store error: %v", txID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pending booking store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
