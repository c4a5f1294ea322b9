package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"nibog/internal/domain"
	"nibog/internal/repository"
	"nibog/pkg/payment"

	"github.com/gin-gonic/gin"
)

// PhonePeWebhookHandler processes the gateway's server-to-server callback.
// Per transaction the flow is one-way: STAGED -> VERIFIED -> PROMOTED, or
// STAGED -> FAILED / EXPIRED. Promotion happens exactly once; replayed
// callbacks are acknowledged as no-ops.
type PhonePeWebhookHandler struct {
	provider     payment.Provider
	pendingStore PendingBookingStore
	paymentStore PaymentStore
	promoter     BookingPromoter
}

func NewPhonePeWebhookHandler(
	provider payment.Provider,
	pendingStore PendingBookingStore,
	paymentStore PaymentStore,
	promoter BookingPromoter,
) *PhonePeWebhookHandler {
	return &PhonePeWebhookHandler{
		provider:     provider,
		pendingStore: pendingStore,
		paymentStore: paymentStore,
		promoter:     promoter,
	}
}

func (h *PhonePeWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Response == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback envelope"})
		return
	}

	// Integrity first. A mismatch is either a config bug or tampering;
	// never downgraded to a generic error.
	header := c.GetHeader("X-VERIFY")
	if header == "" || !h.provider.VerifyCallback(envelope.Response, header) {
		log.Printf("[TAMPER] phonepe callback integrity header mismatch ip=%s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "integrity check failed"})
		return
	}

	result, err := payment.DecodeCallback(envelope.Response)
	if err != nil {
		log.Printf("[PHONEPE callback] undecodable verified payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback payload"})
		return
	}
	txID := result.MerchantTransactionID
	log.Printf("[PHONEPE callback] txn=%s code=%s state=%s", txID, result.Code, result.State)

	// Replayed callback after promotion: success no-op, gateways retry.
	if p, perr := h.paymentStore.GetByMerchantTransactionID(txID); perr == nil && p.Status == domain.PaymentStatusCompleted {
		log.Printf("[PHONEPE callback] txn=%s already promoted, no-op", txID)
		c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "duplicate": true})
		return
	}

	pb, outcome, err := h.pendingStore.Get(txID)
	if err != nil {
		log.Printf("[PHONEPE callback] pending store error txn=%s: %v", txID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pending booking store unreachable"})
		return
	}
	switch outcome {
	case repository.LookupNotFound:
		// Gateway may report success for a transaction we no longer know;
		// the booking is treated as abandoned, never resurrected.
		log.Printf("[PHONEPE callback] txn=%s has no staged booking, treating as stale", txID)
		c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "reason": "not_found"})
		return
	case repository.LookupExpired:
		if merr := h.pendingStore.MarkStatus(txID, domain.PendingStatusExpired); merr != nil {
			log.Printf("[PHONEPE callback] mark expired txn=%s: %v", txID, merr)
		}
		log.Printf("[PHONEPE callback] txn=%s staged booking expired, not promoting", txID)
		c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "reason": "expired"})
		return
	case repository.LookupCorrupted:
		if merr := h.pendingStore.MarkStatus(txID, domain.PendingStatusCorrupted); merr != nil {
			log.Printf("[PHONEPE callback] mark corrupted txn=%s: %v", txID, merr)
		}
		log.Printf("[PHONEPE callback] txn=%s staged payload corrupted, flagged for cleanup", txID)
		c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "reason": "corrupted"})
		return
	}

	if !result.PaymentSucceeded() {
		if merr := h.pendingStore.MarkStatus(txID, domain.PendingStatusFailed); merr != nil {
			log.Printf("[PHONEPE callback] mark failed txn=%s: %v", txID, merr)
		}
		log.Printf("[PHONEPE callback] txn=%s payment failed code=%s", txID, result.Code)
		c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "reason": "payment_failed"})
		return
	}

	booking, err := h.promoter.PromotePending(pb, result.GatewayRef, result.AmountPaise)
	if err != nil {
		// A racing duplicate promotion loses on the unique payment index and
		// lands here; re-check before treating it as a real failure.
		if p, perr := h.paymentStore.GetByMerchantTransactionID(txID); perr == nil && p.Status == domain.PaymentStatusCompleted {
			c.JSON(http.StatusOK, gin.H{"received": true, "promoted": false, "duplicate": true})
			return
		}
		log.Printf("[PHONEPE callback] promotion failed txn=%s: %v", txID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "booking promotion failed"})
		return
	}
	log.Printf("[PHONEPE callback] txn=%s promoted booking_ref=%s", txID, booking.BookingRef)
	c.JSON(http.StatusOK, gin.H{"received": true, "promoted": true, "booking_ref": booking.BookingRef})
}
