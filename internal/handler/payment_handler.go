package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"nibog/config"
	"nibog/internal/domain"
	"nibog/internal/middleware"
	"nibog/internal/models"
	"nibog/pkg/cache"
	"nibog/pkg/payment"

	"github.com/gin-gonic/gin"
)

// How long a staged booking survives the redirect round-trip.
const pendingBookingTTL = 15 * time.Minute

const statusCacheTTL = 5 * time.Second

type PaymentHandler struct {
	cfg          *config.Config
	provider     payment.Provider
	pendingStore PendingBookingStore
	paymentStore PaymentStore
	statusCache  *cache.Cache
}

func NewPaymentHandler(
	cfg *config.Config,
	provider payment.Provider,
	pendingStore PendingBookingStore,
	paymentStore PaymentStore,
	statusCache *cache.Cache,
) *PaymentHandler {
	return &PaymentHandler{
		cfg:          cfg,
		provider:     provider,
		pendingStore: pendingStore,
		paymentStore: paymentStore,
		statusCache:  statusCache,
	}
}

// Initiate stages the booking payload, signs a pay request and returns the
// gateway redirect URL. Staging happens before the gateway call so a fast
// callback can never race ahead of the staged row. A failed attempt is not
// retried here; the client restarts checkout and gets a fresh transaction id.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		BookingID    string          `json:"booking_id" binding:"required"`
		AmountRupees float64         `json:"amount" binding:"required,gt=0"`
		MobileNumber string          `json:"mobile_number" binding:"required"`
		Booking      json.RawMessage `json:"booking" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mobile := payment.NormalizeMobile(req.MobileNumber)
	if len(mobile) != 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a 10-digit mobile number is required"})
		return
	}
	var payload models.BookingPayload
	if err := json.Unmarshal(req.Booking, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking payload"})
		return
	}
	payload.BookingID = req.BookingID
	payload.UserID = userID
	if payload.TotalRupees == 0 {
		payload.TotalRupees = req.AmountRupees
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking payload"})
		return
	}

	txID := payment.GenerateTransactionID(req.BookingID, time.Now())
	pb := &models.PendingBooking{
		TransactionID: txID,
		BookingData:   string(data),
		Status:        domain.PendingStatusStaged,
		ExpiresAt:     time.Now().Add(pendingBookingTTL),
	}
	if err := h.pendingStore.Stage(pb); err != nil {
		log.Printf("[PAYMENT] stage failed booking_id=%s: %v", req.BookingID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not stage booking, try again"})
		return
	}

	base := h.cfg.PhonePe.AppBaseURL
	q := url.Values{}
	q.Set("bookingId", req.BookingID)
	q.Set("transactionId", txID)
	resp, err := h.provider.InitiatePayment(c.Request.Context(), payment.PaymentRequest{
		TransactionID: txID,
		BookingID:     req.BookingID,
		UserID:        fmt.Sprintf("MUID%d", userID),
		AmountRupees:  req.AmountRupees,
		MobileNumber:  mobile,
		RedirectURL:   base + "/payment-callback?" + q.Encode(),
		CallbackURL:   base + "/api/v1/payments/phonepe/callback",
	})
	if err != nil {
		// The staged row is useless without a gateway attempt; drop it so a
		// retry stages fresh data under a fresh transaction id.
		if derr := h.pendingStore.Delete(txID); derr != nil {
			log.Printf("[PAYMENT] cleanup of staged txn=%s failed: %v", txID, derr)
		}
		status, msg := initiateErrorResponse(err)
		log.Printf("[PAYMENT] initiate failed booking_id=%s txn=%s: %v", req.BookingID, txID, err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	log.Printf("[PAYMENT] initiated booking_id=%s txn=%s", req.BookingID, txID)
	c.JSON(http.StatusOK, gin.H{
		"transaction_id": txID,
		"redirect_url":   resp.RedirectURL,
	})
}

// Status re-queries the gateway server-side for the client return page,
// which must never trust its own query parameters. Responses are cached
// briefly to absorb redirect-page polling.
func (h *PaymentHandler) Status(c *gin.Context) {
	txID := c.Param("transactionId")
	cacheKey := "phonepe:status:" + txID
	if cached, ok := h.statusCache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	st, err := h.provider.CheckStatus(c.Request.Context(), txID)
	if err != nil {
		status, msg := initiateErrorResponse(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	body := gin.H{
		"transaction_id": txID,
		"state":          st.State,
		"code":           st.Code,
	}
	if p, perr := h.paymentStore.GetByMerchantTransactionID(txID); perr == nil {
		body["payment_status"] = p.Status
		body["booking_id"] = p.BookingID
	}
	h.statusCache.Set(cacheKey, body, statusCacheTTL)
	c.JSON(http.StatusOK, body)
}

// initiateErrorResponse maps the payment error taxonomy onto HTTP statuses.
// Timeout and unreachability are distinct so callers know which retry is
// safe (only status queries; never a signed initiation).
func initiateErrorResponse(err error) (int, string) {
	var gwErr *payment.GatewayError
	switch {
	case errors.Is(err, payment.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrSignature):
		return http.StatusInternalServerError, "payment signing failed"
	case errors.Is(err, payment.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, "payment gateway timed out; restart checkout to try again"
	case errors.Is(err, payment.ErrGatewayUnreachable):
		return http.StatusBadGateway, "payment gateway unreachable; restart checkout to try again"
	case errors.As(err, &gwErr):
		return http.StatusBadGateway, fmt.Sprintf("payment gateway rejected the request (status %d)", gwErr.StatusCode)
	default:
		return http.StatusInternalServerError, "payment initiation failed"
	}
}
