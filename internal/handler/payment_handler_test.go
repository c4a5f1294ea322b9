package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nibog/config"
	"nibog/internal/models"
	"nibog/pkg/cache"
	"nibog/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentTestSetup(provider payment.Provider) (*gin.Engine, *fakePendingStore, *fakePaymentStore) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		PhonePe: config.PhonePeConfig{
			Environment: "sandbox",
			MerchantID:  "MERCHANTUAT",
			SaltKey:     testSaltKey,
			SaltIndex:   "1",
			BaseURL:     "https://gateway.invalid",
			AppBaseURL:  "https://nibog.example",
		},
	}
	pending := newFakePendingStore()
	payments := newFakePaymentStore()
	h := NewPaymentHandler(cfg, provider, pending, payments, cache.New(16, 0))

	r := gin.New()
	asUser := func(c *gin.Context) { c.Set("user_id", uint(7)) }
	r.POST("/initiate", asUser, h.Initiate)
	r.GET("/status/:transactionId", h.Status)
	return r, pending, payments
}

func initiateBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"booking_id":    "42",
		"amount":        799.0,
		"mobile_number": "+91 98765 43210",
		"booking": map[string]interface{}{
			"event_id":     3,
			"child_name":   "Aarav",
			"child_dob":    "2022-04-01",
			"game_ids":     []uint{1, 2},
			"total_rupees": 799.0,
		},
	})
	return body
}

func postInitiate(r *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/initiate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInitiateStagesBeforeGatewayCall(t *testing.T) {
	provider := &fakeProvider{}
	var stagedAtCallTime bool
	r, pending, _ := paymentTestSetup(provider)
	provider.onInitiate = func(req payment.PaymentRequest) {
		// ordering guarantee: the staged row must be visible before the
		// browser can ever be redirected
		_, ok := pending.rows[req.TransactionID]
		stagedAtCallTime = ok
	}

	w := postInitiate(r, initiateBody())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stagedAtCallTime)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	txID, _ := resp["transaction_id"].(string)
	assert.Contains(t, resp["redirect_url"], txID)

	// staged payload was enriched with the authenticated user
	pb := pending.rows[txID]
	require.NotNil(t, pb)
	payload, err := models.ParseBookingPayload(pb.BookingData)
	require.NoError(t, err)
	assert.Equal(t, uint(7), payload.UserID)
	assert.Equal(t, "42", payload.BookingID)
	assert.True(t, pb.ExpiresAt.After(time.Now()))

	require.Len(t, provider.initCalls, 1)
	call := provider.initCalls[0]
	assert.Equal(t, 799.0, call.AmountRupees)
	assert.Equal(t, "9876543210", call.MobileNumber)
	assert.Contains(t, call.RedirectURL, "https://nibog.example/payment-callback?")
	assert.Contains(t, call.RedirectURL, "transactionId="+txID)
	assert.Equal(t, "https://nibog.example/api/v1/payments/phonepe/callback", call.CallbackURL)
}

func TestInitiateGatewayRejectionCleansStagedRow(t *testing.T) {
	provider := &fakeProvider{initErr: &payment.GatewayError{StatusCode: 500, Body: "oops"}}
	r, pending, _ := paymentTestSetup(provider)

	w := postInitiate(r, initiateBody())
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, pending.rows)
}

func TestInitiateTimeoutMapsTo504(t *testing.T) {
	provider := &fakeProvider{initErr: payment.ErrGatewayTimeout}
	r, _, _ := paymentTestSetup(provider)

	w := postInitiate(r, initiateBody())
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestInitiateValidation(t *testing.T) {
	provider := &fakeProvider{}
	r, pending, _ := paymentTestSetup(provider)

	t.Run("bad mobile", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"booking_id":    "42",
			"amount":        799.0,
			"mobile_number": "12345",
			"booking":       map[string]interface{}{"event_id": 3},
		})
		w := postInitiate(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero amount", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"booking_id":    "42",
			"amount":        0,
			"mobile_number": "9876543210",
			"booking":       map[string]interface{}{"event_id": 3},
		})
		w := postInitiate(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.Empty(t, provider.initCalls)
	assert.Empty(t, pending.rows)
}

func TestInitiateStagingFailureIs503(t *testing.T) {
	provider := &fakeProvider{}
	r, pending, _ := paymentTestSetup(provider)
	pending.err = assert.AnError

	w := postInitiate(r, initiateBody())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, provider.initCalls)
}

func TestStatusQueriesGatewayAndCaches(t *testing.T) {
	provider := &fakeProvider{statusResp: &payment.StatusResponse{
		TransactionID: "NIBOG_42_1",
		State:         "COMPLETED",
		Code:          "PAYMENT_SUCCESS",
		GatewayRef:    "T1",
	}}
	r, _, _ := paymentTestSetup(provider)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/NIBOG_42_1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp["state"])

	// second poll is served from cache even if the gateway goes away
	provider.statusErr = payment.ErrGatewayUnreachable
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/NIBOG_42_1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusGatewayErrorsClassified(t *testing.T) {
	provider := &fakeProvider{statusErr: payment.ErrGatewayTimeout}
	r, _, _ := paymentTestSetup(provider)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/NIBOG_42_2", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
