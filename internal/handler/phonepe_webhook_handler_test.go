package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nibog/config"
	"nibog/internal/domain"
	"nibog/internal/models"
	"nibog/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSaltKey = "test-salt-key"

func webhookTestSetup() (*gin.Engine, *fakePendingStore, *fakePaymentStore, *fakePromoter) {
	gin.SetMode(gin.TestMode)
	provider := payment.NewPhonePeProvider(config.PhonePeConfig{
		Environment: "sandbox",
		MerchantID:  "MERCHANTUAT",
		SaltKey:     testSaltKey,
		SaltIndex:   "1",
		BaseURL:     "https://gateway.invalid",
		AppBaseURL:  "https://nibog.example",
	})
	pending := newFakePendingStore()
	payments := newFakePaymentStore()
	promoter := &fakePromoter{pending: pending, payments: payments}

	r := gin.New()
	h := NewPhonePeWebhookHandler(provider, pending, payments, promoter)
	r.POST("/callback", h.Handle)
	return r, pending, payments, promoter
}

// signedCallback builds the gateway's callback request body and a matching
// X-VERIFY header the way the gateway computes it.
func signedCallback(t *testing.T, env map[string]interface{}) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	b64 := base64.StdEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(b64 + testSaltKey))
	body, err := json.Marshal(map[string]string{"response": b64})
	require.NoError(t, err)
	return body, fmt.Sprintf("%x###1", sum)
}

func successEnvelope(txID string) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data": map[string]interface{}{
			"merchantId":            "MERCHANTUAT",
			"merchantTransactionId": txID,
			"transactionId":         "T2408151244",
			"amount":                79900,
			"state":                 "COMPLETED",
		},
	}
}

func stagedRow(txID string, expiresIn time.Duration) *models.PendingBooking {
	return &models.PendingBooking{
		TransactionID: txID,
		BookingData:   `{"booking_id":"42","user_id":7,"event_id":3,"child_name":"Aarav","total_rupees":799}`,
		Status:        domain.PendingStatusStaged,
		ExpiresAt:     time.Now().Add(expiresIn),
	}
}

func postCallback(r *gin.Engine, body []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set("X-VERIFY", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackPromotesExactlyOnce(t *testing.T) {
	r, pending, payments, promoter := webhookTestSetup()
	txID := "NIBOG_42_1700000000000"
	require.NoError(t, pending.Stage(stagedRow(txID, 15*time.Minute)))

	body, header := signedCallback(t, successEnvelope(txID))

	w := postCallback(r, body, header)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["promoted"])
	assert.Equal(t, "NIBOG-B-TEST1234", resp["booking_ref"])
	assert.Equal(t, 1, promoter.promoted)

	// staged row consumed, payment recorded
	_, ok := pending.rows[txID]
	assert.False(t, ok)
	p, err := payments.GetByMerchantTransactionID(txID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "T2408151244", p.GatewayRef)

	// gateway retries the callback: acknowledged, not re-promoted
	w = postCallback(r, body, header)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["promoted"])
	assert.Equal(t, true, resp["duplicate"])
	assert.Equal(t, 1, promoter.promoted)
}

func TestCallbackTamperedHeaderRejected(t *testing.T) {
	r, pending, _, promoter := webhookTestSetup()
	txID := "NIBOG_42_1700000000001"
	require.NoError(t, pending.Stage(stagedRow(txID, 15*time.Minute)))

	body, header := signedCallback(t, successEnvelope(txID))
	tampered := "0" + header[1:]
	if header[0] == '0' {
		tampered = "1" + header[1:]
	}

	w := postCallback(r, body, tampered)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, promoter.promoted)
	// staged row untouched
	_, ok := pending.rows[txID]
	assert.True(t, ok)
}

func TestCallbackMissingHeaderRejected(t *testing.T) {
	r, _, _, promoter := webhookTestSetup()
	body, _ := signedCallback(t, successEnvelope("NIBOG_42_2"))

	w := postCallback(r, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, promoter.promoted)
}

func TestCallbackExpiredStagedBookingNotPromoted(t *testing.T) {
	r, pending, _, promoter := webhookTestSetup()
	txID := "NIBOG_42_1700000000002"
	require.NoError(t, pending.Stage(stagedRow(txID, -time.Minute)))

	body, header := signedCallback(t, successEnvelope(txID))
	w := postCallback(r, body, header)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["promoted"])
	assert.Equal(t, "expired", resp["reason"])
	assert.Equal(t, 0, promoter.promoted)
	assert.Equal(t, domain.PendingStatusExpired, pending.rows[txID].Status)
}

func TestCallbackUnknownTransactionTreatedAsStale(t *testing.T) {
	r, _, _, promoter := webhookTestSetup()
	body, header := signedCallback(t, successEnvelope("NIBOG_99_1700000000003"))

	w := postCallback(r, body, header)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["promoted"])
	assert.Equal(t, "not_found", resp["reason"])
	assert.Equal(t, 0, promoter.promoted)
}

func TestCallbackPaymentFailureMarksPending(t *testing.T) {
	r, pending, _, promoter := webhookTestSetup()
	txID := "NIBOG_42_1700000000004"
	require.NoError(t, pending.Stage(stagedRow(txID, 15*time.Minute)))

	env := successEnvelope(txID)
	env["success"] = false
	env["code"] = "PAYMENT_ERROR"
	body, header := signedCallback(t, env)

	w := postCallback(r, body, header)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "payment_failed", resp["reason"])
	assert.Equal(t, 0, promoter.promoted)
	assert.Equal(t, domain.PendingStatusFailed, pending.rows[txID].Status)
}

func TestCallbackCorruptedPayloadFlagged(t *testing.T) {
	r, pending, _, promoter := webhookTestSetup()
	txID := "NIBOG_42_1700000000005"
	require.NoError(t, pending.Stage(&models.PendingBooking{
		TransactionID: txID,
		BookingData:   "undefined",
		Status:        domain.PendingStatusStaged,
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}))

	body, header := signedCallback(t, successEnvelope(txID))
	w := postCallback(r, body, header)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "corrupted", resp["reason"])
	assert.Equal(t, 0, promoter.promoted)
	assert.Equal(t, domain.PendingStatusCorrupted, pending.rows[txID].Status)
}

func TestCallbackInvalidEnvelope(t *testing.T) {
	r, _, _, _ := webhookTestSetup()

	w := postCallback(r, []byte(`{"response":""}`), "anything")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postCallback(r, []byte(`not json`), "anything")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
