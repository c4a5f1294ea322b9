package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// PaymentRequest is the provider-neutral initiation input. Amount is in
// rupees; providers convert to the smallest unit themselves.
type PaymentRequest struct {
	TransactionID string
	BookingID     string
	UserID        string
	AmountRupees  float64
	MobileNumber  string
	RedirectURL   string
	CallbackURL   string
}

type PaymentResponse struct {
	TransactionID string
	RedirectURL   string
}

type StatusResponse struct {
	TransactionID string
	State         string // COMPLETED | FAILED | PENDING
	Code          string
	GatewayRef    string
	AmountPaise   int64
}

type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error)
	// VerifyCallback checks the gateway's integrity header against the raw
	// base64 callback body. False means tampering; the payload must not be
	// trusted.
	VerifyCallback(base64Body, integrityHeader string) bool
}

var (
	// ErrSignature: hash/serialisation failure while signing. Fatal for the
	// request; a corrupted signature must never be sent.
	ErrSignature = errors.New("payment: signature computation failed")

	// ErrGatewayTimeout / ErrGatewayUnreachable are network-level failures.
	// Safe to retry a status query; never re-send a signed initiation
	// without a fresh transaction id.
	ErrGatewayTimeout     = errors.New("payment: gateway timeout")
	ErrGatewayUnreachable = errors.New("payment: gateway unreachable")

	ErrInvalidRequest = errors.New("payment: invalid request")
)

// GatewayError is a non-2xx gateway response. Surfaced to the caller with
// status and body; never retried automatically (a duplicate pay request
// with a new signature risks a duplicate charge attempt).
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment: gateway rejected request: status=%d body=%s", e.StatusCode, e.Body)
}

// ToPaise converts rupees to the smallest unit. Exact for two decimal
// places; fractional paise are never produced.
func ToPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// NormalizeMobile strips everything but digits and drops a leading country
// code for Indian numbers, leaving the 10-digit subscriber number.
func NormalizeMobile(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}
	return digits
}
