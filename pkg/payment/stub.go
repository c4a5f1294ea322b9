package payment

import (
	"context"
	"fmt"
)

// StubProvider is a no-op gateway for development: every initiation is
// accepted and every status query reports COMPLETED.
type StubProvider struct{}

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.TransactionID == "" || req.AmountRupees <= 0 {
		return nil, ErrInvalidRequest
	}
	return &PaymentResponse{
		TransactionID: req.TransactionID,
		RedirectURL:   fmt.Sprintf("https://sandbox.invalid/pay/%s", req.TransactionID),
	}, nil
}

func (s *StubProvider) CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error) {
	return &StatusResponse{
		TransactionID: merchantTransactionID,
		State:         "COMPLETED",
		Code:          "PAYMENT_SUCCESS",
		GatewayRef:    "stub_" + merchantTransactionID,
	}, nil
}

func (s *StubProvider) VerifyCallback(base64Body, integrityHeader string) bool {
	return integrityHeader != ""
}
