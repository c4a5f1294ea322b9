package handler

import (
	"context"
	"time"

	"nibog/internal/domain"
	"nibog/internal/models"
	"nibog/internal/repository"
	"nibog/pkg/payment"

	"gorm.io/gorm"
)

// In-memory stand-ins for the gorm repositories and the booking service.
// They mirror the real classification rules so handler tests exercise the
// same outcomes.

type fakePendingStore struct {
	rows map[string]*models.PendingBooking
	err  error
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{rows: make(map[string]*models.PendingBooking)}
}

func (f *fakePendingStore) Stage(pb *models.PendingBooking) error {
	if f.err != nil {
		return f.err
	}
	cp := *pb
	f.rows[pb.TransactionID] = &cp
	return nil
}

func (f *fakePendingStore) Get(txID string) (*models.PendingBooking, repository.LookupOutcome, error) {
	if f.err != nil {
		return nil, repository.LookupNotFound, f.err
	}
	pb, ok := f.rows[txID]
	if !ok {
		return nil, repository.LookupNotFound, nil
	}
	if pb.Expired(time.Now()) {
		return pb, repository.LookupExpired, nil
	}
	if _, perr := models.ParseBookingPayload(pb.BookingData); perr != nil {
		return pb, repository.LookupCorrupted, nil
	}
	return pb, repository.LookupFound, nil
}

func (f *fakePendingStore) Delete(txID string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.rows, txID)
	return nil
}

func (f *fakePendingStore) MarkStatus(txID, status string) error {
	if pb, ok := f.rows[txID]; ok {
		pb.Status = status
	}
	return nil
}

type fakePaymentStore struct {
	rows map[string]*models.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{rows: make(map[string]*models.Payment)}
}

func (f *fakePaymentStore) GetByMerchantTransactionID(txID string) (*models.Payment, error) {
	p, ok := f.rows[txID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

type fakePromoter struct {
	pending  *fakePendingStore
	payments *fakePaymentStore
	promoted int
	err      error
}

func (f *fakePromoter) PromotePending(pb *models.PendingBooking, gatewayRef string, amountPaise int64) (*models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	payload, err := models.ParseBookingPayload(pb.BookingData)
	if err != nil {
		return nil, err
	}
	f.promoted++
	now := time.Now()
	f.payments.rows[pb.TransactionID] = &models.Payment{
		MerchantTransactionID: pb.TransactionID,
		GatewayRef:            gatewayRef,
		AmountPaise:           amountPaise,
		UserID:                payload.UserID,
		Status:                domain.PaymentStatusCompleted,
		CompletedAt:           &now,
	}
	delete(f.pending.rows, pb.TransactionID)
	return &models.Booking{
		BookingRef: "NIBOG-B-TEST1234",
		UserID:     payload.UserID,
		EventID:    payload.EventID,
		Status:     domain.BookingStatusConfirmed,
	}, nil
}

type fakeProvider struct {
	initErr    error
	initCalls  []payment.PaymentRequest
	onInitiate func(req payment.PaymentRequest)
	statusResp *payment.StatusResponse
	statusErr  error
	verifyOK   bool
}

func (f *fakeProvider) InitiatePayment(ctx context.Context, req payment.PaymentRequest) (*payment.PaymentResponse, error) {
	f.initCalls = append(f.initCalls, req)
	if f.onInitiate != nil {
		f.onInitiate(req)
	}
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &payment.PaymentResponse{
		TransactionID: req.TransactionID,
		RedirectURL:   "https://pay.example/hosted/" + req.TransactionID,
	}, nil
}

func (f *fakeProvider) CheckStatus(ctx context.Context, merchantTransactionID string) (*payment.StatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.statusResp != nil {
		return f.statusResp, nil
	}
	return &payment.StatusResponse{TransactionID: merchantTransactionID, State: "PENDING"}, nil
}

func (f *fakeProvider) VerifyCallback(base64Body, integrityHeader string) bool {
	return f.verifyOK
}
