package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"nibog/config"
)

const (
	payPath        = "/pg/v1/pay"
	statusPathBase = "/pg/v1/status"

	callbackCodeSuccess = "PAYMENT_SUCCESS"
)

// PhonePeProvider signs and sends requests to the PhonePe PG API and
// verifies its callbacks. Integrity header scheme:
// sha256(base64Payload + endpointPath + saltKey) hex + "###" + saltIndex.
type PhonePeProvider struct {
	cfg    config.PhonePeConfig
	client *http.Client
}

func NewPhonePeProvider(cfg config.PhonePeConfig) *PhonePeProvider {
	return &PhonePeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type payRequestBody struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type payAPIResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			Type         string `json:"type"`
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// xVerify computes the integrity header over the given material. The
// concatenation order (payload, path, salt) and the "###" separator are part
// of the gateway contract; any deviation invalidates every check.
func (p *PhonePeProvider) xVerify(material string) string {
	sum := sha256.Sum256([]byte(material))
	return fmt.Sprintf("%x###%s", sum, p.cfg.SaltIndex)
}

// signPayload serialises and base64-wraps the request body and derives its
// X-VERIFY header. Any serialisation failure is fatal for the request.
func (p *PhonePeProvider) signPayload(body interface{}, endpointPath string) (string, string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSignature, err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded, p.xVerify(encoded + endpointPath + p.cfg.SaltKey), nil
}

// InitiatePayment signs and POSTs a pay request, returning the hosted-page
// redirect URL verbatim. Not retried on failure: a fresh attempt needs a
// fresh transaction id.
func (p *PhonePeProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	mobile := NormalizeMobile(req.MobileNumber)
	if req.TransactionID == "" || req.AmountRupees <= 0 || mobile == "" {
		return nil, fmt.Errorf("%w: transaction id, positive amount and mobile number required", ErrInvalidRequest)
	}
	body := payRequestBody{
		MerchantID:            p.cfg.MerchantID,
		MerchantTransactionID: req.TransactionID,
		MerchantUserID:        req.UserID,
		Amount:                ToPaise(req.AmountRupees),
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "POST",
		CallbackURL:           req.CallbackURL,
		MobileNumber:          mobile,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}
	encoded, header, err := p.signPayload(body, payPath)
	if err != nil {
		return nil, err
	}
	envelope, _ := json.Marshal(map[string]string{"request": encoded})
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+payPath, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("X-VERIFY", header)
	log.Printf("[PHONEPE] POST %s%s txn=%s amount_paise=%d", p.cfg.BaseURL, payPath, req.TransactionID, body.Amount)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[PHONEPE] pay rejected txn=%s status=%d body=%s", req.TransactionID, resp.StatusCode, string(respBody))
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	var out payAPIResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("payment: decode pay response: %w", err)
	}
	redirect := out.Data.InstrumentResponse.RedirectInfo.URL
	if !out.Success || redirect == "" {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	log.Printf("[PHONEPE] pay accepted txn=%s code=%s", req.TransactionID, out.Code)
	return &PaymentResponse{TransactionID: req.TransactionID, RedirectURL: redirect}, nil
}

type statusAPIResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

// CheckStatus queries the gateway's status API. Safe to retry; the request
// is a signed GET with no side effects.
func (p *PhonePeProvider) CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error) {
	if merchantTransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id required", ErrInvalidRequest)
	}
	path := fmt.Sprintf("%s/%s/%s", statusPathBase, p.cfg.MerchantID, merchantTransactionID)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("X-VERIFY", p.xVerify(path+p.cfg.SaltKey))
	apiReq.Header.Set("X-MERCHANT-ID", p.cfg.MerchantID)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	var out statusAPIResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("payment: decode status response: %w", err)
	}
	return &StatusResponse{
		TransactionID: merchantTransactionID,
		State:         out.Data.State,
		Code:          out.Code,
		GatewayRef:    out.Data.TransactionID,
		AmountPaise:   out.Data.Amount,
	}, nil
}

// VerifyCallback recomputes the integrity header over the raw base64
// callback body (no path component on callbacks) and compares against the
// header the gateway supplied.
func (p *PhonePeProvider) VerifyCallback(base64Body, integrityHeader string) bool {
	expected := p.xVerify(base64Body + p.cfg.SaltKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(integrityHeader)) == 1
}

// CallbackResult is the decoded gateway callback outcome.
type CallbackResult struct {
	Success               bool
	Code                  string
	MerchantTransactionID string
	GatewayRef            string
	AmountPaise           int64
	State                 string
}

// PaymentSucceeded reports whether the callback marks the payment paid.
func (r *CallbackResult) PaymentSucceeded() bool {
	return r.Success && r.Code == callbackCodeSuccess
}

type callbackEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

// DecodeCallback unwraps the base64 callback body. Verify first; decoding
// does not authenticate anything.
func DecodeCallback(base64Body string) (*CallbackResult, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Body)
	if err != nil {
		return nil, fmt.Errorf("payment: decode callback body: %w", err)
	}
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("payment: parse callback body: %w", err)
	}
	if env.Data.MerchantTransactionID == "" {
		return nil, fmt.Errorf("payment: callback missing merchantTransactionId")
	}
	return &CallbackResult{
		Success:               env.Success,
		Code:                  env.Code,
		MerchantTransactionID: env.Data.MerchantTransactionID,
		GatewayRef:            env.Data.TransactionID,
		AmountPaise:           env.Data.Amount,
		State:                 env.Data.State,
	}, nil
}

// classifyTransport separates "timed out" from "could not reach" so callers
// can apply the right retry policy.
func classifyTransport(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
}
