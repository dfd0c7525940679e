package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMissingCredentials is returned when a call needs the gateway access
// token and none is configured. Only the call fails, never process start.
var ErrMissingCredentials = errors.New("mercadopago: access token not configured")

// ValidationError means the request was malformed before it was ever sent.
// Caller's fault, not retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// TransientError covers network failures and gateway 5xx responses. The
// polling path may retry these with backoff; the client itself never does.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mercadopago transient error: %v", e.Err)
	}
	return fmt.Sprintf("mercadopago transient error: status %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Payment gateway statuses. in_process and authorized collapse into pending;
// everything else maps one-to-one.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type CreatePaymentRequest struct {
	Amount        float64
	Description   string
	PayerEmail    string
	PayerDocument string
}

type Payment struct {
	ID            string
	Status        string
	Amount        float64
	QRPayload     string
	LastUpdatedAt time.Time
}

// Client wraps the two Mercado Pago calls this backend makes. It holds no
// state besides credentials and applies no retry policy.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type createPaymentBody struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             struct {
		Email          string `json:"email"`
		Identification struct {
			Type   string `json:"type"`
			Number string `json:"number"`
		} `json:"identification"`
	} `json:"payer"`
}

type paymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	TransactionAmount  float64     `json:"transaction_amount"`
	DateLastUpdated    string      `json:"date_last_updated"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode string `json:"qr_code"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePayment creates a PIX payment intent and returns its id, initial
// status and the QR payload the client renders at checkout.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	if c.accessToken == "" {
		return nil, ErrMissingCredentials
	}

	body := createPaymentBody{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
	}
	body.Payer.Email = req.PayerEmail
	body.Payer.Identification.Type = documentType(req.PayerDocument)
	body.Payer.Identification.Number = req.PayerDocument

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	// Mercado Pago requires an idempotency key on payment creation.
	httpReq.Header.Set("X-Idempotency-Key", uuid.New().String())

	return c.doPaymentRequest(httpReq)
}

// GetPayment fetches the current status of a payment. The webhook handler
// always goes through here instead of trusting the webhook body.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if c.accessToken == "" {
		return nil, ErrMissingCredentials
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	return c.doPaymentRequest(httpReq)
}

func (c *Client) doPaymentRequest(req *http.Request) (*Payment, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return nil, &TransientError{Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mercadopago API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed paymentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("mercadopago: decode response: %w", err)
	}

	payment := &Payment{
		ID:        parsed.ID.String(),
		Status:    normalizeStatus(parsed.Status),
		Amount:    parsed.TransactionAmount,
		QRPayload: parsed.PointOfInteraction.TransactionData.QRCode,
	}
	if parsed.DateLastUpdated != "" {
		if t, err := time.Parse(time.RFC3339, parsed.DateLastUpdated); err == nil {
			payment.LastUpdatedAt = t
		}
	}
	return payment, nil
}

func normalizeStatus(status string) string {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return status
	default:
		// pending, in_process, authorized and anything unknown stay pending
		// until the gateway reports a terminal state.
		return StatusPending
	}
}

func validateCreateRequest(req CreatePaymentRequest) error {
	if req.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if !strings.Contains(req.PayerEmail, "@") {
		return &ValidationError{Field: "payer_email", Message: "must be a valid email address"}
	}
	if !validDocument(req.PayerDocument) {
		return &ValidationError{Field: "payer_document", Message: "must be a CPF (11 digits) or CNPJ (14 digits)"}
	}
	return nil
}

func documentType(document string) string {
	if len(document) == 14 {
		return "CNPJ"
	}
	return "CPF"
}

func validDocument(document string) bool {
	if len(document) != 11 && len(document) != 14 {
		return false
	}
	for _, r := range document {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
