package delivery

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
	"bookngo-backend/internal/payment/usecase"
	"bookngo-backend/pkg/mercadopago"
)

type fakeGateway struct {
	payments map[string]*mercadopago.Payment
	err      error
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req mercadopago.CreatePaymentRequest) (*mercadopago.Payment, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

type memoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *memoryPaymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *memoryPaymentRepo) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[payment.ID]; exists {
		return false, nil
	}
	copied := *payment
	r.payments[payment.ID] = &copied
	return true, nil
}

func (r *memoryPaymentRepo) TransitionStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != domain.PaymentStatusPending || p.LastUpdatedAt.After(updatedAt) {
		return false, nil
	}
	p.Status = status
	p.LastUpdatedAt = updatedAt
	return true, nil
}

func (r *memoryPaymentRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PaymentSettled
}

func (p *recordingPublisher) PublishSettled(ctx context.Context, event domain.PaymentSettled) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func postWebhook(t *testing.T, handler *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/webhooks/mercadopago", handler.HandleMercadoPago)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_ReconcilesFromRefetchedStatus(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.payments["pay-1"] = &domain.Payment{
		ID:            "pay-1",
		UserID:        "user-1",
		Status:        domain.PaymentStatusPending,
		Amount:        100,
		LastUpdatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
	publisher := &recordingPublisher{}
	reconciler := usecase.NewReconciler(repo, publisher, zap.NewNop())
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"pay-1": {
			ID:            "pay-1",
			Status:        mercadopago.StatusApproved,
			Amount:        100,
			LastUpdatedAt: time.Date(2026, 8, 29, 10, 5, 0, 0, time.UTC),
		},
	}}
	handler := NewWebhookHandler(gateway, reconciler, zap.NewNop())

	rec := postWebhook(t, handler, `{"type": "payment", "data": {"id": "pay-1"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stored, _ := repo.FindByID(context.Background(), "pay-1")
	if stored.Status != domain.PaymentStatusApproved {
		t.Errorf("stored status = %s, want approved", stored.Status)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(publisher.events))
	}
	if publisher.events[0].UserID != "user-1" {
		t.Errorf("event user = %q, want user-1 (from the stored record)", publisher.events[0].UserID)
	}
}

func TestWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.payments["pay-1"] = &domain.Payment{
		ID:     "pay-1",
		UserID: "user-1",
		Status: domain.PaymentStatusPending,
	}
	publisher := &recordingPublisher{}
	reconciler := usecase.NewReconciler(repo, publisher, zap.NewNop())
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"pay-1": {ID: "pay-1", Status: mercadopago.StatusApproved, LastUpdatedAt: time.Now()},
	}}
	handler := NewWebhookHandler(gateway, reconciler, zap.NewNop())

	for i := 0; i < 3; i++ {
		if rec := postWebhook(t, handler, `{"type": "payment", "data": {"id": "pay-1"}}`); rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i, rec.Code)
		}
	}

	if len(publisher.events) != 1 {
		t.Errorf("events = %d, want exactly 1 across duplicate deliveries", len(publisher.events))
	}
}

func TestWebhook_Always200(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		gateway *fakeGateway
	}{
		{"malformed json", `{not json`, &fakeGateway{}},
		{"empty body", ``, &fakeGateway{}},
		{"non-payment type", `{"type": "plan", "data": {"id": "x"}}`, &fakeGateway{}},
		{"missing id", `{"type": "payment", "data": {}}`, &fakeGateway{}},
		{"gateway down", `{"type": "payment", "data": {"id": "pay-1"}}`,
			&fakeGateway{err: &mercadopago.TransientError{Status: 502}}},
		{"unknown payment", `{"type": "payment", "data": {"id": "ghost"}}`, &fakeGateway{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reconciler := usecase.NewReconciler(newMemoryPaymentRepo(), &recordingPublisher{}, zap.NewNop())
			handler := NewWebhookHandler(tc.gateway, reconciler, zap.NewNop())

			if rec := postWebhook(t, handler, tc.body); rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestWebhook_BodyStatusIsIgnored(t *testing.T) {
	// The body claims nothing about status; even if it did, only the id is
	// read and the gateway is the source of truth. Here the gateway still
	// reports pending, so no settlement happens.
	repo := newMemoryPaymentRepo()
	repo.payments["pay-1"] = &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusPending}
	publisher := &recordingPublisher{}
	reconciler := usecase.NewReconciler(repo, publisher, zap.NewNop())
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"pay-1": {ID: "pay-1", Status: mercadopago.StatusPending, LastUpdatedAt: time.Now()},
	}}
	handler := NewWebhookHandler(gateway, reconciler, zap.NewNop())

	rec := postWebhook(t, handler, `{"type": "payment", "data": {"id": "pay-1"}, "status": "approved"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stored, _ := repo.FindByID(context.Background(), "pay-1")
	if stored.Status != domain.PaymentStatusPending {
		t.Errorf("stored status = %s, want pending (gateway is authoritative)", stored.Status)
	}
	if len(publisher.events) != 0 {
		t.Errorf("events = %d, want 0", len(publisher.events))
	}
}
