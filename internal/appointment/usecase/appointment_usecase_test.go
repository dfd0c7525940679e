package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookngo-backend/internal/appointment/domain"
	notifdomain "bookngo-backend/internal/notification/domain"
	notifusecase "bookngo-backend/internal/notification/usecase"
	paymentdomain "bookngo-backend/internal/payment/domain"
	paymentusecase "bookngo-backend/internal/payment/usecase"
)

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[string]*domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[string]*domain.Appointment)}
}

func (r *fakeAppointmentRepo) Create(appointment *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) FindByID(id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) FindByUserID(userID string) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Update(appointment *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) FindDueReminders(now time.Time, lead time.Duration) ([]domain.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) FindLate(now time.Time) ([]domain.Appointment, error) {
	return nil, nil
}

type fakePayments struct {
	err     error
	created []paymentusecase.CreatePaymentInput
}

func (f *fakePayments) Create(ctx context.Context, userID string, input paymentusecase.CreatePaymentInput) (*paymentdomain.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return &paymentdomain.Payment{
		ID:                  "pay-" + input.LinkedAppointmentID,
		UserID:              userID,
		Status:              paymentdomain.PaymentStatusPending,
		Amount:              input.Amount,
		LinkedAppointmentID: input.LinkedAppointmentID,
	}, nil
}

func (f *fakePayments) Poll(ctx context.Context, id string) (*paymentdomain.Payment, error) {
	return nil, errors.New("not used")
}

func (f *fakePayments) GetByID(ctx context.Context, id string) (*paymentdomain.Payment, error) {
	return nil, errors.New("not used")
}

func (f *fakePayments) ListByUser(ctx context.Context, userID string) ([]paymentdomain.Payment, error) {
	return nil, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []notifdomain.Event
	done   chan struct{}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, event notifdomain.Event) notifusecase.DispatchResult {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return notifusecase.DispatchResult{Delivered: 1}
}

func validInput() CreateInput {
	return CreateInput{
		ServiceName: "Haircut",
		Price:       80,
		StartsAt:    time.Now().Add(48 * time.Hour),
		PayerEmail:  "ana@example.com",
		PayerDoc:    "12345678901",
	}
}

func TestCreate_LinksPaymentIntent(t *testing.T) {
	repo := newFakeAppointmentRepo()
	payments := &fakePayments{}
	uc := NewAppointmentUsecase(repo, payments, &fakeDispatcher{})

	appointment, err := uc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appointment.PaymentID == "" {
		t.Error("priced booking must carry a payment id")
	}
	if len(payments.created) != 1 {
		t.Fatalf("payment creations = %d, want 1", len(payments.created))
	}
	if payments.created[0].LinkedAppointmentID != appointment.ID {
		t.Error("payment must back-reference the appointment")
	}
}

func TestCreate_FreeBookingSkipsPayment(t *testing.T) {
	repo := newFakeAppointmentRepo()
	payments := &fakePayments{}
	uc := NewAppointmentUsecase(repo, payments, &fakeDispatcher{})

	input := validInput()
	input.Price = 0

	appointment, err := uc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appointment.PaymentID != "" || len(payments.created) != 0 {
		t.Error("a free booking must not create a payment intent")
	}
}

func TestCreate_PaymentFailureRollsBack(t *testing.T) {
	repo := newFakeAppointmentRepo()
	payments := &fakePayments{err: errors.New("gateway down")}
	uc := NewAppointmentUsecase(repo, payments, &fakeDispatcher{})

	_, err := uc.Create(context.Background(), "user-1", validInput())
	if err == nil {
		t.Fatal("expected an error when the payment intent fails")
	}

	stored, _ := repo.FindByUserID("user-1")
	if len(stored) != 1 {
		t.Fatalf("appointments = %d, want the rolled-back record", len(stored))
	}
	if stored[0].Status != domain.StatusCancelled {
		t.Errorf("status = %s, want cancelled after payment failure", stored[0].Status)
	}
}

func TestCreate_RejectsPastStart(t *testing.T) {
	uc := NewAppointmentUsecase(newFakeAppointmentRepo(), &fakePayments{}, &fakeDispatcher{})

	input := validInput()
	input.StartsAt = time.Now().Add(-time.Hour)

	if _, err := uc.Create(context.Background(), "user-1", input); err == nil {
		t.Fatal("expected an error for a past start time")
	}
}

func TestCheckIn_TransitionsAndNotifies(t *testing.T) {
	repo := newFakeAppointmentRepo()
	dispatcher := &fakeDispatcher{done: make(chan struct{})}
	uc := NewAppointmentUsecase(repo, &fakePayments{}, dispatcher)

	input := validInput()
	input.Price = 0
	created, err := uc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	checked, err := uc.CheckIn(context.Background(), "user-1", created.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if checked.Status != domain.StatusCheckedIn {
		t.Errorf("status = %s, want checked_in", checked.Status)
	}

	select {
	case <-dispatcher.done:
	case <-time.After(time.Second):
		t.Fatal("check-in confirmation never dispatched")
	}
	if dispatcher.events[0].Type != notifdomain.TypeAppointmentCheckin {
		t.Errorf("event type = %s, want appointment_checkin", dispatcher.events[0].Type)
	}

	// A second check-in is a state error, not a duplicate notification.
	if _, err := uc.CheckIn(context.Background(), "user-1", created.ID); err == nil {
		t.Error("expected an error checking in twice")
	}
}

func TestOwnershipEnforced(t *testing.T) {
	repo := newFakeAppointmentRepo()
	uc := NewAppointmentUsecase(repo, &fakePayments{}, &fakeDispatcher{})

	input := validInput()
	input.Price = 0
	created, _ := uc.Create(context.Background(), "user-1", input)

	if _, err := uc.GetByID(context.Background(), "someone-else", created.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
	if err := uc.Cancel(context.Background(), "someone-else", created.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("cancel err = %v, want ErrNotOwner", err)
	}
}

func TestCancel(t *testing.T) {
	repo := newFakeAppointmentRepo()
	uc := NewAppointmentUsecase(repo, &fakePayments{}, &fakeDispatcher{})

	input := validInput()
	input.Price = 0
	created, _ := uc.Create(context.Background(), "user-1", input)

	if err := uc.Cancel(context.Background(), "user-1", created.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	stored, _ := repo.FindByID(created.ID)
	if stored.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
}
