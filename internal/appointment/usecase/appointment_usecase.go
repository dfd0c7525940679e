package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookngo-backend/internal/appointment/domain"
	"bookngo-backend/internal/appointment/repository"
	notifdomain "bookngo-backend/internal/notification/domain"
	notifusecase "bookngo-backend/internal/notification/usecase"
	paymentusecase "bookngo-backend/internal/payment/usecase"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotOwner            = errors.New("unauthorized")
)

// EventDispatcher is the slice of the notification dispatcher this usecase
// needs. Satisfied by *notifusecase.Dispatcher.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event notifdomain.Event) notifusecase.DispatchResult
}

// AppointmentUsecase drives bookings and their linked payments
type AppointmentUsecase interface {
	Create(ctx context.Context, userID string, input CreateInput) (*domain.Appointment, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	CheckIn(ctx context.Context, userID, id string) (*domain.Appointment, error)
	Cancel(ctx context.Context, userID, id string) error
}

type CreateInput struct {
	ServiceName string
	Notes       string
	Price       float64
	StartsAt    time.Time
	PayerEmail  string
	PayerDoc    string
}

type appointmentUsecase struct {
	repo       repository.AppointmentRepository
	payments   paymentusecase.PaymentUsecase
	dispatcher EventDispatcher
}

func NewAppointmentUsecase(repo repository.AppointmentRepository, payments paymentusecase.PaymentUsecase, dispatcher EventDispatcher) AppointmentUsecase {
	return &appointmentUsecase{
		repo:       repo,
		payments:   payments,
		dispatcher: dispatcher,
	}
}

func (u *appointmentUsecase) Create(ctx context.Context, userID string, input CreateInput) (*domain.Appointment, error) {
	if input.StartsAt.Before(time.Now()) {
		return nil, errors.New("appointment must start in the future")
	}

	appointment := &domain.Appointment{
		UserID:      userID,
		ServiceName: input.ServiceName,
		Notes:       input.Notes,
		Price:       input.Price,
		StartsAt:    input.StartsAt,
		Status:      domain.StatusScheduled,
	}
	if err := u.repo.Create(appointment); err != nil {
		return nil, err
	}

	// A priced booking gets its payment intent up front. Payment failure
	// rolls the booking back to keep the two in step.
	if input.Price > 0 {
		payment, err := u.payments.Create(ctx, userID, paymentusecase.CreatePaymentInput{
			Amount:              input.Price,
			Description:         input.ServiceName,
			PayerEmail:          input.PayerEmail,
			PayerDocument:       input.PayerDoc,
			LinkedAppointmentID: appointment.ID,
		})
		if err != nil {
			appointment.Status = domain.StatusCancelled
			_ = u.repo.Update(appointment)
			return nil, fmt.Errorf("create payment for appointment: %w", err)
		}
		appointment.PaymentID = payment.ID
		if err := u.repo.Update(appointment); err != nil {
			return nil, err
		}
	}

	return appointment, nil
}

func (u *appointmentUsecase) GetByID(ctx context.Context, userID, id string) (*domain.Appointment, error) {
	appointment, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.UserID != userID {
		return nil, ErrNotOwner
	}
	return appointment, nil
}

func (u *appointmentUsecase) ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	return u.repo.FindByUserID(userID)
}

func (u *appointmentUsecase) CheckIn(ctx context.Context, userID, id string) (*domain.Appointment, error) {
	appointment, err := u.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != domain.StatusScheduled {
		return nil, fmt.Errorf("cannot check in from status %s", appointment.Status)
	}

	appointment.Status = domain.StatusCheckedIn
	if err := u.repo.Update(appointment); err != nil {
		return nil, err
	}

	// Confirmation is a side channel; its failure never fails the check-in.
	go u.dispatcher.Dispatch(context.WithoutCancel(ctx), notifdomain.Event{
		Type:    notifdomain.TypeAppointmentCheckin,
		UserIDs: []string{userID},
		Data:    map[string]string{"service": appointment.ServiceName},
	})

	return appointment, nil
}

func (u *appointmentUsecase) Cancel(ctx context.Context, userID, id string) error {
	appointment, err := u.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if appointment.Status == domain.StatusCompleted {
		return errors.New("cannot cancel a completed appointment")
	}

	appointment.Status = domain.StatusCancelled
	return u.repo.Update(appointment)
}
