package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookngo-backend/internal/appointment/domain"
)

// appointmentRepository implements AppointmentRepository interface
type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{
		db: db,
	}
}

func (r *appointmentRepository) Create(appointment *domain.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	return r.db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(id string) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByUserID(userID string) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.Where("user_id = ?", userID).Order("starts_at DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(appointment *domain.Appointment) error {
	appointment.UpdatedAt = time.Now()
	return r.db.Save(appointment).Error
}

func (r *appointmentRepository) FindDueReminders(now time.Time, lead time.Duration) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.
		Where("status = ? AND reminder_sent = ? AND starts_at > ? AND starts_at <= ?",
			domain.StatusScheduled, false, now, now.Add(lead)).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindLate(now time.Time) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.
		Where("status = ? AND late_notified = ? AND starts_at <= ?",
			domain.StatusScheduled, false, now).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
