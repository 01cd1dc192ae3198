package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "medibook/internal/errors"
	"medibook/internal/model"
)

const (
	historyOrder  = "appointments.appointment_date DESC, appointments.appointment_time DESC"
	upcomingOrder = "appointments.appointment_date ASC, appointments.appointment_time ASC"
)

// AppointmentRepository defines appointment persistence operations.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// FindBookedSlot returns the BOOKED appointment holding the slot, or nil.
	FindBookedSlot(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.TimeOfDay) (*model.Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
	// MarkCancelled moves a BOOKED appointment to CANCELLED and frees its slot.
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.AppointmentStatus) (int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create inserts an appointment. A unique index violation on the active
// slot means a concurrent booking won the slot. Doctors are never deleted,
// so a missing parent row means the booking user was deleted after their
// identity was resolved.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(appointment).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.ErrSlotTaken
		}
		if isForeignKeyViolation(err) {
			return apperrors.ErrUnauthorized
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// FindByID loads an appointment together with its user and doctor.
func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.WithContext(ctx).
		Joins("User").
		Joins("Doctor").
		Where("appointments.id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindBookedSlot(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.TimeOfDay) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status = ?",
			doctorID, date, at, model.StatusBooked).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// ListByUser returns the user's appointments, most recent first.
func (r *appointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	var appointments []model.Appointment
	if err := r.db.WithContext(ctx).
		Joins("Doctor").
		Where("appointments.user_id = ?", userID).
		Order(historyOrder).
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// ListActiveByUser returns the user's BOOKED appointments, soonest first.
func (r *appointmentRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	var appointments []model.Appointment
	if err := r.db.WithContext(ctx).
		Joins("Doctor").
		Where("appointments.user_id = ? AND appointments.status = ?", userID, model.StatusBooked).
		Order(upcomingOrder).
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// ListAll returns every appointment with user and doctor, most recent first.
func (r *appointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	var appointments []model.Appointment
	if err := r.db.WithContext(ctx).
		Joins("User").
		Joins("Doctor").
		Order(historyOrder).
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// MarkCancelled is a single conditional update so two concurrent cancels
// cannot both succeed. Zero affected rows means the appointment is no
// longer BOOKED.
func (r *appointmentRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, model.StatusBooked).
		Updates(map[string]interface{}{
			"status":      model.StatusCancelled,
			"active_slot": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("cancel appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAlreadyCancelled
	}
	return nil
}

func (r *appointmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Appointment{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, status model.AppointmentStatus) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Appointment{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
