package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "medibook/internal/errors"
	"medibook/internal/model"
)

// IdentityProvider resolves a caller identity to a user record.
type IdentityProvider interface {
	ResolveUser(ctx context.Context, email string) (*model.User, error)
}

// DoctorDirectory looks up doctors by id.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

// CreateAppointmentInput carries a booking request.
type CreateAppointmentInput struct {
	DoctorID uuid.UUID
	Date     model.Date
	Time     model.TimeOfDay
}

// UserSummary is the user part of an appointment projection.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// DoctorSummary is the doctor part of an appointment projection.
type DoctorSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
}

// AppointmentView is the outward projection of an appointment.
type AppointmentView struct {
	ID        uuid.UUID               `json:"id"`
	User      UserSummary             `json:"user"`
	Doctor    DoctorSummary           `json:"doctor"`
	Date      model.Date              `json:"date" swaggertype:"string" example:"2099-01-01"`
	Time      model.TimeOfDay         `json:"time" swaggertype:"string" example:"10:00"`
	Status    model.AppointmentStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// BookingService orchestrates identity, directory and ledger for the
// appointment endpoints. Callers are identified by email.
type BookingService interface {
	Create(ctx context.Context, email string, in CreateAppointmentInput) (*AppointmentView, error)
	List(ctx context.Context, email string, activeOnly bool) ([]AppointmentView, error)
	Get(ctx context.Context, email string, id uuid.UUID) (*AppointmentView, error)
	Cancel(ctx context.Context, email string, id uuid.UUID) (*AppointmentView, error)
}

type bookingService struct {
	identity  IdentityProvider
	directory DoctorDirectory
	ledger    Ledger
}

// NewBookingService creates a new booking service.
func NewBookingService(identity IdentityProvider, directory DoctorDirectory, ledger Ledger) BookingService {
	return &bookingService{
		identity:  identity,
		directory: directory,
		ledger:    ledger,
	}
}

func (s *bookingService) caller(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.identity.ResolveUser(ctx, email)
}

func (s *bookingService) Create(ctx context.Context, email string, in CreateAppointmentInput) (*AppointmentView, error) {
	user, err := s.caller(ctx, email)
	if err != nil {
		return nil, err
	}
	if in.DoctorID == uuid.Nil {
		return nil, apperrors.InvalidRequest("doctor_id is required")
	}
	if in.Date.IsZero() {
		return nil, apperrors.InvalidRequest("date is required")
	}

	doctor, err := s.directory.GetDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	appointment, err := s.ledger.Book(ctx, user, doctor, in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	view := NewAppointmentView(appointment, user, doctor)
	return &view, nil
}

func (s *bookingService) List(ctx context.Context, email string, activeOnly bool) ([]AppointmentView, error) {
	user, err := s.caller(ctx, email)
	if err != nil {
		return nil, err
	}

	appointments, err := s.ledger.ListForUser(ctx, user, activeOnly)
	if err != nil {
		return nil, err
	}

	views := make([]AppointmentView, 0, len(appointments))
	for i := range appointments {
		views = append(views, NewAppointmentView(&appointments[i], user, nil))
	}
	return views, nil
}

func (s *bookingService) Get(ctx context.Context, email string, id uuid.UUID) (*AppointmentView, error) {
	user, err := s.caller(ctx, email)
	if err != nil {
		return nil, err
	}

	appointment, err := s.ledger.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}
	view := NewAppointmentView(appointment, nil, nil)
	return &view, nil
}

func (s *bookingService) Cancel(ctx context.Context, email string, id uuid.UUID) (*AppointmentView, error) {
	user, err := s.caller(ctx, email)
	if err != nil {
		return nil, err
	}

	appointment, err := s.ledger.Cancel(ctx, id, user)
	if err != nil {
		return nil, err
	}
	view := NewAppointmentView(appointment, user, nil)
	return &view, nil
}

// NewAppointmentView projects an appointment. Loaded relations win over
// the fallbacks.
func NewAppointmentView(a *model.Appointment, user *model.User, doctor *model.Doctor) AppointmentView {
	if a.User != nil {
		user = a.User
	}
	if a.Doctor != nil {
		doctor = a.Doctor
	}

	view := AppointmentView{
		ID:        a.ID,
		User:      UserSummary{ID: a.UserID},
		Doctor:    DoctorSummary{ID: a.DoctorID},
		Date:      a.Date,
		Time:      a.Time,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
	if user != nil {
		view.User.FirstName = user.FirstName
		view.User.LastName = user.LastName
		view.User.Email = user.Email
	}
	if doctor != nil {
		view.Doctor.Name = doctor.Name
		view.Doctor.Specialty = doctor.Specialty
		view.Doctor.Address = doctor.Address
		view.Doctor.Phone = doctor.Phone
	}
	return view
}
