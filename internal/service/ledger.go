package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/repository"
)

// Ledger owns appointment records and enforces the slot conflict rule
// and the BOOKED -> CANCELLED transition.
type Ledger interface {
	Book(ctx context.Context, user *model.User, doctor *model.Doctor, date model.Date, at model.TimeOfDay) (*model.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, caller *model.User) (*model.Appointment, error)
	ListForUser(ctx context.Context, user *model.User, activeOnly bool) ([]model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID, caller *model.User) (*model.Appointment, error)
}

type ledger struct {
	repo repository.AppointmentRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewLedger creates a booking ledger. now supplies the server wall clock.
func NewLedger(repo repository.AppointmentRepository, now func() time.Time, log zerolog.Logger) Ledger {
	if now == nil {
		now = time.Now
	}
	return &ledger{repo: repo, now: now, log: log}
}

// Book reserves a slot. The pre-check only avoids a doomed insert; the
// unique active-slot index decides concurrent races.
func (l *ledger) Book(ctx context.Context, user *model.User, doctor *model.Doctor, date model.Date, at model.TimeOfDay) (*model.Appointment, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if doctor == nil {
		return nil, apperrors.ErrDoctorNotFound
	}

	now := l.now()
	if date.Before(model.DateOf(now)) {
		return nil, apperrors.ErrPastDate
	}

	existing, err := l.repo.FindBookedSlot(ctx, doctor.ID, date, at)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrSlotTaken
	}

	appointment := &model.Appointment{
		ID:         uuid.New(),
		UserID:     user.ID,
		DoctorID:   doctor.ID,
		Date:       date,
		Time:       at,
		Status:     model.StatusBooked,
		ActiveSlot: model.SlotMarker(),
		CreatedAt:  now,
	}
	if err := l.repo.Create(ctx, appointment); err != nil {
		if errors.Is(err, apperrors.ErrSlotTaken) {
			l.log.Info().
				Str("doctor_id", doctor.ID.String()).
				Str("date", date.String()).
				Str("time", at.String()).
				Msg("slot taken by concurrent booking")
		}
		return nil, err
	}

	appointment.User = user
	appointment.Doctor = doctor

	l.log.Info().
		Str("appointment_id", appointment.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("appointment booked")
	return appointment, nil
}

// Cancel checks status before ownership, so re-cancelling is a Conflict
// for every caller.
func (l *ledger) Cancel(ctx context.Context, id uuid.UUID, caller *model.User) (*model.Appointment, error) {
	if caller == nil {
		return nil, apperrors.ErrUnauthorized
	}

	appointment, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appointment.Status {
	case model.StatusBooked:
	case model.StatusCancelled:
		return nil, apperrors.ErrAlreadyCancelled
	default:
		return nil, apperrors.ErrNotCancellable
	}

	if !appointment.OwnedBy(caller) {
		return nil, apperrors.ErrNotOwner
	}

	if err := l.repo.MarkCancelled(ctx, id); err != nil {
		return nil, err
	}

	appointment.Status = model.StatusCancelled
	appointment.ActiveSlot = nil

	l.log.Info().
		Str("appointment_id", appointment.ID.String()).
		Str("user_id", caller.ID.String()).
		Msg("appointment cancelled")
	return appointment, nil
}

func (l *ledger) ListForUser(ctx context.Context, user *model.User, activeOnly bool) ([]model.Appointment, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}

	var (
		appointments []model.Appointment
		err          error
	)
	if activeOnly {
		appointments, err = l.repo.ListActiveByUser(ctx, user.ID)
	} else {
		appointments, err = l.repo.ListByUser(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	for i := range appointments {
		appointments[i].User = user
	}
	return appointments, nil
}

// Get returns an appointment to its owner or to an administrator.
func (l *ledger) Get(ctx context.Context, id uuid.UUID, caller *model.User) (*model.Appointment, error) {
	if caller == nil {
		return nil, apperrors.ErrUnauthorized
	}

	appointment, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.OwnedBy(caller) && !caller.IsAdmin() {
		return nil, apperrors.ErrAccessDenied
	}
	return appointment, nil
}
