package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"medibook/internal/model"
	"medibook/internal/repository"
)

// Stats summarizes system activity for administrators.
type Stats struct {
	TotalUsers          int64 `json:"total_users"`
	TotalDoctors        int64 `json:"total_doctors"`
	TotalAppointments   int64 `json:"total_appointments"`
	PendingAppointments int64 `json:"pending_appointments"`
}

// AdminAppointmentView is the flattened appointment row shown to admins.
type AdminAppointmentView struct {
	ID              uuid.UUID               `json:"id"`
	PatientName     string                  `json:"patient_name"`
	PatientEmail    string                  `json:"patient_email"`
	DoctorName      string                  `json:"doctor_name"`
	DoctorSpecialty string                  `json:"doctor_specialty"`
	Date            model.Date              `json:"date" swaggertype:"string" example:"2099-01-01"`
	Time            model.TimeOfDay         `json:"time" swaggertype:"string" example:"10:00"`
	Status          model.AppointmentStatus `json:"status"`
	CreatedAt       time.Time               `json:"created_at"`
}

// AdminService serves the read-only administrative views.
type AdminService interface {
	ListAppointments(ctx context.Context) ([]AdminAppointmentView, error)
	Stats(ctx context.Context) (*Stats, error)
}

type adminService struct {
	users        repository.UserRepository
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
}

// NewAdminService creates a new admin service.
func NewAdminService(users repository.UserRepository, doctors repository.DoctorRepository, appointments repository.AppointmentRepository) AdminService {
	return &adminService{
		users:        users,
		doctors:      doctors,
		appointments: appointments,
	}
}

func (s *adminService) ListAppointments(ctx context.Context) ([]AdminAppointmentView, error) {
	appointments, err := s.appointments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	views := make([]AdminAppointmentView, 0, len(appointments))
	for _, a := range appointments {
		v := AdminAppointmentView{
			ID:        a.ID,
			Date:      a.Date,
			Time:      a.Time,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
		}
		if a.User != nil {
			v.PatientName = a.User.FullName()
			v.PatientEmail = a.User.Email
		}
		if a.Doctor != nil {
			v.DoctorName = a.Doctor.Name
			v.DoctorSpecialty = a.Doctor.Specialty
		}
		views = append(views, v)
	}
	return views, nil
}

// Stats runs the four counts concurrently.
func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalDoctors, err = s.doctors.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAppointments, err = s.appointments.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingAppointments, err = s.appointments.CountByStatus(ctx, model.StatusBooked)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return &stats, nil
}
