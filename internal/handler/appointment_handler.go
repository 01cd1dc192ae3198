package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/service"
)

// AppointmentHandler exposes the booking operations to authenticated users.
type AppointmentHandler struct {
	svc service.BookingService
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(svc service.BookingService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// CreateAppointmentRequest is the booking payload.
type CreateAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required" example:"0b6f4f5e-3a8e-4c51-9d1a-1f0c6a0d0001"`
	Date     string `json:"date" validate:"required" example:"2099-01-01"`
	Time     string `json:"time" validate:"required" example:"10:00"`
}

func (r CreateAppointmentRequest) input() (service.CreateAppointmentInput, error) {
	doctorID, err := uuid.Parse(r.DoctorID)
	if err != nil {
		return service.CreateAppointmentInput{}, errors.InvalidRequest("doctor_id must be a UUID")
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return service.CreateAppointmentInput{}, errors.InvalidRequest("date must be YYYY-MM-DD")
	}
	at, err := model.ParseTimeOfDay(r.Time)
	if err != nil {
		return service.CreateAppointmentInput{}, errors.InvalidRequest("time must be HH:MM")
	}
	return service.CreateAppointmentInput{DoctorID: doctorID, Date: date, Time: at}, nil
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAppointmentRequest true "Slot to book"
// @Success 201 {object} service.AppointmentView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(c echo.Context) error {
	email, err := callerEmail(c)
	if err != nil {
		return err
	}
	var req CreateAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return handleError(err)
	}

	view, err := h.svc.Create(c.Request().Context(), email, in)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// ListAppointments godoc
// @Summary List the caller's appointments
// @Description History is newest first; with active=true only booked appointments, soonest first.
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only booked appointments"
// @Success 200 {array} service.AppointmentView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(c echo.Context) error {
	activeOnly := false
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return handleError(errors.InvalidRequest("active must be a boolean"))
		}
		activeOnly = b
	}
	return h.list(c, activeOnly)
}

// ActiveAppointments godoc
// @Summary List the caller's upcoming booked appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.AppointmentView
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointments/active [get]
func (h *AppointmentHandler) ActiveAppointments(c echo.Context) error {
	return h.list(c, true)
}

func (h *AppointmentHandler) list(c echo.Context, activeOnly bool) error {
	email, err := callerEmail(c)
	if err != nil {
		return err
	}
	views, err := h.svc.List(c.Request().Context(), email, activeOnly)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, views)
}

// GetAppointment godoc
// @Summary Get one of the caller's appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} service.AppointmentView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(c echo.Context) error {
	email, err := callerEmail(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Get(c.Request().Context(), email, id)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// CancelAppointment godoc
// @Summary Cancel one of the caller's appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} service.AppointmentView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /appointments/{id}/cancel [put]
func (h *AppointmentHandler) CancelAppointment(c echo.Context) error {
	email, err := callerEmail(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Cancel(c.Request().Context(), email, id)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, view)
}
