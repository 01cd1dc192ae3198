package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medibook/internal/errors"
	"medibook/internal/service"
)

// DoctorHandler serves the public doctor directory.
type DoctorHandler struct {
	svc service.DoctorService
}

// NewDoctorHandler creates a new doctor handler.
func NewDoctorHandler(svc service.DoctorService) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

// ListDoctors godoc
// @Summary List doctors
// @Tags doctors
// @Produce json
// @Success 200 {array} model.Doctor
// @Failure 500 {object} errors.ErrorResponse
// @Router /doctors [get]
func (h *DoctorHandler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.GetAll(c.Request().Context())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

// GetDoctor godoc
// @Summary Get doctor by id
// @Tags doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} model.Doctor
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	doctor, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, doctor)
}

// SearchDoctors godoc
// @Summary Search doctors by specialty
// @Description Case-insensitive substring match. A blank specialty lists every doctor.
// @Tags doctors
// @Produce json
// @Param specialty query string false "Specialty"
// @Success 200 {array} model.Doctor
// @Failure 500 {object} errors.ErrorResponse
// @Router /doctors/search [get]
func (h *DoctorHandler) SearchDoctors(c echo.Context) error {
	doctors, err := h.svc.SearchBySpecialty(c.Request().Context(), c.QueryParam("specialty"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

// NearbyDoctors godoc
// @Summary Doctors nearest to a point
// @Tags doctors
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param limit query int false "Maximum results" default(10)
// @Success 200 {array} service.NearbyDoctor
// @Failure 400 {object} errors.ErrorResponse
// @Router /doctors/nearby [get]
func (h *DoctorHandler) NearbyDoctors(c echo.Context) error {
	var (
		lat, lon float64
		limit    = service.DefaultNearbyLimit
	)
	err := echo.QueryParamsBinder(c).
		MustFloat64("latitude", &lat).
		MustFloat64("longitude", &lon).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return handleError(errors.InvalidRequest("latitude and longitude are required numbers; limit must be an integer"))
	}

	doctors, err := h.svc.Nearby(c.Request().Context(), lat, lon, limit)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}
