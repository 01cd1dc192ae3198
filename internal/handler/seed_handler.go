package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/seed"
	"medibook/internal/service"
)

const maxSeedBody = 1 << 20

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	doctorService service.DoctorService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(doctorService service.DoctorService) *SeedHandler {
	return &SeedHandler{doctorService: doctorService}
}

// SeedDoctorsResponse represents the seed response.
type SeedDoctorsResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"` // doctors added by this request
}

// SeedDoctors godoc
// @Summary Add missing doctors
// @Description Inserts the posted doctors, or the built-in set when the body is empty. Doctors whose id is already stored are left unchanged.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []seed.Record false "Doctors"
// @Success 200 {object} SeedDoctorsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/seed/doctors [post]
func (h *SeedHandler) SeedDoctors(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSeedBody))
	if err != nil {
		return handleError(errors.InvalidRequest("failed to read request body"))
	}

	var doctors []model.Doctor
	if len(bytes.TrimSpace(body)) == 0 {
		doctors, err = seed.Defaults()
		if err != nil {
			return handleError(err)
		}
	} else {
		doctors, err = seed.Load(bytes.NewReader(body))
		if err != nil {
			return handleError(errors.InvalidRequest(err.Error()))
		}
	}

	count, err := h.doctorService.Seed(c.Request().Context(), doctors)
	if err != nil {
		return handleError(err)
	}

	return c.JSON(http.StatusOK, SeedDoctorsResponse{
		Message: "doctors seeded successfully",
		Count:   count,
	})
}
