package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medibook/internal/service"
)

// AdminHandler serves the read-only administrative views.
type AdminHandler struct {
	svc service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ListAppointments godoc
// @Summary List all appointments
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.AdminAppointmentView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/appointments [get]
func (h *AdminHandler) ListAppointments(c echo.Context) error {
	views, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, views)
}

// Stats godoc
// @Summary System statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Stats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
