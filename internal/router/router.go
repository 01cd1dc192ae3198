package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"medibook/docs"
	"medibook/internal/auth"
	"medibook/internal/config"
	apperrors "medibook/internal/errors"
	"medibook/internal/handler"
	mw "medibook/internal/middleware"
	"medibook/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Doctor      *handler.DoctorHandler
	Appointment *handler.AppointmentHandler
	Admin       *handler.AdminHandler
	Seed        *handler.SeedHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger zerolog.Logger,
	limiter *mw.RateLimiter,
	identity service.IdentityProvider,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(mw.Logger(logger))
	e.Use(mw.Recovery(logger))

	e.Validator = handler.NewValidator()

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register, mw.RateLimit(limiter))
	authGroup.POST("/login", h.Auth.Login, mw.RateLimit(limiter))
	authGroup.POST("/google", h.Auth.GoogleLogin, mw.RateLimit(limiter))
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	api.GET("/doctors", h.Doctor.ListDoctors)
	api.GET("/doctors/search", h.Doctor.SearchDoctors)
	api.GET("/doctors/nearby", h.Doctor.NearbyDoctors)
	api.GET("/doctors/:id", h.Doctor.GetDoctor)

	// Secured routes (require JWT authentication)
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(cfg.JWTSecret),
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: auth.NewClaims,
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.ToEcho(apperrors.ErrUnauthorized).SetInternal(err)
		},
	})

	me := api.Group("/auth", jwtMiddleware)
	me.GET("/me", h.User.Me)
	me.PUT("/location", h.User.UpdateLocation)
	me.PUT("/profile", h.User.UpdateProfile)

	appointments := api.Group("/appointments", jwtMiddleware)
	appointments.POST("", h.Appointment.CreateAppointment)
	appointments.GET("", h.Appointment.ListAppointments)
	appointments.GET("/active", h.Appointment.ActiveAppointments)
	appointments.GET("/:id", h.Appointment.GetAppointment)
	appointments.PUT("/:id/cancel", h.Appointment.CancelAppointment)

	// Admin routes (require the stored ADMIN role)
	admin := api.Group("/admin", jwtMiddleware, mw.RequireAdmin(identity))
	admin.GET("/appointments", h.Admin.ListAppointments)
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/users", h.User.ListUsers)
	admin.PUT("/users/:id", h.User.UpdateUser)
	admin.DELETE("/users/:id", h.User.DeleteUser)
	admin.POST("/seed/doctors", h.Seed.SeedDoctors)
}
