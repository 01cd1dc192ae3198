package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a domain error for the outward status mapping.
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindConflict       Kind = "CONFLICT"
	KindForbidden      Kind = "FORBIDDEN"
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindInternal       Kind = "INTERNAL"
)

// Error is a domain error tagged with a Kind and a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a new domain error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// InvalidRequest creates an INVALID_REQUEST error with a custom message.
func InvalidRequest(message string) *Error {
	return New(KindInvalidRequest, "INVALID_REQUEST", message)
}

var (
	// ErrDoctorNotFound is returned when a doctor is not found.
	ErrDoctorNotFound = New(KindNotFound, "DOCTOR_NOT_FOUND", "doctor not found")
	// ErrAppointmentNotFound is returned when an appointment is not found.
	ErrAppointmentNotFound = New(KindNotFound, "APPOINTMENT_NOT_FOUND", "appointment not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = New(KindNotFound, "USER_NOT_FOUND", "user not found")

	// ErrPastDate is returned when booking a date before today.
	ErrPastDate = New(KindInvalidRequest, "PAST_DATE", "cannot book in the past")
	// ErrInvalidLimit is returned when a result limit is not positive.
	ErrInvalidLimit = New(KindInvalidRequest, "INVALID_LIMIT", "limit must be a positive integer")
	// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
	ErrInvalidCoordinates = New(KindInvalidRequest, "INVALID_COORDINATES", "latitude must be within [-90, 90] and longitude within [-180, 180]")

	// ErrSlotTaken is returned when the (doctor, date, time) slot already has a booking.
	ErrSlotTaken = New(KindConflict, "SLOT_TAKEN", "slot already booked")
	// ErrAlreadyCancelled is returned when cancelling a cancelled appointment.
	ErrAlreadyCancelled = New(KindConflict, "ALREADY_CANCELLED", "already cancelled")
	// ErrNotCancellable is returned when cancelling an appointment that is no longer booked.
	ErrNotCancellable = New(KindConflict, "NOT_CANCELLABLE", "only booked appointments can be cancelled")
	// ErrUserAlreadyExists is returned when registering an existing email.
	ErrUserAlreadyExists = New(KindConflict, "USER_ALREADY_EXISTS", "user already exists")

	// ErrNotOwner is returned when cancelling another user's appointment.
	ErrNotOwner = New(KindForbidden, "NOT_OWNER", "can only cancel own appointments")
	// ErrAccessDenied is returned when viewing another user's appointment.
	ErrAccessDenied = New(KindForbidden, "ACCESS_DENIED", "can only view own appointments")
	// ErrAdminRequired is returned when a non-admin calls an admin operation.
	ErrAdminRequired = New(KindForbidden, "ADMIN_REQUIRED", "admin role required")

	// ErrUnauthorized is returned when the caller identity is missing or unknown.
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "missing or invalid caller identity")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = New(KindUnauthorized, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token")
	// ErrInvalidGoogleToken is returned when a Google ID token fails verification.
	ErrInvalidGoogleToken = New(KindUnauthorized, "INVALID_GOOGLE_TOKEN", "invalid Google ID token")
	// ErrGoogleSignInDisabled is returned when no Google client ID is configured.
	ErrGoogleSignInDisabled = New(KindNotFound, "GOOGLE_SIGNIN_DISABLED", "Google sign-in is not enabled")
)

// KindOf returns the Kind carried by err, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// Echo converts the error into an echo.HTTPError whose message is the
// ErrorResponse body.
func (e *HTTPError) Echo() *echo.HTTPError {
	return echo.NewHTTPError(e.StatusCode, e.ToErrorResponse())
}

var kindStatus = map[Kind]int{
	KindNotFound:       http.StatusNotFound,
	KindInvalidRequest: http.StatusBadRequest,
	KindConflict:       http.StatusConflict,
	KindForbidden:      http.StatusForbidden,
	KindUnauthorized:   http.StatusUnauthorized,
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Anything that is not a domain error becomes a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if errors.As(err, &e) {
		if status, ok := kindStatus[e.Kind]; ok {
			return NewHTTPError(status, e.Message, e.Code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// ToEcho maps err for the HTTP layer and keeps err as the internal cause,
// so request logging sees the real failure while the client does not.
func ToEcho(err error) *echo.HTTPError {
	return MapErrorToHTTP(err).Echo().SetInternal(err)
}
