package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medibook/internal/auth"
	"medibook/internal/model"
	"medibook/internal/service"
)

const tokenTypeBearer = "Bearer"

// AuthHandler serves sign-up, sign-in and the refresh token lifecycle.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest is the self-registration payload. The role is always USER.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required" example:"Ada"`
	LastName  string `json:"last_name" validate:"required" example:"Lovelace"`
	Email     string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password  string `json:"password" validate:"required,min=6"`
	Phone     string `json:"phone" example:"+1 212 555 0100"`
}

func (r RegisterRequest) input() service.RegisterInput {
	return service.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Phone:     r.Phone,
	}
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries an ID token obtained from Google Sign-In.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// TokenRequest carries a refresh token for refresh and logout.
type TokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AccessTokenResponse is returned by refresh.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int    `json:"expires_in" example:"900"`
}

func newAccessTokenResponse(token string) AccessTokenResponse {
	return AccessTokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(auth.AccessTokenExpiry.Seconds()),
	}
}

// LoginResponse is an access and refresh token pair plus the signed-in user.
type LoginResponse struct {
	AccessTokenResponse
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.input())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusCreated, RegisterResponse{Message: "user registered successfully", User: user})
}

// Login godoc
// @Summary Exchange credentials for tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	access, refresh, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessTokenResponse: newAccessTokenResponse(access),
		RefreshToken:        refresh,
		User:                user,
	})
}

// GoogleLogin godoc
// @Summary Sign in with a Google ID token
// @Description Creates a USER account on first sign-in. Names default to "Google" and "User" when the token carries none.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "Google ID token"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	access, refresh, user, err := h.authService.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessTokenResponse: newAccessTokenResponse(access),
		RefreshToken:        refresh,
		User:                user,
	})
}

// Refresh godoc
// @Summary Issue a new access token
// @Description The new token carries the user's current role.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Refresh token"
// @Success 200 {object} AccessTokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	access, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, newAccessTokenResponse(access))
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}
