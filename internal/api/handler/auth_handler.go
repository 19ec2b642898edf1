package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/springshield/auth-service/internal/api/metrics"
	"github.com/springshield/auth-service/internal/core/domain"
	"github.com/springshield/auth-service/internal/core/ports"
)

const msgInvalidPayload = "invalid payload"

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	Role     string `json:"role" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new user account holding the requested role.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      plain
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {string}  string  "User registered successfully"
// @Failure      400   {string}  string  "User already exists | Role not found | validation message"
// @Failure      500   {string}  string  "internal server error"
// @Router       /api/users/v1/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.RegistrationInvalidPayload).Inc()
		return c.String(http.StatusBadRequest, msgInvalidPayload)
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.RegistrationInvalidPayload).Inc()
		return c.String(http.StatusBadRequest, err.Error())
	}

	msg, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
		if domain.IsValidationError(err) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.RegistrationCreated).Inc()
	return c.String(http.StatusCreated, msg)
}

// Login authenticates a user and returns a signed JWT as plain text.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      plain
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {string}  string  "JWT"
// @Failure      400   {string}  string  "validation message"
// @Failure      401   {string}  string  "Invalid credentials"
// @Failure      500   {string}  string  "internal server error"
// @Router       /api/users/v1/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.AuthenticationsTotal.WithLabelValues(metrics.AuthenticationInvalidPayload).Inc()
		return c.String(http.StatusBadRequest, msgInvalidPayload)
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthenticationsTotal.WithLabelValues(metrics.AuthenticationInvalidPayload).Inc()
		return c.String(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthenticationsTotal.WithLabelValues(metrics.AuthenticationInvalidCredentials).Inc()
			return c.String(http.StatusUnauthorized, err.Error())
		}
		metrics.AuthenticationsTotal.WithLabelValues(metrics.AuthenticationError).Inc()
		return err
	}

	metrics.AuthenticationsTotal.WithLabelValues(metrics.AuthenticationSuccess).Inc()
	return c.String(http.StatusOK, token)
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return metrics.RegistrationUserExists
	case errors.Is(err, domain.ErrRoleNotFound):
		return metrics.RegistrationRoleNotFound
	default:
		return metrics.RegistrationError
	}
}
