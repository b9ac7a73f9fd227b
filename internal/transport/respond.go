package transport

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/logging"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

func OK(c echo.Context, message string, result any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Result: result})
}

// Fail maps a failure kind onto a status code and envelope. Auth
// failures answer 400, not 401; the envelope message carries the
// failure kind. Unknown errors are logged and answered generically.
func Fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		return failWith(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked):
		return failWith(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrValidation):
		return failWith(c, http.StatusBadRequest, err.Error())
	default:
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return failWith(c, http.StatusBadRequest, firstMessage(verrs))
		}
		logging.FromContext(c.Request().Context()).
			Error("unexpected error", "error", err)
		return failWith(c, http.StatusInternalServerError, "serverError")
	}
}

// FailStatus writes a failure envelope with an explicit status, for
// request-shape problems that are not part of the auth taxonomy.
func FailStatus(c echo.Context, status int, message string) error {
	return failWith(c, status, message)
}

func failWith(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

func firstMessage(verrs validation.Errors) string {
	for field, err := range verrs {
		return field + ": " + err.Error()
	}
	return "validationError"
}
