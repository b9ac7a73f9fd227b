package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/transport"
)

const (
	ContextUser     = "user"
	ContextIdentity = "identity"
)

type Auth struct {
	Authenticator *auth.Authenticator
}

// RequireLocal runs the credential strategy against the request body
// and stores the resolved user for the login handler.
func (m *Auth) RequireLocal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Account  string `json:"account"`
			Password string `json:"password"`
		}
		if err := c.Bind(&req); err != nil {
			return transport.Fail(c, auth.ErrBadCredentials)
		}

		user, err := m.Authenticator.Local(c.Request().Context(), req.Account, req.Password)
		if err != nil {
			return transport.Fail(c, err)
		}

		c.Set(ContextUser, user)
		return next(c)
	}
}

// RequireToken runs the token strategy against the Authorization header
// and stores the resolved identity for the downstream handler.
func (m *Auth) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := m.Authenticator.Bearer(
			c.Request().Context(),
			c.Request().Header.Get(echo.HeaderAuthorization),
			c.Request().URL.Path,
		)
		if err != nil {
			return transport.Fail(c, err)
		}

		c.Set(ContextIdentity, identity)
		return next(c)
	}
}

func UserFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(ContextIdentity).(*auth.Identity)
	return id
}
