package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// StateSource exposes the current session tuple.
type StateSource interface {
	State() domain.SessionState
}

// RequireSession rejects requests while nobody is logged in and injects the
// identity's id and role into the context.
func RequireSession(src StateSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := src.State()
			if !st.IsAuthenticated || st.Identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAuthRequired.Error())
			}

			userID := st.Identity.ID
			if userID == "" {
				userID = st.Identity.Email
			}
			c.Set("user_id", userID)
			c.Set("email", st.Identity.Email)
			c.Set("role", st.Identity.Role)

			return next(c)
		}
	}
}
