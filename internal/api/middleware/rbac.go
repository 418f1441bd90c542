package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// RBAC enforces role-based access control on the role set by RequireSession.
// Roles compare in normalized form, so "ROLE_CUSTOMER" satisfies "customer".
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[domain.NormalizeRole(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[domain.NormalizeRole(role)]; !ok || role == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
