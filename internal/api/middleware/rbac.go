package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// RBAC enforces role-based access control.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := roleSet(allowedRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// SelfOrRoles lets staff roles through, and customers only when the path
// parameter param names their own account.
func SelfOrRoles(param string, staffRoles ...string) echo.MiddlewareFunc {
	allowed := roleSet(staffRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; ok {
				return next(c)
			}
			if role != domain.RoleUser {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			claims, _ := c.Get(ClaimsKey).(ports.Claims)
			id, err := strconv.ParseInt(c.Param(param), 10, 64)
			if err != nil || id != claims.ActorID {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

func roleSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}
