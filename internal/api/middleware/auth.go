package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/core/ports"
)

// ClaimsKey is the echo context key holding the verified ports.Claims.
const ClaimsKey = "claims"

// Auth validates the bearer JWT, rejects revoked token ids and injects the
// claims into the echo context and the request context.
func Auth(jwtSecret string, revoker ports.TokenRevoker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			mc := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], mc, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims := claimsFrom(mc)
			if claims.Role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			if revoker != nil && claims.TokenID != "" {
				revoked, err := revoker.IsRevoked(c.Request().Context(), claims.TokenID)
				if err != nil {
					// Redis outage: keep serving rather than locking every operator out.
					log.Warn().Err(err).Str("jti", claims.TokenID).Msg("revocation check failed")
				} else if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			c.Set("username", claims.Username)
			c.Set("role", claims.Role)
			c.Set(ClaimsKey, claims)

			actor := claims.Username
			if actor == "" {
				actor = claims.Subject
			}
			c.SetRequest(c.Request().WithContext(ports.ContextWithActor(c.Request().Context(), actor)))

			return next(c)
		}
	}
}

func claimsFrom(mc jwt.MapClaims) ports.Claims {
	var out ports.Claims
	out.Subject, _ = mc["sub"].(string)
	out.Role, _ = mc["role"].(string)
	out.TokenID, _ = mc["jti"].(string)
	out.Username, _ = mc["username"].(string)
	// JSON numbers decode as float64.
	if uid, ok := mc["uid"].(float64); ok {
		out.ActorID = int64(uid)
	}
	return out
}
