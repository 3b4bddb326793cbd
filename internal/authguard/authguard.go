// Package authguard verifies staff access tokens minted by the external
// auth service. It only checks signatures and expiry; user and session
// management live outside this system.
package authguard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const staffKey = "staff"

// Middleware rejects requests without a valid HS256 bearer token. The
// subject claim is stored on the echo context under "staff".
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := extractToken(c)
			if err != nil {
				return err
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}
			if sub, _ := claims["sub"].(string); sub != "" {
				c.Set(staffKey, sub)
			}
			return next(c)
		}
	}
}

// Staff returns the authenticated staff subject, if any.
func Staff(c echo.Context) string {
	if v, ok := c.Get(staffKey).(string); ok {
		return v
	}
	return ""
}

func extractToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer "), nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
	}
	cookie, err := c.Cookie("accessToken")
	if err != nil || cookie.Value == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	return cookie.Value, nil
}
