package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"invoice-ledger/pkg/principal"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	principalKey = "auth.principal"
	clockSkew    = 2 * time.Minute
)

// Principal returns the authenticated caller, or "" on public routes.
func Principal(c echo.Context) string {
	p, _ := c.Get(principalKey).(string)
	return p
}

// SetPrincipal stores the caller on c. Used by JWTAuth and handler tests.
func SetPrincipal(c echo.Context, p string) { c.Set(principalKey, p) }

// JWTAuth accepts HS256 bearer tokens whose subject is the caller's address.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			who, err := ParseToken(secret, raw)
			if err != nil {
				c.Logger().Debugf("auth: %v", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			SetPrincipal(c, who)
			return next(c)
		}
	}
}

// ParseToken validates raw and returns its normalized subject.
func ParseToken(secret []byte, raw string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(clockSkew))
	if err != nil {
		return "", err
	}
	return principal.Normalize(claims.Subject)
}

// IssueToken signs a bearer token for sub valid for ttl from now.
func IssueToken(secret []byte, sub string, ttl time.Duration, now time.Time) (string, error) {
	who, err := principal.Normalize(sub)
	if err != nil {
		return "", err
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   who,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return tok.SignedString(secret)
}

func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
