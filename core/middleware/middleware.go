package middleware

import (
	"net/http"
	"strings"

	"chatcal-api/core/constants"
	"chatcal-api/core/controller"
	"chatcal-api/core/errors"
	"chatcal-api/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// RequireAuth validates a Bearer JWT signed with the deployment's admin
// secret and stores its claims in the request context.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return controller.NewErrorResponse(http.StatusUnauthorized,
				errors.ErrMissingAuthorizationHeader, "missing Authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return controller.NewErrorResponse(http.StatusUnauthorized,
				errors.ErrInvalidTokenFormat, "expected Bearer token")
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(m.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			code := errors.ErrUnauthorized
			if err == jwt.ErrTokenExpired {
				code = errors.ErrTokenExpired
			}
			return controller.NewErrorResponse(http.StatusUnauthorized, code, "invalid token")
		}

		c.Set(constants.ContextTokenData, token.Claims)
		return next(c)
	}
}

// RequestID attaches a short request id to the response for log correlation.
func (m *Middleware) RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = utils.GenerateID()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}
