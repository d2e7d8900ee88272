package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/auth"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ContextKeyUser is where the access token claims are stored on the echo context.
const ContextKeyUser = "user"

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (*models.JwtCustomClaims, error)
}

// JWTAuthMiddleware checks for a valid access token and extracts user claims.
func JWTAuthMiddleware(parser AccessTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperror.NewAuthError("Authentication credentials were not provided.", nil)
			}
			claims, err := parseHeader(parser, authHeader)
			if err != nil {
				return err
			}
			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth lets anonymous requests through but still rejects a bad token.
func OptionalJWTAuth(parser AccessTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}
			claims, err := parseHeader(parser, authHeader)
			if err != nil {
				return err
			}
			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

func parseHeader(parser AccessTokenParser, authHeader string) (*models.JwtCustomClaims, error) {
	// Expecting "Bearer <token>"
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, apperror.NewAuthError("Invalid Authorization header format", nil)
	}

	claims, err := parser.ParseAccess(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrWrongTokenType) {
			return nil, apperror.NewAuthError("Token has wrong type", err)
		}
		return nil, apperror.NewAuthError("Given token not valid for any token type", err)
	}
	return claims, nil
}

// CurrentUserID returns the authenticated caller, if any.
func CurrentUserID(c echo.Context) (uint, bool) {
	claims, ok := c.Get(ContextKeyUser).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0, false
	}
	return claims.UserID, true
}
