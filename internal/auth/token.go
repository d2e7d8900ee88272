// Package auth issues and validates the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "nano-social"
)

var (
	ErrInvalidToken   = errors.New("token is invalid or expired")
	ErrWrongTokenType = errors.New("token has wrong type")
)

// TokenIssuer signs HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair creates a fresh access and refresh token for the user.
func (i *TokenIssuer) IssuePair(userID uint) (*models.TokenPair, error) {
	access, err := i.sign(userID, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := i.sign(userID, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (i *TokenIssuer) Refresh(refreshToken string) (*models.AccessToken, error) {
	claims, err := i.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	access, err := i.sign(claims.UserID, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &models.AccessToken{Access: access}, nil
}

// ParseAccess validates an access token and returns its claims.
func (i *TokenIssuer) ParseAccess(accessToken string) (*models.JwtCustomClaims, error) {
	return i.parse(accessToken, TokenTypeAccess)
}

func (i *TokenIssuer) sign(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &models.JwtCustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *TokenIssuer) parse(tokenString, wantType string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
