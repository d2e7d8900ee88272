package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/auth"
	"github.com/anonto42/nano-social/backend/internal/media"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

const (
	msgEmailTaken     = "Email is already in use."
	msgBadCredentials = "No active account found with the given credentials"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client from the Firebase
// Admin SDK satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *auth.TokenIssuer
	media          media.Store
	firebaseAuth   IDTokenVerifier
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in which
// case Firebase login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, tokens *auth.TokenIssuer, store media.Store, firebaseAuth IDTokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		media:          store,
		firebaseAuth:   firebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/token/refresh", h.Refresh)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	dob, err := parseDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		return err
	}
	picture, err := optionalFile(c, "profile_picture")
	if err != nil {
		return err
	}
	if picture != nil {
		if err := media.ValidateImage("profile_picture", picture); err != nil {
			return err
		}
	}

	ctx := c.Request().Context()

	// Check if user with this email already exists
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return apperror.NewFieldError("email", msgEmailTaken)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperror.NewInternalError("Failed to hash password", err)
	}

	user := &models.User{
		Email:       req.Email,
		Password:    hashedPassword,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		DateOfBirth: dob,
	}
	if picture != nil {
		url, err := h.media.Save(ctx, media.FolderProfilePictures, picture)
		if err != nil {
			return err
		}
		user.ProfilePicture = url
	}

	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		discardMedia(ctx, h.media, user.ProfilePicture)
		// the unique index catches signups racing on one email
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return apperror.NewFieldError("email", msgEmailTaken)
		}
		return err
	}

	logger.WithSource("auth").WithField("user_id", user.ID).Info("user signed up")
	return c.JSON(http.StatusCreated, user.ToProfile())
}

// Login exchanges email and password for an access and a refresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperror.NewAuthError(msgBadCredentials, err)
		}
		return err
	}
	if user.Password == "" || !auth.CheckPassword(user.Password, req.Password) {
		return apperror.NewAuthError(msgBadCredentials, nil)
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return apperror.NewInternalError("Failed to generate token", err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh issues a new access token for a valid refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req models.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		return apperror.NewAuthError("Token is invalid or expired", err)
	}
	return c.JSON(http.StatusOK, access)
}

// FirebaseLogin handles Firebase ID token verification and issues local tokens.
// The local account is found by Firebase UID, then by email, and created when
// neither matches.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return apperror.NewAuthError("Invalid Firebase ID token", err)
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = normalizeEmail(email)
	displayName, _ := token.Claims["name"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrUserNotFound):
		user, err = h.linkFirebaseUser(ctx, firebaseUID, email, displayName)
		if err != nil {
			return err
		}
	default:
		return err
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		return apperror.NewInternalError("Failed to generate token", err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) linkFirebaseUser(ctx context.Context, firebaseUID, email, displayName string) (*models.User, error) {
	if email == "" {
		return nil, apperror.NewFieldError("id_token", "Firebase account has no email address.")
	}

	user, err := h.userRepository.GetUserByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = &firebaseUID
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	first, last, _ := strings.Cut(strings.TrimSpace(displayName), " ")
	user = &models.User{
		Email:       email,
		FirstName:   first,
		LastName:    strings.TrimSpace(last),
		FirebaseUID: &firebaseUID,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, apperror.NewFieldError("email", msgEmailTaken)
		}
		return nil, err
	}
	logger.WithSource("auth").WithField("user_id", user.ID).Info("user created from firebase login")
	return user, nil
}

// discardMedia removes an upload that no longer belongs to anything.
func discardMedia(ctx context.Context, store media.Store, url string) {
	if url == "" {
		return
	}
	if err := store.Delete(ctx, url); err != nil {
		logger.WithSource("media").WithError(err).WithField("url", url).Warn("failed to delete media")
	}
}

// parseDate parses an optional YYYY-MM-DD value. Empty means unset.
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return nil, apperror.NewFieldError(field, "Date has wrong format. Use YYYY-MM-DD.")
	}
	return &t, nil
}
