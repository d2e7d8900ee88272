package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/media"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	userRepository    repositories.UserRepository
	accountRepository repositories.AccountRepository
	media             media.Store
}

func NewUserHandler(userRepo repositories.UserRepository, accountRepo repositories.AccountRepository, store media.Store) *UserHandler {
	return &UserHandler{
		userRepository:    userRepo,
		accountRepository: accountRepo,
		media:             store,
	}
}

// RegisterUserRoutes registers the profile routes, all authenticated.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/profile", h.GetProfile, requireAuth)
	g.PUT("/profile", h.UpdateProfile, requireAuth)
	g.PATCH("/profile", h.UpdateProfile, requireAuth)
	g.DELETE("/profile", h.DeleteProfile, requireAuth)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.ToProfile())
}

// UpdateProfile applies the fields present in the request. PUT and PATCH
// behave the same. Email is read-only and ignored.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)

	var req models.UpdateProfileRequest
	if err := bindProfileUpdate(c, &req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
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
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate("date_of_birth", *req.DateOfBirth)
		if err != nil {
			return err
		}
		user.DateOfBirth = dob
	}

	oldPicture := ""
	if picture != nil {
		url, err := h.media.Save(ctx, media.FolderProfilePictures, picture)
		if err != nil {
			return err
		}
		oldPicture = user.ProfilePicture
		user.ProfilePicture = url
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		if picture != nil {
			discardMedia(ctx, h.media, user.ProfilePicture)
		}
		return err
	}
	discardMedia(ctx, h.media, oldPicture)

	return c.JSON(http.StatusOK, user.ToProfile())
}

// DeleteProfile deletes the caller's account, their posts and their
// reactions on other posts.
func (h *UserHandler) DeleteProfile(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request().Context()

	acct, err := h.accountRepository.DeleteAccount(ctx, userID)
	if err != nil {
		return err
	}

	for _, p := range acct.Posts {
		discardMedia(ctx, h.media, p.Image)
	}
	discardMedia(ctx, h.media, acct.User.ProfilePicture)

	logger.WithSource("users").WithField("user_id", userID).WithField("posts", len(acct.Posts)).Info("account deleted")
	return c.NoContent(http.StatusNoContent)
}

// bindProfileUpdate fills only the fields the client sent, so absent fields
// stay nil for both JSON and multipart bodies.
func bindProfileUpdate(c echo.Context, req *models.UpdateProfileRequest) error {
	if !isMultipart(c) {
		return c.Bind(req)
	}
	form, err := c.FormParams()
	if err != nil {
		return err
	}
	fields := map[string]**string{
		"first_name":    &req.FirstName,
		"last_name":     &req.LastName,
		"date_of_birth": &req.DateOfBirth,
	}
	for key, dst := range fields {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			v := vals[0]
			*dst = &v
		}
	}
	return nil
}
