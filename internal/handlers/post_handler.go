package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/media"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// Listing page sizes.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	media          media.Store
	viewer         *postViewer
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, reactionRepo repositories.ReactionRepository, store media.Store) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		media:          store,
		viewer:         &postViewer{users: userRepo, reactions: reactionRepo},
	}
}

// RegisterPostRoutes registers post-related routes. Reads accept anonymous
// callers; writes require a token.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts, optionalAuth)
	g.POST("/posts", h.CreatePost, requireAuth)
	g.GET("/posts/:id", h.GetPost, optionalAuth)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth)
}

// CreatePost creates a new post owned by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	image, err := optionalFile(c, "image")
	if err != nil {
		return err
	}
	if image != nil {
		if err := media.ValidateImage("image", image); err != nil {
			return err
		}
	}

	ctx := c.Request().Context()
	// The token may outlive its account.
	if _, err := h.viewer.users.GetUserByID(ctx, userID); err != nil {
		return err
	}
	post := &models.Post{
		AuthorID:    userID,
		Description: req.Description,
	}
	if image != nil {
		url, err := h.media.Save(ctx, media.FolderPostImages, image)
		if err != nil {
			return err
		}
		post.Image = url
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		discardMedia(ctx, h.media, post.Image)
		return err
	}

	view, err := h.viewer.ViewOne(ctx, post, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	viewerID, _ := middleware.CurrentUserID(c)
	view, err := h.viewer.ViewOne(ctx, post, viewerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// GetPosts lists posts newest first, optionally only those of ?user_id.
func (h *PostHandler) GetPosts(c echo.Context) error {
	filter, err := parsePostFilter(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	posts, err := h.postRepository.ListPosts(ctx, filter)
	if err != nil {
		return err
	}

	viewerID, _ := middleware.CurrentUserID(c)
	views, err := h.viewer.View(ctx, posts, viewerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// DeletePost deletes a post. Only its author may do so.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, _ := middleware.CurrentUserID(c)
	postID, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsAuthoredBy(userID) {
		return apperror.NewForbiddenError("You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return err
	}
	discardMedia(ctx, h.media, post.Image)

	logger.WithSource("posts").WithField("post_id", postID).WithField("user_id", userID).Info("post deleted")
	return c.NoContent(http.StatusNoContent)
}

func parsePostFilter(c echo.Context) (models.PostFilter, error) {
	filter := models.PostFilter{Limit: DefaultPageSize}
	problems := map[string]string{}

	if raw := strings.TrimSpace(c.QueryParam("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			problems["user_id"] = "A valid integer is required."
		} else {
			authorID := uint(id)
			filter.AuthorID = &authorID
		}
	}
	if raw := c.QueryParam("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			problems["skip"] = "Ensure this value is a non-negative integer."
		} else {
			filter.Skip = skip
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			problems["limit"] = "Ensure this value is a positive integer."
		} else {
			filter.Limit = min(limit, MaxPageSize)
		}
	}

	if len(problems) > 0 {
		return filter, apperror.NewFieldErrors(problems)
	}
	return filter, nil
}
