package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/reaction"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ReactionHandler toggles likes and dislikes on posts.
type ReactionHandler struct {
	reactionRepository repositories.ReactionRepository
	userRepository     repositories.UserRepository
}

func NewReactionHandler(reactionRepo repositories.ReactionRepository, userRepo repositories.UserRepository) *ReactionHandler {
	return &ReactionHandler{reactionRepository: reactionRepo, userRepository: userRepo}
}

// RegisterReactionRoutes registers the reaction routes, all authenticated.
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/posts/:id/like", h.LikePost, requireAuth)
	g.POST("/posts/:id/dislike", h.DislikePost, requireAuth)
}

func (h *ReactionHandler) LikePost(c echo.Context) error {
	return h.toggle(c, reaction.Like)
}

func (h *ReactionHandler) DislikePost(c echo.Context) error {
	return h.toggle(c, reaction.Dislike)
}

func (h *ReactionHandler) toggle(c echo.Context, action reaction.Action) error {
	userID, _ := middleware.CurrentUserID(c)
	postID, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, userID); err != nil {
		return err
	}
	summary, err := h.reactionRepository.Toggle(ctx, postID, userID, action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReactionResponse(postID, summary))
}
