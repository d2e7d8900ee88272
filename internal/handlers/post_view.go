package handlers

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/reaction"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

// PostResponse is a post as seen by one requester. The last four fields are
// derived at read time and never stored.
type PostResponse struct {
	ID            uint               `json:"id"`
	User          models.UserProfile `json:"user"`
	Image         *string            `json:"image"`
	Description   string             `json:"description"`
	CreatedAt     time.Time          `json:"created_at"`
	LikesCount    int64              `json:"likes_count"`
	DislikesCount int64              `json:"dislikes_count"`
	IsLiked       bool               `json:"is_liked"`
	IsDisliked    bool               `json:"is_disliked"`
}

// ReactionResponse is returned by the like and dislike endpoints.
type ReactionResponse struct {
	PostID        uint           `json:"post_id"`
	State         reaction.State `json:"state"`
	IsLiked       bool           `json:"is_liked"`
	IsDisliked    bool           `json:"is_disliked"`
	LikesCount    int64          `json:"likes_count"`
	DislikesCount int64          `json:"dislikes_count"`
}

func newReactionResponse(postID uint, s *reaction.Summary) ReactionResponse {
	return ReactionResponse{
		PostID:        postID,
		State:         s.Viewer,
		IsLiked:       s.Viewer.IsLiked(),
		IsDisliked:    s.Viewer.IsDisliked(),
		LikesCount:    s.LikesCount,
		DislikesCount: s.DislikesCount,
	}
}

// postViewer projects posts for a requester with one batched author lookup and
// one batched reaction lookup per page.
type postViewer struct {
	users     repositories.UserRepository
	reactions repositories.ReactionRepository
}

// View projects posts for viewerID; 0 is an anonymous requester.
func (v *postViewer) View(ctx context.Context, posts []models.Post, viewerID uint) ([]PostResponse, error) {
	out := make([]PostResponse, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := v.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	summaries, err := v.reactions.Summaries(ctx, postIDs, viewerID)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			author = models.User{ID: p.AuthorID}
		}
		s := summaries[p.ID]
		resp := PostResponse{
			ID:            p.ID,
			User:          author.ToProfile(),
			Description:   p.Description,
			CreatedAt:     p.CreatedAt,
			LikesCount:    s.LikesCount,
			DislikesCount: s.DislikesCount,
			IsLiked:       s.Viewer.IsLiked(),
			IsDisliked:    s.Viewer.IsDisliked(),
		}
		if p.Image != "" {
			image := p.Image
			resp.Image = &image
		}
		out = append(out, resp)
	}
	return out, nil
}

func (v *postViewer) ViewOne(ctx context.Context, post *models.Post, viewerID uint) (*PostResponse, error) {
	views, err := v.View(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
