package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/reaction"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores likes and dislikes.
type ReactionRepository interface {
	// Toggle applies the action for the user on the post in one atomic step and
	// returns the post's reaction summary afterwards.
	Toggle(ctx context.Context, postID, userID uint, action reaction.Action) (*reaction.Summary, error)
	// Summaries returns counts and the viewer's state for every given post.
	// viewerID 0 means an anonymous viewer.
	Summaries(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]reaction.Summary, error)
}

// PostgresReactionRepository implements ReactionRepository with two join tables.
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

func (r *PostgresReactionRepository) Toggle(ctx context.Context, postID, userID uint, action reaction.Action) (*reaction.Summary, error) {
	var summary reaction.Summary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent toggles on one post serialize on this row lock.
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, postID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		liked, err := hasRow(tx, &models.PostLike{}, postID, userID)
		if err != nil {
			return err
		}
		disliked, err := hasRow(tx, &models.PostDislike{}, postID, userID)
		if err != nil {
			return err
		}

		next := reaction.Apply(reaction.StateOf(liked, disliked), action)

		if liked && next != reaction.Liked {
			if err := deleteRow(tx, &models.PostLike{}, postID, userID); err != nil {
				return err
			}
		}
		if disliked && next != reaction.Disliked {
			if err := deleteRow(tx, &models.PostDislike{}, postID, userID); err != nil {
				return err
			}
		}
		if next == reaction.Liked && !liked {
			if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		if next == reaction.Disliked && !disliked {
			if err := tx.Create(&models.PostDislike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&summary.LikesCount).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PostDislike{}).Where("post_id = ?", postID).Count(&summary.DislikesCount).Error; err != nil {
			return err
		}
		summary.Viewer = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

type postCount struct {
	PostID uint
	Total  int64
}

func (r *PostgresReactionRepository) Summaries(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]reaction.Summary, error) {
	out := make(map[uint]reaction.Summary, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	for _, id := range postIDs {
		out[id] = reaction.Summary{Viewer: reaction.Neutral}
	}

	db := r.db.WithContext(ctx)

	var likes, dislikes []postCount
	if err := db.Model(&models.PostLike{}).Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).Group("post_id").Scan(&likes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PostDislike{}).Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).Group("post_id").Scan(&dislikes).Error; err != nil {
		return nil, err
	}
	for _, c := range likes {
		s := out[c.PostID]
		s.LikesCount = c.Total
		out[c.PostID] = s
	}
	for _, c := range dislikes {
		s := out[c.PostID]
		s.DislikesCount = c.Total
		out[c.PostID] = s
	}

	if viewerID == 0 {
		return out, nil
	}

	var likedIDs, dislikedIDs []uint
	if err := db.Model(&models.PostLike{}).Where("post_id IN ? AND user_id = ?", postIDs, viewerID).
		Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PostDislike{}).Where("post_id IN ? AND user_id = ?", postIDs, viewerID).
		Pluck("post_id", &dislikedIDs).Error; err != nil {
		return nil, err
	}
	liked := toSet(likedIDs)
	disliked := toSet(dislikedIDs)
	for id, s := range out {
		s.Viewer = reaction.StateOf(liked[id], disliked[id])
		out[id] = s
	}
	return out, nil
}

func hasRow(tx *gorm.DB, model interface{}, postID, userID uint) (bool, error) {
	var n int64
	err := tx.Model(model).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error
	return n > 0, err
}

func deleteRow(tx *gorm.DB, model interface{}, postID, userID uint) error {
	return tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(model).Error
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
