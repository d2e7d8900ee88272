package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	// ListPosts returns posts newest first, ties broken by id.
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	posts := []models.Post{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost deletes the post; its reaction rows cascade.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
