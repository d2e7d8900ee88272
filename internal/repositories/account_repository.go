package repositories

import (
	"context"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeletedAccount is what an account deletion removed. Callers use it to
// discard the media files the rows pointed at.
type DeletedAccount struct {
	User  models.User
	Posts []models.Post
}

// AccountRepository removes a user together with their posts and reactions.
type AccountRepository interface {
	DeleteAccount(ctx context.Context, userID uint) (*DeletedAccount, error)
}

// PostgresAccountRepository deletes accounts whose posts live in PostgreSQL.
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// DeleteAccount deletes the user row in one transaction. Posts, and every
// reaction row by or on them, go with it through ON DELETE CASCADE.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, userID uint) (*DeletedAccount, error) {
	return deleteAccount(ctx, r.db, userID, func(tx *gorm.DB, acct *DeletedAccount) error {
		return tx.Where("author_id = ?", userID).Find(&acct.Posts).Error
	})
}

// MongoAccountRepository deletes accounts whose posts live in MongoDB.
type MongoAccountRepository struct {
	db        *gorm.DB
	posts     *MongoPostRepository
	reactions *MongoReactionRepository
}

func NewMongoAccountRepository(db *gorm.DB, posts *MongoPostRepository, reactions *MongoReactionRepository) *MongoAccountRepository {
	return &MongoAccountRepository{db: db, posts: posts, reactions: reactions}
}

// DeleteAccount clears the user's documents while the user row is locked and
// commits the row deletion last. A failed Mongo step rolls the user back; the
// Mongo steps are idempotent, so retrying a failed deletion completes it.
func (r *MongoAccountRepository) DeleteAccount(ctx context.Context, userID uint) (*DeletedAccount, error) {
	return deleteAccount(ctx, r.db, userID, func(_ *gorm.DB, acct *DeletedAccount) error {
		posts, err := r.posts.DeletePostsByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		acct.Posts = posts
		return r.reactions.DeleteUserReactions(ctx, userID)
	})
}

// deleteAccount locks the user row, runs cleanup and deletes the row in one
// transaction. The lock makes concurrent inserts that reference the user wait
// and then fail on the foreign key.
func deleteAccount(ctx context.Context, db *gorm.DB, userID uint, cleanup func(tx *gorm.DB, acct *DeletedAccount) error) (*DeletedAccount, error) {
	acct := &DeletedAccount{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&acct.User, userID).Error; err != nil {
			return userErr(err)
		}
		if err := cleanup(tx, acct); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}
