package models

import (
	"time"
)

// Post is an immutable post. The author and creation time are set by the server.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AuthorID    uint      `json:"-" gorm:"not null;index"`
	Author      *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Image       string    `json:"image"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// IsAuthoredBy reports whether userID may delete the post.
func (p *Post) IsAuthoredBy(userID uint) bool {
	return p.AuthorID == userID
}

// CreatePostRequest defines the request body for creating a new post.
// The image arrives as a multipart file, not in this struct.
type CreatePostRequest struct {
	Description string `json:"description" form:"description" validate:"max=5000"`
}

// PostFilter narrows a post listing.
type PostFilter struct {
	AuthorID *uint
	Skip     int
	Limit    int
}
