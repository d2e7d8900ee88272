package models

import "time"

// PostLike is one row of the likes relation.
type PostLike struct {
	PostID    uint      `json:"post_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// PostDislike is one row of the dislikes relation.
type PostDislike struct {
	PostID    uint      `json:"post_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
