package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"` // Ensure email is unique across all users
	Password       string     `json:"-" gorm:"not null"`                 // bcrypt hash, never serialized
	FirstName      string     `json:"first_name" gorm:"size:150"`
	LastName       string     `json:"last_name" gorm:"size:150"`
	DateOfBirth    *time.Time `json:"-" gorm:"type:date"`
	ProfilePicture string     `json:"profile_picture"`
	FirebaseUID    *string    `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID, NULL for local accounts
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

// UserProfile is the public projection of a user, without credentials.
type UserProfile struct {
	ID             uint    `json:"id"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DateOfBirth    *string `json:"date_of_birth"`
	ProfilePicture *string `json:"profile_picture"`
}

// ToProfile projects the user for API responses.
func (u *User) ToProfile() UserProfile {
	p := UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(DateLayout)
		p.DateOfBirth = &dob
	}
	if u.ProfilePicture != "" {
		pic := u.ProfilePicture
		p.ProfilePicture = &pic
	}
	return p
}

type SignupRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email,max=254"`
	Password    string `json:"password" form:"password" validate:"required,password"`
	FirstName   string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" form:"last_name" validate:"max=150"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// UpdateProfileRequest holds the editable profile fields. Email is read-only:
// it is accepted in the payload and ignored.
type UpdateProfileRequest struct {
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// TokenPair is returned by login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessToken is returned by the refresh endpoint.
type AccessToken struct {
	Access string `json:"access"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}
