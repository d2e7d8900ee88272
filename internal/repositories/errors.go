package repositories

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrDuplicateEmail = errors.New("email already registered")
)
