package user

import (
	"errors"
	"time"
)

// ImageRef is the opaque handle handed back by the image store.
// We never interpret it, only persist and forward it.
type ImageRef struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Account struct {
	Username string    `json:"username"`
	Phone    string    `json:"phone,omitempty"`
	Avatar   *ImageRef `json:"avatar,omitempty"`
}

type User struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Account Account `json:"account"`
	// bearer credential, generated once at signup and never rotated
	Token     string    `json:"-"`
	Hash      string    `json:"-"`
	Salt      string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty"`
	// optional avatar source (data URL or remote URL); uploaded best-effort
	Avatar string `json:"avatar" binding:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
