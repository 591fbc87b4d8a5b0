package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Affiliation  *string   `json:"affiliation,omitempty"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
}

// Form fields come from the signup page; JSON bodies are accepted as well.
type SignUpRequest struct {
	Email           string `json:"email" form:"email" binding:"required,email"`
	FirstName       string `json:"firstName" form:"first_name" binding:"required,max=80"`
	LastName        string `json:"lastName" form:"last_name" binding:"required,max=80"`
	Affiliation     string `json:"affiliation" form:"affiliation" binding:"omitempty,max=120"`
	Password        string `json:"password" form:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" form:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type CreateParams struct {
	Email        string
	FirstName    string
	LastName     string
	Affiliation  *string
	PasswordHash string
}
