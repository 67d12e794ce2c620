package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account row in the `users` table.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	FullName       *string   `db:"full_name"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	IsSuperuser    bool      `db:"is_superuser"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// UserPublic is the only shape of a user that leaves the service.
type UserPublic struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

type UsersPublic struct {
	Data  []UserPublic `json:"data"`
	Count int          `json:"count"`
}

func (u *User) Public() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

// UserCreate is the superuser-side create payload. Flags default to
// active, non-superuser when omitted.
type UserCreate struct {
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=40"`
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// UserRegister is the public sign-up payload.
type UserRegister struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=40"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=40"`
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

type UserUpdateMe struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type UpdatePassword struct {
	CurrentPassword string `json:"current_password" validate:"required,min=8,max=40"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=40"`
}

type NewPassword struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=40"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func BearerToken(tok string) Token { return Token{AccessToken: tok, TokenType: "bearer"} }
