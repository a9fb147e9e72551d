package repository

import (
	"context"

	"digilocker/internal/model"
)

// UserRepository stores accounts created from the sign-up screen.
type UserRepository interface {
	// Create inserts a user; a taken email yields ErrDuplicate.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByEmail returns the user registered with email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
