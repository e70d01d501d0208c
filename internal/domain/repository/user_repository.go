package repository

import (
	"context"
	"errors"

	"github.com/digitalguardian/backend/internal/domain/entity"
)

// ErrNotFound is returned when a lookup matches no user.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a create collides with the unique email
// index. Concurrent signups with the same address race into this same error.
var ErrDuplicateEmail = errors.New("email already registered")

// ProfilePatch carries the mutable profile fields. Nil means leave unchanged.
type ProfilePatch struct {
	Name   *string
	Avatar *string
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*entity.User, error)
	SetAvatarURL(ctx context.Context, id, url string) (*entity.User, error)
	// AddPoints applies delta and recomputes level in a single statement so
	// concurrent adjustments never observe or persist an inconsistent pair.
	AddPoints(ctx context.Context, id string, delta int) (points, level int, err error)
	TopByPoints(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}
