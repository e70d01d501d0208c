package entity

import (
	"time"
)

// Role classifies a community member. Guardians mentor; protectees are the
// people the community looks after.
type Role string

const (
	RoleGuardian  Role = "guardian"
	RoleProtectee Role = "protectee"
)

// Valid reports whether r is one of the two accepted roles.
func (r Role) Valid() bool {
	return r == RoleGuardian || r == RoleProtectee
}

// PointsPerLevel is the number of points required per level step.
const PointsPerLevel = 100

// LevelForPoints derives a member's level from their points total.
// Floor division is used, so negative totals produce level 0 and below.
func LevelForPoints(points int) int {
	q := points / PointsPerLevel
	if points < 0 && points%PointsPerLevel != 0 {
		q-- // floor, not truncate
	}
	return q + 1
}

// User is the aggregate root for the member domain.
// PasswordHash holds a bcrypt hash and must never appear in API responses.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Avatar       string // id into the avatar catalog
	AvatarURL    string // optional custom uploaded image
	Points       int
	Level        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the outward-facing view of a user.
type PublicUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Avatar    string `json:"avatar"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Points    int    `json:"points"`
	Level     int    `json:"level"`
}

// Public returns the view of u safe to hand to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		AvatarURL: u.AvatarURL,
		Points:    u.Points,
		Level:     u.Level,
	}
}

// LeaderboardEntry is the trimmed view used for rankings. Email and id are
// deliberately absent.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}
