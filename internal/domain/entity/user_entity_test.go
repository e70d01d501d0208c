package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitalguardian/backend/internal/domain/entity"
)

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{250, 3},
		{1000, 11},
		{-5, 0},
		{-100, 0},
		{-101, -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, entity.LevelForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, entity.RoleGuardian.Valid())
	assert.True(t, entity.RoleProtectee.Valid())
	assert.False(t, entity.Role("admin").Valid())
	assert.False(t, entity.Role("").Valid())
}

func TestAvatarCatalog(t *testing.T) {
	avatars := entity.Avatars()
	assert.Len(t, avatars, 12)
	assert.Equal(t, entity.DefaultAvatarID, avatars[0].ID)

	for _, a := range avatars {
		assert.True(t, entity.ValidAvatarID(a.ID))
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.Icon)
	}
	assert.False(t, entity.ValidAvatarID("avatar13"))
	assert.False(t, entity.ValidAvatarID(""))
}

func TestPublicViewOmitsPasswordHash(t *testing.T) {
	u := &entity.User{
		ID:           "u-1",
		Name:         "Ada",
		Email:        "ada@x.com",
		PasswordHash: "$2a$10$secret",
		Role:         entity.RoleGuardian,
		Avatar:       "avatar1",
		Points:       250,
		Level:        3,
	}
	b, err := json.Marshal(u.Public())
	assert.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.Contains(t, string(b), `"points":250`)
	assert.Contains(t, string(b), `"level":3`)
}
