package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	userapp "github.com/digitalguardian/backend/internal/application"
	"github.com/digitalguardian/backend/internal/domain/entity"
	"github.com/digitalguardian/backend/internal/domain/repository"
	handlers "github.com/digitalguardian/backend/internal/interface/http"
	"github.com/digitalguardian/backend/internal/interface/middleware"
	"github.com/digitalguardian/backend/pkg/helpers"
	"github.com/digitalguardian/backend/pkg/validation"
)

// memRepo is an in-memory repository backing end-to-end handler tests.
type memRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*entity.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}}
}

func (r *memRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("u-%d", r.nextID)
	u.Level = entity.LevelForPoints(u.Points)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) UpdateProfile(ctx context.Context, id string, patch repository.ProfilePatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *memRepo) SetAvatarURL(ctx context.Context, id, url string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.AvatarURL = url
	cp := *u
	return &cp, nil
}

func (r *memRepo) AddPoints(ctx context.Context, id string, delta int) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, 0, repository.ErrNotFound
	}
	u.Points += delta
	u.Level = entity.LevelForPoints(u.Points)
	return u.Points, u.Level, nil
}

func (r *memRepo) TopByPoints(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Points > all[j].Points })
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]entity.LeaderboardEntry, 0, len(all))
	for _, u := range all {
		out = append(out, entity.LeaderboardEntry{
			Name: u.Name, Avatar: u.Avatar, Role: u.Role, Points: u.Points, Level: u.Level,
		})
	}
	return out, nil
}

var _ repository.UserRepository = (*memRepo)(nil)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRouter(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := newMemRepo()
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	logger := testLogger()
	svc := userapp.NewService(repo, jwt, logger)

	authHandler := handlers.NewAuthHandler(svc, logger)
	userHandler := handlers.NewUserHandler(svc, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/signup", authHandler.Signup)
	api.POST("/signin", authHandler.Signin)
	api.GET("/verify", authHandler.Verify)
	api.GET("/avatars", authHandler.Avatars)
	api.GET("/leaderboard", userHandler.Leaderboard)

	auth := api.Group("/")
	auth.Use(middleware.Auth(jwt))
	auth.GET("/profile", userHandler.GetProfile)
	auth.PUT("/profile", userHandler.UpdateProfile)
	auth.PUT("/points", userHandler.UpdatePoints)

	return r, repo
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func signup(t *testing.T, r *gin.Engine, name, email string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/signup", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":"pw123","role":"guardian"}`, name, email))
	assert.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		Token string `json:"token"`
	}
	e := decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	return data.Token
}

func TestSignupEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// Five-character password: no minimum length applies.
	w := doJSON(r, http.MethodPost, "/api/signup", "",
		`{"name":"Ada","email":"ada@x.com","password":"pw123","role":"guardian"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	e := decode(t, w)
	assert.True(t, e.Success)
	var data struct {
		Token string            `json:"token"`
		User  entity.PublicUser `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, 0, data.User.Points)
	assert.Equal(t, 1, data.User.Level)
	assert.Equal(t, entity.DefaultAvatarID, data.User.Avatar)

	// The password never leaks through the response.
	assert.NotContains(t, w.Body.String(), "pw123")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSignupValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// Missing fields
	w := doJSON(r, http.MethodPost, "/api/signup", "", `{"email":"ada@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)

	// Bad role
	w = doJSON(r, http.MethodPost, "/api/signup", "",
		`{"name":"Ada","email":"ada@x.com","password":"pw123","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown avatar id
	w = doJSON(r, http.MethodPost, "/api/signup", "",
		`{"name":"Ada","email":"ada@x.com","password":"pw123","role":"guardian","avatar":"avatar99"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)
	signup(t, r, "Ada", "ada@x.com")

	// Same email, different everything else.
	w := doJSON(r, http.MethodPost, "/api/signup", "",
		`{"name":"Other","email":"ada@x.com","password":"different","role":"protectee"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "User with this email already exists", e.Message)
}

func TestSigninUnifiedErrorMessage(t *testing.T) {
	r, _ := newTestRouter(t)
	signup(t, r, "Ada", "ada@x.com")

	ok := doJSON(r, http.MethodPost, "/api/signin", "", `{"email":"ada@x.com","password":"pw123"}`)
	assert.Equal(t, http.StatusOK, ok.Code)

	wrongPw := doJSON(r, http.MethodPost, "/api/signin", "", `{"email":"ada@x.com","password":"nope99"}`)
	noUser := doJSON(r, http.MethodPost, "/api/signin", "", `{"email":"ghost@x.com","password":"pw123"}`)
	badEmail := doJSON(r, http.MethodPost, "/api/signin", "", `{"email":"not-an-email","password":"pw123"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	// Malformed emails fall into the same unauthorized answer, not a
	// field-level validation error.
	assert.Equal(t, http.StatusUnauthorized, badEmail.Code)
	assert.Equal(t, decode(t, wrongPw).Message, decode(t, noUser).Message)
	assert.Equal(t, decode(t, wrongPw).Message, decode(t, badEmail).Message)
}

func TestVerifyEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signup(t, r, "Ada", "ada@x.com")

	w := doJSON(r, http.MethodGet, "/api/verify", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	w = doJSON(r, http.MethodGet, "/api/verify", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", decode(t, w).Message)

	w = doJSON(r, http.MethodGet, "/api/verify", token+"tampered", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := helpers.NewJWTManager("test-secret", -time.Minute)
	expTok, _, _ := expired.GenerateToken("u-1")
	w = doJSON(r, http.MethodGet, "/api/verify", expTok, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvatarsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/avatars", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Avatars []entity.Avatar `json:"avatars"`
	}
	e := decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Len(t, data.Avatars, 12)
	assert.Equal(t, "avatar1", data.Avatars[0].ID)
}

func TestProfileEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signup(t, r, "Ada", "ada@x.com")

	// Unauthenticated requests never reach the handler.
	w := doJSON(r, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/profile", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Partial update: avatar only, name untouched; email in the body is ignored.
	w = doJSON(r, http.MethodPut, "/api/profile", token, `{"avatar":"avatar3","email":"new@x.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User entity.PublicUser `json:"user"`
	}
	e := decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "avatar3", data.User.Avatar)
	assert.Equal(t, "Ada", data.User.Name)
	assert.Equal(t, "ada@x.com", data.User.Email)

	// Unknown avatar rejected.
	w = doJSON(r, http.MethodPut, "/api/profile", token, `{"avatar":"avatar99"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Explicit empty strings count as omitted, never as new values.
	w = doJSON(r, http.MethodPut, "/api/profile", token, `{"name":"","avatar":""}`)
	assert.Equal(t, http.StatusOK, w.Code)
	e = decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "Ada", data.User.Name)
	assert.Equal(t, "avatar3", data.User.Avatar)
}

func TestPointsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signup(t, r, "Ada", "ada@x.com")

	w := doJSON(r, http.MethodPut, "/api/points", token, `{"points":250}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Points int `json:"points"`
		Level  int `json:"level"`
	}
	e := decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, 250, data.Points)
	assert.Equal(t, 3, data.Level)

	// Non-numeric delta
	w = doJSON(r, http.MethodPut, "/api/points", token, `{"points":"ten"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing delta
	w = doJSON(r, http.MethodPut, "/api/points", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No auth
	w = doJSON(r, http.MethodPut, "/api/points", "", `{"points":10}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// Twelve members with ascending points; only ten may come back.
	for i := 1; i <= 12; i++ {
		token := signup(t, r, fmt.Sprintf("User%d", i), fmt.Sprintf("user%d@x.com", i))
		w := doJSON(r, http.MethodPut, "/api/points", token, fmt.Sprintf(`{"points":%d}`, i*10))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/leaderboard", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Leaderboard []entity.LeaderboardEntry `json:"leaderboard"`
	}
	e := decode(t, w)
	assert.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Len(t, data.Leaderboard, 10)
	for i := 1; i < len(data.Leaderboard); i++ {
		assert.GreaterOrEqual(t, data.Leaderboard[i-1].Points, data.Leaderboard[i].Points)
	}
	assert.Equal(t, "User12", data.Leaderboard[0].Name)

	// Entries never expose email or id.
	assert.NotContains(t, w.Body.String(), "@x.com")
	assert.NotContains(t, w.Body.String(), `"id"`)
	assert.NotContains(t, w.Body.String(), `"email"`)
}
