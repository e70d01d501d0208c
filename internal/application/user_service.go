package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/digitalguardian/backend/internal/domain/entity"
	repo "github.com/digitalguardian/backend/internal/domain/repository"
	"github.com/digitalguardian/backend/pkg/helpers"
	"github.com/digitalguardian/backend/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidRole        = errors.New(`invalid role, must be either "guardian" or "protectee"`)
	ErrUnknownAvatar      = errors.New("unknown avatar id")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// LeaderboardLimit caps the ranking at the top ten members.
	LeaderboardLimit = 10
)

const leaderboardKey = "leaderboard:top"

// Service orchestrates signup, signin, token verification, profile and points
// operations. Redis, ES, GCS and the publisher are optional; a nil client
// disables the corresponding side effect.
type Service struct {
	Repo           repo.UserRepository
	JWT            *helpers.JWTManager
	Redis          *redis.Client
	Logger         *logrus.Logger
	ES             *elasticsearch.Client
	ESUsersIndex   string
	GCS            *storage.Client
	GCSBucket      string
	Pub            *helpers.RabbitPublisher
	MailEnabled    bool
	LeaderboardTTL time.Duration
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *Service {
	return &Service{
		Repo:           r,
		JWT:            jwt,
		Logger:         logger,
		LeaderboardTTL: 30 * time.Second,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Avatar   string
}

// Signup creates a new member with zero points at level one and issues a
// bearer token for the fresh account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.User, string, error) {
	role := entity.Role(in.Role)
	if !role.Valid() {
		return nil, "", ErrInvalidRole
	}
	avatar := in.Avatar
	if avatar == "" {
		avatar = entity.DefaultAvatarID
	}
	if !entity.ValidAvatarID(avatar) {
		return nil, "", ErrUnknownAvatar
	}

	// Cheap pre-check; the unique index still decides races at write time.
	if existing, err := s.Repo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	u := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Avatar:       avatar,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, _, err := s.JWT.GenerateToken(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return nil, "", err
	}

	s.publishWelcome(ctx, u)
	_ = s.indexUser(ctx, u)

	return u, token, nil
}

// Signin authenticates email/password and issues a token. Unknown email and
// wrong password collapse into the same error so callers cannot probe which
// field was wrong.
func (s *Service) Signin(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, _, err := s.JWT.GenerateToken(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return nil, "", err
	}
	return u, token, nil
}

// VerifyToken validates the bearer token and re-fetches the user, so a
// deleted account fails verification even while its token is unexpired.
func (s *Service) VerifyToken(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.JWT.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name   *string
	Avatar *string
}

// UpdateProfile applies a partial update of name and avatar; omitted and
// empty-string fields are left unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	if in.Name != nil && *in.Name == "" {
		in.Name = nil
	}
	if in.Avatar != nil && *in.Avatar == "" {
		in.Avatar = nil
	}
	if in.Avatar != nil && !entity.ValidAvatarID(*in.Avatar) {
		return nil, ErrUnknownAvatar
	}
	u, err := s.Repo.UpdateProfile(ctx, userID, repo.ProfilePatch{Name: in.Name, Avatar: in.Avatar})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// AdjustPoints adds delta to the member's points; the store recomputes the
// level in the same statement. Deltas may be negative.
func (s *Service) AdjustPoints(ctx context.Context, userID string, delta int) (points, level int, err error) {
	points, level, err = s.Repo.AddPoints(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, err
	}
	s.invalidateLeaderboard(ctx)
	return points, level, nil
}

// Leaderboard returns the top members by points, descending. Results are
// cached briefly in Redis; points writes invalidate the cache.
func (s *Service) Leaderboard(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	if s.Redis != nil {
		var cached []entity.LeaderboardEntry
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, leaderboardKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	entries, err := s.Repo.TopByPoints(ctx, LeaderboardLimit)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, leaderboardKey, entries, s.LeaderboardTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("leaderboard cache write failed")
		}
	}
	return entries, nil
}

func (s *Service) invalidateLeaderboard(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, leaderboardKey); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Warn("leaderboard cache invalidation failed")
	}
}

// UploadAvatar stores a custom avatar image in GCS and records its URL on the
// profile; the catalog avatar id is untouched.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("avatar uploads not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	u, err := s.Repo.SetAvatarURL(ctx, userID, url)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) publishWelcome(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.NewWelcomeJob(u.Email, u.Name, string(u.Role))
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email publish failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"avatar": u.Avatar,
		"points": u.Points,
		"level":  u.Level,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a multi_match search on name and email.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		// Never expose the email through search results.
		delete(h.Source, "email")
		out = append(out, h.Source)
	}
	return out, nil
}
