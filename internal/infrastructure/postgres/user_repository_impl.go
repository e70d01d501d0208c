package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digitalguardian/backend/internal/domain/entity"
	"github.com/digitalguardian/backend/internal/domain/repository"
)

const userColumns = `id, name, email, password_hash, role, avatar, avatar_url, points, level, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar,
		&u.AvatarURL, &u.Points, &u.Level, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, points, level, created_at, updated_at
	`, u.Name, u.Email, u.PasswordHash, u.Role, u.Avatar)

	if err := row.Scan(&u.ID, &u.Points, &u.Level, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
}

// UpdateProfile applies only the fields present in patch; COALESCE keeps the
// stored value when a field is omitted.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch repository.ProfilePatch) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($1, name),
		    avatar = COALESCE($2, avatar),
		    updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns+`
	`, patch.Name, patch.Avatar, id))
}

func (r *UserRepository) SetAvatarURL(ctx context.Context, id, url string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET avatar_url = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, url, id))
}

// AddPoints adjusts points and level together in one UPDATE so the pair stays
// consistent under concurrent adjustments. The numeric cast makes the division
// floor like the level formula requires for negative totals.
func (r *UserRepository) AddPoints(ctx context.Context, id string, delta int) (int, int, error) {
	var points, level int
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET points = points + $1,
		    level = FLOOR((points + $1)::numeric / $2)::int + 1,
		    updated_at = now()
		WHERE id = $3
		RETURNING points, level
	`, delta, entity.PointsPerLevel, id).Scan(&points, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, repository.ErrNotFound
		}
		return 0, 0, err
	}
	return points, level, nil
}

func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, avatar, role, points, level
		FROM users
		ORDER BY points DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]entity.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e entity.LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Avatar, &e.Role, &e.Points, &e.Level); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
