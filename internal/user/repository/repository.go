package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/quickchat/server/internal/user/domain"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	Exists(ctx context.Context, id domain.ID) (bool, error)
	ListExcept(ctx context.Context, id domain.ID) ([]domain.Summary, error)
	UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate) (domain.User, error)
	UpdateLastSeen(ctx context.Context, ids []string, seenAt time.Time) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// insertUserSQL writes created_at and last_seen_at explicitly; leaving them
// to the column defaults would let now() diverge from the timestamps the
// caller already handed out in the signup response.
const insertUserSQL = `INSERT INTO users (id, email, full_name, bio, profile_pic_url, password_hash, created_at, last_seen_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(
		ctx,
		insertUserSQL,
		string(user.ID),
		user.Email,
		user.FullName,
		user.Bio,
		user.ProfilePicURL,
		user.PasswordHash,
		user.CreatedAt,
		user.LastSeenAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, full_name, bio, profile_pic_url, password_hash, created_at, last_seen_at
		 FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row, "email")
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, full_name, bio, profile_pic_url, password_hash, created_at, last_seen_at
		 FROM users WHERE id = $1`,
		string(id),
	)
	return scanUser(row, "id")
}

func (r *PgRepository) Exists(ctx context.Context, id domain.ID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		string(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) ListExcept(ctx context.Context, id domain.ID) ([]domain.Summary, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, email, full_name, bio, profile_pic_url, last_seen_at
		 FROM users
		 WHERE id <> $1
		 ORDER BY full_name ASC`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.Summary
	for rows.Next() {
		var u domain.Summary
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Bio, &u.ProfilePicURL, &u.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}

	return users, nil
}

func (r *PgRepository) UpdateProfile(ctx context.Context, id domain.ID, update domain.ProfileUpdate) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE users
		 SET full_name = COALESCE(NULLIF($2, ''), full_name),
		     bio = COALESCE(NULLIF($3, ''), bio),
		     profile_pic_url = COALESCE(NULLIF($4, ''), profile_pic_url)
		 WHERE id = $1
		 RETURNING id, email, full_name, bio, profile_pic_url, password_hash, created_at, last_seen_at`,
		string(id),
		update.FullName,
		update.Bio,
		update.ProfilePicURL,
	)
	return scanUser(row, "id")
}

func (r *PgRepository) UpdateLastSeen(ctx context.Context, ids []string, seenAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(
		ctx,
		`UPDATE users SET last_seen_at = $2 WHERE id = ANY($1)`,
		ids,
		seenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row, by string) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Bio,
		&user.ProfilePicURL,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return user, nil
}
