package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"userauth/api/internal/models"
	"userauth/api/internal/security"
)

// PgxPool is the subset of *pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type PostgresUserRepository struct {
	pool PgxPool
	now  func() time.Time
}

func NewPostgresUserRepository(pool PgxPool) *PostgresUserRepository {
	return &PostgresUserRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const selectUserColumns = `
	SELECT id, email, fullname, password_hash, unique_key, refresh_token, refresh_token_expires_at, created_at, updated_at
	FROM users
`

func (r *PostgresUserRepository) Create(ctx context.Context, input models.NewUser) (string, error) {
	user, err := buildUser(input, r.now())
	if err != nil {
		return "", err
	}

	const query = `
		INSERT INTO users (
			id, email, fullname, password_hash, unique_key, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.UniqueKey,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return user.ID, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id))
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE email = $1`, email))
}

func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = $4
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, token, expiresAt, r.now())
}

func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = $2
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, r.now())
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	const query = `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`
	return r.execOne(ctx, query, id, hash, r.now())
}

func (r *PostgresUserRepository) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE users
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = $2
		WHERE refresh_token_expires_at <= $1
	`
	cmd, err := r.pool.Exec(ctx, query, now, r.now())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (models.User, error) {
	var (
		user         models.User
		refreshToken pgtype.Text
		expiresAt    pgtype.Timestamptz
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.UniqueKey,
		&refreshToken,
		&expiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if refreshToken.Valid {
		token := refreshToken.String
		user.RefreshToken = &token
	}
	if expiresAt.Valid {
		at := expiresAt.Time
		user.RefreshTokenExpiresAt = &at
	}
	return user, nil
}
