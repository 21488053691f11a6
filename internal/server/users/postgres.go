package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cartana/accounts/internal/common"
	"github.com/cartana/accounts/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository stores users in PostgreSQL via the pgx stdlib driver.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	query :=
		`INSERT INTO users (uid, account_id, account_type, full_name, email, password_hash, avatar)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UID, user.AccountID, user.AccountType, user.FullName,
		user.Email, user.PasswordHash, user.Avatar).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getBy(ctx context.Context, column string, value any) (*User, error) {
	query := fmt.Sprintf(
		`SELECT id, uid, account_id, account_type, full_name, email, password_hash, avatar, disabled, created_at, updated_at
		 FROM users
		 WHERE %s = $1
		 `, column)

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.UID, &user.AccountID, &user.AccountType, &user.FullName,
		&user.Email, &user.PasswordHash, &user.Avatar, &user.Disabled,
		&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	return r.getBy(ctx, "uid", uid)
}

// ResetPassword consumes the reset token's jti and rewrites the password
// hash in a single transaction. The jti insert hits the primary key when
// the link was already used, which surfaces as common.ErrTokenExpired.
func (r *PostgresRepository) ResetPassword(ctx context.Context, uid, jti string, passwordHash []byte, jtiExpires time.Time) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		_, err := tx.ExecContext(ctx,
			`INSERT INTO used_reset_tokens (jti, expires_at) VALUES ($1, $2)`,
			jti, jtiExpires)
		if err != nil {
			if isUniqueViolation(err) {
				return common.ErrTokenExpired
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = now() WHERE uid = $2`,
			passwordHash, uid)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return common.ErrNotFound
		}

		return nil
	})
}
