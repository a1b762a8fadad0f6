package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
}

type UsersRepo struct {
	db db.Querier
}

func NewUsersRepo(q db.Querier) *UsersRepo {
	return &UsersRepo{
		db: q,
	}
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id;`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := pkg.PgError(err); ok && pkg.IsUniqueViolationError(err) {
			switch pgErr.ConstraintName {
			case usernameConstraint:
				return 0, apperr.Wrap(apperr.KindConstraintViolation, err, "Username already exists.")
			case emailConstraint:
				return 0, apperr.Wrap(apperr.KindConstraintViolation, err, "Email already exists.")
			}
		}
		return 0, db.TranslateError(fmt.Errorf("insert user: %w", err))
	}

	return id, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get.username")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.get(ctx, `SELECT id, username, email, password FROM users WHERE username = $1;`, username)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get.id")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.get(ctx, `SELECT id, username, email, password FROM users WHERE id = $1;`, id)
}

func (r *UsersRepo) get(ctx context.Context, sql string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("get user: %w", err))
	}
	return &u, nil
}
