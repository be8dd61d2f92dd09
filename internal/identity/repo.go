package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const userCols = `id, email, username, hashed_password,
       COALESCE(first_name,''), COALESCE(last_name,''), is_active, is_admin, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword,
		&u.FirstName, &u.LastName, &u.IsActive, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

func (r *Repo) Create(ctx context.Context, in RegisterInput, hashed string) (User, error) {
	var exists bool
	if err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email=$1 OR username=$2)`,
		in.Email, in.Username).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrAlreadyRegistered
	}
	u, err := scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users(email, username, hashed_password, first_name, last_name)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+userCols,
		in.Email, in.Username, hashed, in.FirstName, in.LastName))
	return u, err
}

func (r *Repo) ByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) ByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}
