package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// UserRepository reads provisioned users.
type UserRepository interface {
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

var _ UserRepository = (*Gateway)(nil)

const userColumns = `id, email, password, salt, first_name, last_name, role`

// FindUserByID loads a user by primary key.
func (g *Gateway) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user *domain.User
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindUserByEmail loads a user by email.
func (g *Gateway) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user *domain.User
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, query, email))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.FirstName,
		&user.LastName,
		&user.Role,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.Exists() {
		return nil, ErrNotFound
	}
	return &user, nil
}
