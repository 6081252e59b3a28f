package repository

import (
	"context"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// UpsertUser inserts or refreshes a user keyed by email. Only provisioning
// tools call it; request handling never writes users.
func (g *Gateway) UpsertUser(ctx context.Context, user domain.User) (int64, error) {
	const query = `
        INSERT INTO users (email, password, salt, first_name, last_name, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (email) DO UPDATE SET
            password = EXCLUDED.password,
            salt = EXCLUDED.salt,
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            role = EXCLUDED.role
        RETURNING id`

	var id int64
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		return q.QueryRow(ctx, query,
			user.Email,
			user.PasswordHash,
			user.Salt,
			user.FirstName,
			user.LastName,
			string(domain.NormalizeRole(user.Role)),
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
