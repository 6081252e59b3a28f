package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util/errorutil"
)

// Resolver maps a verified subject to its user record.
type Resolver struct {
	users repository.UserRepository
}

// NewResolver constructs a resolver over users.
func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve performs a single primary key lookup. Subjects that are not
// integers never reach the store.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*domain.User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, apperrors.NewNotFound("User", nil)
	}

	user, err := r.users.FindUserByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFound("User", nil)
	case errors.Is(err, repository.ErrSessionBusy):
		return nil, apperrors.NewInternal("store unavailable", err)
	case err != nil:
		return nil, apperrors.NewInternalError(err)
	}
	if !user.Exists() {
		return nil, apperrors.NewNotFound("User", nil)
	}
	return user, nil
}
