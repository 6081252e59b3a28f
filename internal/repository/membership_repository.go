package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// MembershipRepository manages classroom memberships.
type MembershipRepository interface {
	InsertMembership(ctx context.Context, classroomID, userID int64) (*domain.Membership, error)
	FindMembership(ctx context.Context, classroomID, userID int64) (*domain.Membership, error)
	DeleteMembership(ctx context.Context, classroomID, userID int64) error
	ListMembersForClassroom(ctx context.Context, classroomID int64) ([]domain.User, error)
}

var _ MembershipRepository = (*Gateway)(nil)

const findMembershipQuery = `
        SELECT id, classroom_id, user_id
        FROM classroom_users
        WHERE classroom_id = $1 AND user_id = $2`

// InsertMembership adds userID to classroomID. The existence check and the
// insert share one transaction and one hold of the session; a concurrent
// duplicate fails with ErrDuplicateMembership.
func (g *Gateway) InsertMembership(ctx context.Context, classroomID, userID int64) (*domain.Membership, error) {
	const insert = `
        INSERT INTO classroom_users (classroom_id, user_id)
        VALUES ($1, $2)
        RETURNING id, classroom_id, user_id`

	var membership *domain.Membership
	err := g.withTx(ctx, func(ctx context.Context, q Querier) error {
		if _, err := scanMembership(q.QueryRow(ctx, findMembershipQuery, classroomID, userID)); err == nil {
			return ErrDuplicateMembership
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		var err error
		membership, err = scanMembership(q.QueryRow(ctx, insert, classroomID, userID))
		if isUniqueViolation(err) {
			return ErrDuplicateMembership
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// FindMembership loads the membership row for the pair.
func (g *Gateway) FindMembership(ctx context.Context, classroomID, userID int64) (*domain.Membership, error) {
	var membership *domain.Membership
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		var err error
		membership, err = scanMembership(q.QueryRow(ctx, findMembershipQuery, classroomID, userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// DeleteMembership removes the pair; ErrNotFound when nothing was removed.
func (g *Gateway) DeleteMembership(ctx context.Context, classroomID, userID int64) error {
	const query = `DELETE FROM classroom_users WHERE classroom_id = $1 AND user_id = $2`

	return g.withSession(ctx, func(ctx context.Context, q Querier) error {
		cmd, err := q.Exec(ctx, query, classroomID, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListMembersForClassroom returns the users enrolled in classroomID.
func (g *Gateway) ListMembersForClassroom(ctx context.Context, classroomID int64) ([]domain.User, error) {
	const query = `
        SELECT u.id, u.email, u.first_name, u.last_name, u.role
        FROM users u
        JOIN classroom_users cu ON cu.user_id = u.id
        WHERE cu.classroom_id = $1
        ORDER BY u.id`

	result := []domain.User{}
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		rows, err := q.Query(ctx, query, classroomID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var user domain.User
			if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Role); err != nil {
				return err
			}
			if !user.Exists() {
				continue
			}
			result = append(result, user)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var membership domain.Membership
	if err := row.Scan(&membership.ID, &membership.ClassroomID, &membership.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}
