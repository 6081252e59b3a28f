package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// ClassroomRepository manages classrooms.
type ClassroomRepository interface {
	InsertClassroom(ctx context.Context, name string, ownerID int64) (*domain.Classroom, error)
	FindClassroomByID(ctx context.Context, id int64) (*domain.Classroom, error)
	FindClassroomForMember(ctx context.Context, userID, classroomID int64) (*domain.Classroom, *domain.Membership, error)
	ListClassroomsForUser(ctx context.Context, userID int64) ([]domain.Classroom, error)
	DeleteClassroom(ctx context.Context, id int64) error
}

var _ ClassroomRepository = (*Gateway)(nil)

// InsertClassroom creates a classroom and enrolls its owner in one
// transaction, so no caller observes the classroom without its owner.
func (g *Gateway) InsertClassroom(ctx context.Context, name string, ownerID int64) (*domain.Classroom, error) {
	const insertClassroom = `
        INSERT INTO classrooms (name, owner_id)
        VALUES ($1, $2)
        RETURNING id, name, owner_id`
	const enrollOwner = `
        INSERT INTO classroom_users (classroom_id, user_id)
        VALUES ($1, $2)`

	var classroom domain.Classroom
	err := g.withTx(ctx, func(ctx context.Context, q Querier) error {
		if err := q.QueryRow(ctx, insertClassroom, name, ownerID).Scan(
			&classroom.ID,
			&classroom.Name,
			&classroom.OwnerID,
		); err != nil {
			return err
		}
		_, err := q.Exec(ctx, enrollOwner, classroom.ID, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

// FindClassroomByID loads a classroom regardless of membership.
func (g *Gateway) FindClassroomByID(ctx context.Context, id int64) (*domain.Classroom, error) {
	const query = `SELECT id, name, owner_id FROM classrooms WHERE id = $1`

	var classroom *domain.Classroom
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		var err error
		classroom, err = scanClassroom(q.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return classroom, nil
}

// FindClassroomForMember loads a classroom together with userID's membership
// row. A missing classroom and a non-member both yield ErrNotFound.
func (g *Gateway) FindClassroomForMember(ctx context.Context, userID, classroomID int64) (*domain.Classroom, *domain.Membership, error) {
	const query = `
        SELECT c.id, c.name, c.owner_id, cu.id
        FROM classrooms c
        JOIN classroom_users cu ON cu.classroom_id = c.id
        WHERE cu.user_id = $1 AND cu.classroom_id = $2
        LIMIT 1`

	var (
		classroom  domain.Classroom
		membership domain.Membership
	)
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		return q.QueryRow(ctx, query, userID, classroomID).Scan(
			&classroom.ID,
			&classroom.Name,
			&classroom.OwnerID,
			&membership.ID,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	membership.ClassroomID = classroom.ID
	membership.UserID = userID
	return &classroom, &membership, nil
}

// ListClassroomsForUser returns every classroom userID belongs to.
func (g *Gateway) ListClassroomsForUser(ctx context.Context, userID int64) ([]domain.Classroom, error) {
	const query = `
        SELECT DISTINCT c.id, c.name, c.owner_id
        FROM classrooms c
        JOIN classroom_users cu ON cu.classroom_id = c.id
        WHERE cu.user_id = $1
        ORDER BY c.id`

	result := []domain.Classroom{}
	err := g.withSession(ctx, func(ctx context.Context, q Querier) error {
		rows, err := q.Query(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var classroom domain.Classroom
			if err := rows.Scan(&classroom.ID, &classroom.Name, &classroom.OwnerID); err != nil {
				return err
			}
			result = append(result, classroom)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteClassroom removes a classroom and its memberships in one transaction.
func (g *Gateway) DeleteClassroom(ctx context.Context, id int64) error {
	const deleteMemberships = `DELETE FROM classroom_users WHERE classroom_id = $1`
	const deleteClassroom = `DELETE FROM classrooms WHERE id = $1`

	return g.withTx(ctx, func(ctx context.Context, q Querier) error {
		if _, err := q.Exec(ctx, deleteMemberships, id); err != nil {
			return err
		}
		cmd, err := q.Exec(ctx, deleteClassroom, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanClassroom(row pgx.Row) (*domain.Classroom, error) {
	var classroom domain.Classroom
	if err := row.Scan(&classroom.ID, &classroom.Name, &classroom.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &classroom, nil
}
