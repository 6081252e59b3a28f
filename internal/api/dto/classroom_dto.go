package dto

import "github.com/spec-kit/classroom-service/internal/domain"

// ClassroomResponse is the wire form of a classroom.
type ClassroomResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

// MemberResponse is the wire form of a classroom member. Credentials are
// never serialized.
type MemberResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// NewClassroomResponse maps a classroom.
func NewClassroomResponse(c *domain.Classroom) ClassroomResponse {
	return ClassroomResponse{ID: c.ID, Name: c.Name, OwnerID: c.OwnerID}
}

// NewClassroomList maps classrooms, keeping an empty list non-nil.
func NewClassroomList(classrooms []domain.Classroom) []ClassroomResponse {
	out := make([]ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		out = append(out, NewClassroomResponse(&classrooms[i]))
	}
	return out
}

// NewMemberList maps users to members, keeping an empty list non-nil.
func NewMemberList(users []domain.User) []MemberResponse {
	out := make([]MemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, MemberResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
		})
	}
	return out
}
