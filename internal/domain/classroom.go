package domain

// MaxClassroomNameLength bounds classroom names, counted in characters.
const MaxClassroomNameLength = 120

// Classroom groups users under an owner. The owner is fixed at creation.
type Classroom struct {
	ID      int64
	Name    string
	OwnerID int64
}

// Membership asserts that a user belongs to a classroom.
// (ClassroomID, UserID) is unique.
type Membership struct {
	ID          int64
	ClassroomID int64
	UserID      int64
}
