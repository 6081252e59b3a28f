// Package policy decides whether an authenticated user may perform a
// classroom action. Decisions are pure; callers load any resource state the
// rule needs and pass it in as a Target.
package policy

import (
	"github.com/spec-kit/classroom-service/internal/domain"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionCreateClassroom   Action = "create_classroom"
	ActionAddMember         Action = "add_member"
	ActionListOwnClassrooms Action = "list_own_classrooms"
	ActionGetClassroom      Action = "get_classroom"
	ActionListMembers       Action = "list_members"
	ActionRemoveMember      Action = "remove_member"
)

// Outcome classifies a decision.
type Outcome int

const (
	Allow Outcome = iota
	DenyForbidden
	DenyNotFound
)

const (
	ReasonNoPermission     = "You do not have permission to access this resource"
	ReasonUserNotFound     = "User not found"
	ReasonClassroomMissing = "Classroom not found"
)

// Target is the resource state a rule may consult.
type Target struct {
	// Classroom is the classroom being acted on, nil when it does not exist.
	Classroom *domain.Classroom
	// Membership is the actor's membership in Classroom, nil when absent.
	Membership *domain.Membership
}

// Decision is the result of Authorize.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Engine evaluates the classroom access rules.
type Engine struct {
	privileged map[domain.Role]struct{}
}

// NewEngine returns an engine where ADMIN and TEACHER are privileged roles.
func NewEngine() *Engine {
	return &Engine{privileged: map[domain.Role]struct{}{
		domain.RoleAdmin:   {},
		domain.RoleTeacher: {},
	}}
}

// CheckRole applies the existence and role rules for action without
// consulting any resource state. Callers that must load a resource before
// the full decision run it first so unprivileged actors never reach the store.
func (e *Engine) CheckRole(actor *domain.User, action Action) Decision {
	if !actor.Exists() {
		return deny(DenyNotFound, ReasonUserNotFound)
	}

	switch action {
	case ActionListOwnClassrooms, ActionGetClassroom:
		return allow()
	case ActionCreateClassroom, ActionAddMember, ActionListMembers, ActionRemoveMember:
		if !e.isPrivileged(actor) {
			return deny(DenyForbidden, ReasonNoPermission)
		}
		return allow()
	}
	return deny(DenyForbidden, ReasonNoPermission)
}

// Authorize decides whether actor may perform action on target.
// The actor's existence is checked first, then its role, then resource state.
func (e *Engine) Authorize(actor *domain.User, action Action, target *Target) Decision {
	if decision := e.CheckRole(actor, action); !decision.Allowed() {
		return decision
	}

	switch action {
	case ActionAddMember:
		// Ownership binds to the caller, never to the user being added.
		if target == nil || target.Classroom == nil || target.Classroom.OwnerID != actor.ID {
			return deny(DenyForbidden, ReasonNoPermission)
		}

	case ActionGetClassroom:
		// Non-members and missing classrooms are indistinguishable.
		if target == nil || target.Classroom == nil || target.Membership == nil ||
			target.Membership.UserID != actor.ID || target.Membership.ClassroomID != target.Classroom.ID {
			return deny(DenyNotFound, ReasonClassroomMissing)
		}
	}
	return allow()
}

func (e *Engine) isPrivileged(actor *domain.User) bool {
	_, ok := e.privileged[domain.NormalizeRole(actor.Role)]
	return ok
}

func allow() Decision {
	return Decision{Outcome: Allow}
}

func deny(outcome Outcome, reason string) Decision {
	return Decision{Outcome: outcome, Reason: reason}
}
