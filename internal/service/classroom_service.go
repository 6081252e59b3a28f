package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/policy"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util/errorutil"
	"github.com/spec-kit/classroom-service/pkg/validation"
)

// ClassroomService coordinates classroom membership workflows. Every
// operation authorizes the actor before it consumes request input.
type ClassroomService struct {
	classrooms  repository.ClassroomRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	policy      *policy.Engine
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// ClassroomDependencies bundles collaborators for the classroom service.
type ClassroomDependencies struct {
	ClassroomRepo  repository.ClassroomRepository
	MembershipRepo repository.MembershipRepository
	UserRepo       repository.UserRepository
	Policy         *policy.Engine
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// CreateClassroomInput is the create request body.
type CreateClassroomInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

// AddMemberInput is the add member request body.
type AddMemberInput struct {
	Email string `json:"email" validate:"required"`
}

// NewClassroomService constructs the service.
func NewClassroomService(deps ClassroomDependencies) *ClassroomService {
	engine := deps.Policy
	if engine == nil {
		engine = policy.NewEngine()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{
		classrooms:  deps.ClassroomRepo,
		memberships: deps.MembershipRepo,
		users:       deps.UserRepo,
		policy:      engine,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateClassroom creates a classroom owned by actor and enrolls actor in it.
func (s *ClassroomService) CreateClassroom(ctx context.Context, actor *domain.User, body validation.Result[CreateClassroomInput]) (*domain.Classroom, error) {
	if err := s.authorize(actor, policy.ActionCreateClassroom, nil); err != nil {
		return nil, err
	}
	input, err := body.Get()
	if err != nil {
		return nil, err
	}

	classroom, err := s.classrooms.InsertClassroom(ctx, input.Name, actor.ID)
	if err != nil {
		return nil, storeError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventClassroomCreated,
		ClassroomID: classroom.ID,
		ActorID:     actor.ID,
		Payload: events.ClassroomCreatedPayload{
			Name:    classroom.Name,
			OwnerID: classroom.OwnerID,
		},
	})
	return classroom, nil
}

// AddMember enrolls the user identified by the body's email. Only the
// classroom's owner may add members. The role gate runs before the classroom
// is loaded.
func (s *ClassroomService) AddMember(ctx context.Context, actor *domain.User, classroomID validation.Result[int64], body validation.Result[AddMemberInput]) (*domain.Membership, error) {
	if err := s.gate(s.policy.CheckRole(actor, policy.ActionAddMember)); err != nil {
		return nil, err
	}
	id, err := classroomID.Get()
	if err != nil {
		return nil, err
	}

	target := &policy.Target{}
	classroom, err := s.classrooms.FindClassroomByID(ctx, id)
	switch {
	case err == nil:
		target.Classroom = classroom
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeError(err)
	}
	if err := s.authorize(actor, policy.ActionAddMember, target); err != nil {
		return nil, err
	}

	input, err := body.Get()
	if err != nil {
		return nil, err
	}

	invitee, err := s.users.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User", nil)
		}
		return nil, storeError(err)
	}

	membership, err := s.memberships.InsertMembership(ctx, classroom.ID, invitee.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMembership) {
			return nil, apperrors.NewBadRequest("User already in classroom")
		}
		return nil, storeError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventMemberAdded,
		ClassroomID: classroom.ID,
		ActorID:     actor.ID,
		Payload: events.MemberAddedPayload{
			MembershipID: membership.ID,
			UserID:       invitee.ID,
			Email:        invitee.Email,
		},
	})
	return membership, nil
}

// ListOwnClassrooms returns the classrooms actor belongs to.
func (s *ClassroomService) ListOwnClassrooms(ctx context.Context, actor *domain.User) ([]domain.Classroom, error) {
	if err := s.authorize(actor, policy.ActionListOwnClassrooms, nil); err != nil {
		return nil, err
	}
	classrooms, err := s.classrooms.ListClassroomsForUser(ctx, actor.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return classrooms, nil
}

// GetClassroom returns a classroom actor belongs to. Classrooms the actor is
// not a member of are reported exactly like missing ones.
func (s *ClassroomService) GetClassroom(ctx context.Context, actor *domain.User, classroomID validation.Result[int64]) (*domain.Classroom, error) {
	id, err := classroomID.Get()
	if err != nil {
		return nil, err
	}

	target := &policy.Target{}
	classroom, membership, err := s.classrooms.FindClassroomForMember(ctx, actor.ID, id)
	switch {
	case err == nil:
		target.Classroom, target.Membership = classroom, membership
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeError(err)
	}
	if err := s.authorize(actor, policy.ActionGetClassroom, target); err != nil {
		return nil, err
	}
	return classroom, nil
}

// ListMembers returns the users enrolled in a classroom.
func (s *ClassroomService) ListMembers(ctx context.Context, actor *domain.User, classroomID validation.Result[int64]) ([]domain.User, error) {
	if err := s.authorize(actor, policy.ActionListMembers, nil); err != nil {
		return nil, err
	}
	id, err := classroomID.Get()
	if err != nil {
		return nil, err
	}

	members, err := s.memberships.ListMembersForClassroom(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return members, nil
}

// RemoveMember deletes a membership. Removing a membership that does not
// exist is NOT_FOUND.
func (s *ClassroomService) RemoveMember(ctx context.Context, actor *domain.User, classroomID, memberID validation.Result[int64]) error {
	if err := s.authorize(actor, policy.ActionRemoveMember, nil); err != nil {
		return err
	}
	cid, err := classroomID.Get()
	if err != nil {
		return err
	}
	uid, err := memberID.Get()
	if err != nil {
		return err
	}

	if err := s.memberships.DeleteMembership(ctx, cid, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Member", nil)
		}
		return storeError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventMemberRemoved,
		ClassroomID: cid,
		ActorID:     actor.ID,
		Payload:     events.MemberRemovedPayload{UserID: uid},
	})
	return nil
}

func (s *ClassroomService) authorize(actor *domain.User, action policy.Action, target *policy.Target) error {
	return s.gate(s.policy.Authorize(actor, action, target))
}

func (s *ClassroomService) gate(decision policy.Decision) error {
	switch decision.Outcome {
	case policy.Allow:
		return nil
	case policy.DenyNotFound:
		return apperrors.NewDomainError("NOT_FOUND", decision.Reason, http.StatusNotFound, nil)
	default:
		return apperrors.NewForbidden(decision.Reason)
	}
}

func (s *ClassroomService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// storeError converts gateway failures that have no domain meaning.
func storeError(err error) error {
	if errors.Is(err, repository.ErrSessionBusy) {
		return apperrors.NewInternal("store unavailable", err)
	}
	return apperrors.NewInternalError(err)
}
