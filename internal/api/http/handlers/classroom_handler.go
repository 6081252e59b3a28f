package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/service"
	apperrors "github.com/spec-kit/classroom-service/pkg/util/errorutil"
	"github.com/spec-kit/classroom-service/pkg/validation"
)

// ClassroomHandler exposes classroom membership endpoints.
type ClassroomHandler struct {
	service *service.ClassroomService
}

// NewClassroomHandler constructs handler.
func NewClassroomHandler(classroomService *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{service: classroomService}
}

// CreateClassroom POST /classroom/create.
func (h *ClassroomHandler) CreateClassroom(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	body := validation.Decode[service.CreateClassroomInput](c.Body())

	classroom, err := h.service.CreateClassroom(c.UserContext(), actor, body)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewClassroomResponse(classroom))
}

// AddMember POST /classroom/:id/add.
func (h *ClassroomHandler) AddMember(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	classroomID := validation.ParseID(c.Params("id"), "classroom id")
	body := validation.Decode[service.AddMemberInput](c.Body())

	if _, err := h.service.AddMember(c.UserContext(), actor, classroomID, body); err != nil {
		return err
	}
	return c.SendString("User added to classroom")
}

// ListOwnClassrooms GET /classroom/user/get.
func (h *ClassroomHandler) ListOwnClassrooms(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	classrooms, err := h.service.ListOwnClassrooms(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewClassroomList(classrooms))
}

// GetClassroom GET /classroom/:id/get.
func (h *ClassroomHandler) GetClassroom(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	classroom, err := h.service.GetClassroom(c.UserContext(), actor, validation.ParseID(c.Params("id"), "classroom id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewClassroomResponse(classroom))
}

// ListMembers GET /classroom/:id/member/get/all.
func (h *ClassroomHandler) ListMembers(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	members, err := h.service.ListMembers(c.UserContext(), actor, validation.ParseID(c.Params("id"), "classroom id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMemberList(members))
}

// RemoveMember DELETE /classroom/:classroom_id/member/:member_id/remove.
func (h *ClassroomHandler) RemoveMember(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	classroomID := validation.ParseID(c.Params("classroom_id"), "classroom id")
	memberID := validation.ParseID(c.Params("member_id"), "member id")

	if err := h.service.RemoveMember(c.UserContext(), actor, classroomID, memberID); err != nil {
		return err
	}
	return c.SendString("User removed from classroom")
}

func actorFrom(c *fiber.Ctx) (*domain.User, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Missing token")
	}
	return actor, nil
}
