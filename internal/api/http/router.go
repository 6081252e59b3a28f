package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/http/handlers"
	"github.com/spec-kit/classroom-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Classrooms     *handlers.ClassroomHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	classroom := app.Group("/classroom", cfg.AuthMiddleware.Handle)
	classroom.Post("/create", cfg.Classrooms.CreateClassroom)
	classroom.Get("/user/get", cfg.Classrooms.ListOwnClassrooms)
	classroom.Post("/:id/add", cfg.Classrooms.AddMember)
	classroom.Get("/:id/get", cfg.Classrooms.GetClassroom)
	classroom.Get("/:id/member/get/all", cfg.Classrooms.ListMembers)
	classroom.Delete("/:classroom_id/member/:member_id/remove", cfg.Classrooms.RemoveMember)
}
