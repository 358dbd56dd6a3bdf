package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tripflow/console/internal/api/dto"
	"github.com/tripflow/console/internal/auth"
	"github.com/tripflow/console/internal/domain"
)

// ConsoleHandler serves navigation descriptors of the console.
type ConsoleHandler struct{}

// NewConsoleHandler constructs handler.
func NewConsoleHandler() *ConsoleHandler {
	return &ConsoleHandler{}
}

// Home handles GET /console with the sections of the caller's role.
func (h *ConsoleHandler) Home(c *fiber.Ctx) error {
	sc, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	snap := sc.Snapshot()
	if !snap.Authenticated() {
		return c.Redirect(auth.SignInPath, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"data": view(snap.User.Role)})
}

// RoleView serves the view of one role. Mount it behind auth.RequireRole(role).
func (h *ConsoleHandler) RoleView(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": view(role)})
	}
}

func view(role domain.Role) dto.ConsoleView {
	sections := domain.SectionsFor(role)
	if sections == nil {
		sections = []domain.ConsoleSection{}
	}
	return dto.ConsoleView{Role: role, Sections: sections}
}
