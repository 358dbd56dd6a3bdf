package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tripflow/console/internal/api/dto"
	"github.com/tripflow/console/internal/auth"
	"github.com/tripflow/console/internal/session"
	"github.com/tripflow/console/pkg/util/errorutil"
)

// ConsoleHomePath is where signed-in users land.
const ConsoleHomePath = "/console"

// SessionHandler exposes sign-in, sign-out and the session state.
type SessionHandler struct {
	validator *validator.Validate
}

// NewSessionHandler constructs handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{validator: validator.New()}
}

// SignInView handles GET /signin.
func (h *SessionHandler) SignInView(c *fiber.Ctx) error {
	sc, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	if sc.Snapshot().Authenticated() {
		return c.Redirect(ConsoleHomePath, http.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"data": dto.SignInView{
			Action: "/auth/signin",
			Fields: []string{"identifier", "password"},
			Hint:   "Sign in with your email address or phone number",
		},
	})
}

// SignIn handles POST /auth/signin.
func (h *SessionHandler) SignIn(c *fiber.Ctx) error {
	sc, err := auth.MustSession(c)
	if err != nil {
		return err
	}

	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorutil.NewValidationError("identifier and password required", validationDetails(err))
	}

	if err := sc.SignIn(c.UserContext(), req.Identifier, req.Password); err != nil {
		var signInErr *session.SignInError
		if errors.As(err, &signInErr) {
			return errorutil.NewAuthenticationFailed(signInErr.Message, err)
		}
		return errorutil.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(sc.Snapshot())})
}

// SignOut handles POST /auth/signout.
func (h *SessionHandler) SignOut(c *fiber.Ctx) error {
	sc, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	if err := sc.SignOut(c.UserContext()); err != nil {
		return errorutil.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(sc.Snapshot())})
}

// Session handles GET /auth/session.
func (h *SessionHandler) Session(c *fiber.Ctx) error {
	sc, err := auth.MustSession(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(sc.Snapshot())})
}

func validationDetails(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
