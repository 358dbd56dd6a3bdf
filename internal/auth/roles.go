package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tripflow/console/internal/domain"
	"github.com/tripflow/console/pkg/util/errorutil"
)

// SignInPath is where anonymous callers are sent.
const SignInPath = "/signin"

// RequireAuthenticated admits any signed-in user.
func RequireAuthenticated() fiber.Handler {
	return Guard(Authenticated())
}

// RequireRole admits signed-in users holding one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return Guard(AnyRole(allowed...))
}

// Guard enforces req using the session bound to the request.
func Guard(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := MustSession(c)
		if err != nil {
			return err
		}

		switch Evaluate(sc.Snapshot(), req) {
		case Allow:
			return c.Next()
		case Defer:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(1))
			c.Status(fiber.StatusAccepted)
			return nil
		case DenyAnonymous:
			return c.Redirect(SignInPath, fiber.StatusSeeOther)
		default:
			return errorutil.NewForbidden("insufficient role")
		}
	}
}
