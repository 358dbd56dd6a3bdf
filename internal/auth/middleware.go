package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tripflow/console/internal/session"
	"github.com/tripflow/console/pkg/util/errorutil"
)

const sessionKey = "console_session"

const clientCookieMaxAge = 365 * 24 * time.Hour

// CookieConfig controls the client runtime cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionMiddleware identifies the client runtime of a request and binds its session.
type SessionMiddleware struct {
	manager *session.Manager
	cookie  CookieConfig
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(manager *session.Manager, cookie CookieConfig) *SessionMiddleware {
	if cookie.Name == "" {
		cookie.Name = "tripflow_client"
	}
	return &SessionMiddleware{manager: manager, cookie: cookie}
}

// Handle reads or issues the client cookie and attaches the client's session.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookie.Name)
	clientID, err := canonicalClientID(raw)
	if err != nil {
		clientID = uuid.NewString()
	}
	if clientID != raw {
		c.Cookie(&fiber.Cookie{
			Name:     m.cookie.Name,
			Value:    clientID,
			Path:     "/",
			MaxAge:   int(clientCookieMaxAge.Seconds()),
			Secure:   m.cookie.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	c.Locals(sessionKey, m.manager.Acquire(c.UserContext(), clientID))
	return c.Next()
}

// canonicalClientID accepts any form uuid.Parse does and returns the lower-case
// hyphenated one, so a client id always maps to a single store namespace.
func canonicalClientID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SessionFromContext retrieves the session bound by SessionMiddleware.
func SessionFromContext(c *fiber.Ctx) (*session.Context, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sc, ok := val.(*session.Context)
	return sc, ok
}

// MustSession is SessionFromContext for handlers mounted behind SessionMiddleware.
func MustSession(c *fiber.Ctx) (*session.Context, error) {
	sc, ok := SessionFromContext(c)
	if !ok {
		return nil, errorutil.NewInternalError(nil)
	}
	return sc, nil
}
