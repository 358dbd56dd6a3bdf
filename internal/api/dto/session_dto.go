package dto

import (
	"github.com/tripflow/console/internal/domain"
	"github.com/tripflow/console/internal/session"
)

// SignInRequest payload for POST /auth/signin. Identifier is an email or a phone number.
type SignInRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Status  domain.SessionStatus `json:"status"`
	Loading bool                 `json:"loading"`
	User    *domain.User         `json:"user"`
	domain.Capabilities
}

// NewSessionResponse projects a session snapshot.
func NewSessionResponse(snap session.Snapshot) SessionResponse {
	return SessionResponse{
		Status:       snap.Status,
		Loading:      snap.Loading,
		User:         snap.User,
		Capabilities: snap.Capabilities,
	}
}

// SignInView describes the sign-in form.
type SignInView struct {
	Action string   `json:"action"`
	Fields []string `json:"fields"`
	Hint   string   `json:"hint"`
}

// ConsoleView lists the navigation sections available to a role.
type ConsoleView struct {
	Role     domain.Role             `json:"role"`
	Sections []domain.ConsoleSection `json:"sections"`
}
