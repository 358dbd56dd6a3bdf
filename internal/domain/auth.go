package domain

// SessionStatus describes the state of a console session.
type SessionStatus string

const (
	SessionInitializing  SessionStatus = "INITIALIZING"
	SessionAuthenticated SessionStatus = "AUTHENTICATED"
	SessionAnonymous     SessionStatus = "ANONYMOUS"
)
