package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tripflow/console/internal/authapi"
	"github.com/tripflow/console/internal/domain"
	"github.com/tripflow/console/internal/events"
	"github.com/tripflow/console/internal/token"
	"github.com/tripflow/console/internal/tokenstore"
)

// Authenticator exchanges credentials with the TripFlow backend.
type Authenticator interface {
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error)
}

// Dependencies wires a Context.
type Dependencies struct {
	ClientID      string
	Store         tokenstore.Store
	Decoder       *token.Decoder
	Authenticator Authenticator
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Context is the single source of truth for who is using one console client.
// Restore, SignIn and SignOut are serialised; Snapshot never blocks on them.
type Context struct {
	clientID   string
	store      tokenstore.Store
	decoder    *token.Decoder
	authn      Authenticator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	writeMu sync.Mutex

	mu      sync.RWMutex
	status  domain.SessionStatus
	user    *domain.User
	loading bool
}

// New creates a Context in the Initializing state.
func New(deps Dependencies) *Context {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	decoder := deps.Decoder
	if decoder == nil {
		decoder = token.NewDecoder("")
	}
	return &Context{
		clientID:   deps.ClientID,
		store:      deps.Store,
		decoder:    decoder,
		authn:      deps.Authenticator,
		dispatcher: deps.Dispatcher,
		logger:     logger.With(zap.String("client_id", deps.ClientID)),
		now:        clock,
		status:     domain.SessionInitializing,
		loading:    true,
	}
}

// Snapshot is a read-only view of the session. Capabilities are derived from User.Role.
type Snapshot struct {
	Status  domain.SessionStatus `json:"status"`
	Loading bool                 `json:"loading"`
	User    *domain.User         `json:"user"`
	domain.Capabilities
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.Status == domain.SessionAuthenticated && s.User != nil
}

// ClientID returns the client runtime this context belongs to.
func (c *Context) ClientID() string {
	return c.clientID
}

// Snapshot returns the current state.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{Status: c.status, Loading: c.loading, User: c.user.Clone()}
	if c.user != nil {
		snap.Capabilities = domain.CapabilitiesFor(c.user.Role)
	}
	return snap
}

// Restore rebuilds the session from the token store. It always settles the context;
// the returned error only reports a store failure, after which the session is anonymous.
func (c *Context) Restore(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.setLoading(true)

	raw, ok, err := c.store.Read(ctx)
	if err != nil {
		c.logger.Warn("session store unreadable; continuing anonymous", zap.Error(err))
		c.settle(domain.SessionAnonymous, nil)
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		c.settle(domain.SessionAnonymous, nil)
		return nil
	}

	claims, err := c.decoder.Validate(raw, c.now())
	if err != nil {
		reason := discardReason(err)
		c.logger.Debug("discarding stored session", zap.String("reason", reason))
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.logger.Warn("failed to clear discarded session", zap.Error(clearErr))
		}
		c.settle(domain.SessionAnonymous, nil)
		c.publish(ctx, events.NewEvent(events.EventSessionDiscarded, c.clientID, "",
			events.SessionDiscardedPayload{Reason: reason}))
		return nil
	}

	user := claims.User()
	c.settle(domain.SessionAuthenticated, user)
	c.publish(ctx, events.NewEvent(events.EventSessionRestored, c.clientID, user.Role, nil))
	return nil
}

// SignIn exchanges credentials for a token and establishes the session.
// On failure the session is left exactly as it was and a *SignInError is returned.
func (c *Context) SignIn(ctx context.Context, identifier, password string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.authn.Login(ctx, authapi.NewLoginRequest(identifier, password))
	if err != nil {
		return c.failSignIn(ctx, c.classifyLoginError(err))
	}

	claims, err := c.decoder.Validate(resp.AccessToken, c.now())
	if err != nil {
		c.logger.Error("auth backend issued an unusable token", zap.Error(err))
		return c.failSignIn(ctx, &SignInError{Kind: KindContractViolation, Message: GenericSignInMessage, Err: err})
	}

	previous, hadPrevious, readErr := c.store.Read(ctx)
	if readErr != nil {
		c.logger.Warn("could not read current session before sign in", zap.Error(readErr))
		hadPrevious = false
	}

	if err := c.store.Write(ctx, resp.AccessToken, claims); err != nil {
		c.logger.Error("failed to persist session token", zap.Error(err))
		c.rollbackStore(ctx, previous, hadPrevious)
		return c.failSignIn(ctx, &SignInError{Kind: KindAuthenticationFailed, Message: GenericSignInMessage, Err: err})
	}

	user := claims.User()
	c.mu.Lock()
	c.status = domain.SessionAuthenticated
	c.user = user
	c.mu.Unlock()

	c.logger.Info("signed in", zap.String("role", string(user.Role)))
	c.publish(ctx, events.NewEvent(events.EventSignedIn, c.clientID, user.Role, nil))
	return nil
}

// SignOut clears the store and drops to anonymous. Safe to call when already anonymous.
func (c *Context) SignOut(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	previous := c.user.Clone()
	c.mu.RUnlock()

	clearErr := c.store.Clear(ctx)
	c.settle(domain.SessionAnonymous, nil)

	if previous != nil {
		c.publish(ctx, events.NewEvent(events.EventSignedOut, c.clientID, previous.Role, nil))
	}
	if clearErr != nil {
		c.logger.Warn("failed to clear session store on sign out", zap.Error(clearErr))
		return fmt.Errorf("sign out: %w", clearErr)
	}
	return nil
}

// rollbackStore puts back the token that was stored before a failed sign-in write,
// or clears the store when there was none or it cannot be rewritten.
func (c *Context) rollbackStore(ctx context.Context, previous string, hadPrevious bool) {
	if hadPrevious {
		claims, err := c.decoder.Decode(previous)
		if err == nil {
			if err = c.store.Write(ctx, previous, claims); err == nil {
				return
			}
		}
		c.logger.Warn("failed to restore previous session token", zap.Error(err))
	}
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear partially written session", zap.Error(err))
	}
}

func (c *Context) classifyLoginError(err error) *SignInError {
	var apiErr *authapi.APIError
	switch {
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = GenericSignInMessage
		}
		return &SignInError{Kind: KindAuthenticationFailed, Message: msg, Err: err}
	case errors.Is(err, authapi.ErrMalformedResponse):
		c.logger.Error("auth backend returned an unreadable response", zap.Error(err))
		return &SignInError{Kind: KindContractViolation, Message: GenericSignInMessage, Err: err}
	default:
		c.logger.Warn("sign in request failed", zap.Error(err))
		return &SignInError{Kind: KindAuthenticationFailed, Message: GenericSignInMessage, Err: err}
	}
}

func (c *Context) failSignIn(ctx context.Context, err *SignInError) error {
	c.publish(ctx, events.NewEvent(events.EventSignInFailed, c.clientID, "",
		events.SignInFailedPayload{Kind: string(err.Kind), Message: err.Message}))
	return err
}

func (c *Context) settle(status domain.SessionStatus, user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.user = user
	c.loading = false
}

func (c *Context) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

func (c *Context) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("session event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func discardReason(err error) string {
	switch {
	case token.IsDecodeError(err):
		return "malformed"
	case errors.Is(err, token.ErrMissingRole):
		return "missing_role"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	default:
		return "invalid"
	}
}
