package session

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/console/internal/authapi"
	"github.com/tripflow/console/internal/events"
	"github.com/tripflow/console/internal/token"
	"github.com/tripflow/console/internal/tokenstore"
)

const storePrefix = "tripflow:console"

var fixedNow = time.Unix(1_750_000_000, 0)

// MockAuthenticator is a mock implementation of Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authapi.LoginResponse), args.Error(1)
}

// faultyStore overrides parts of a real store with failures or a blocking read.
type faultyStore struct {
	tokenstore.Store
	readErr     error
	writeErr    error
	clearErr    error
	readStarted chan struct{}
	readGate    chan struct{}

	// writeFailures limits how many writes fail with writeErr; zero fails them all.
	writeFailures int
	writes        int
}

func (s *faultyStore) Read(ctx context.Context) (string, bool, error) {
	if s.readStarted != nil {
		close(s.readStarted)
		<-s.readGate
	}
	if s.readErr != nil {
		return "", false, s.readErr
	}
	return s.Store.Read(ctx)
}

func (s *faultyStore) Write(ctx context.Context, raw string, claims *token.Claims) error {
	s.writes++
	if s.writeErr != nil && (s.writeFailures == 0 || s.writes <= s.writeFailures) {
		return s.writeErr
	}
	return s.Store.Write(ctx, raw, claims)
}

func (s *faultyStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Store.Clear(ctx)
}

type fixture struct {
	backend *tokenstore.MemoryBackend
	store   *tokenstore.KVStore
	authn   *MockAuthenticator
	events  *[]events.EventType
	ctx     *Context
}

func newFixture(t *testing.T, clientID string) *fixture {
	t.Helper()
	backend := tokenstore.NewMemoryBackend()
	return newFixtureWithStore(t, clientID, backend, tokenstore.New(backend, storePrefix, clientID))
}

func newFixtureWithStore(t *testing.T, clientID string, backend *tokenstore.MemoryBackend, store tokenstore.Store) *fixture {
	t.Helper()
	authn := new(MockAuthenticator)
	seen := &[]events.EventType{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventSessionRestored, events.EventSessionDiscarded,
		events.EventSignedIn, events.EventSignInFailed, events.EventSignedOut,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			*seen = append(*seen, e.Type)
			return nil
		})
	}

	kv, _ := store.(*tokenstore.KVStore)
	return &fixture{
		backend: backend,
		store:   kv,
		authn:   authn,
		events:  seen,
		ctx: New(Dependencies{
			ClientID:      clientID,
			Store:         store,
			Decoder:       token.NewDecoder(""),
			Authenticator: authn,
			Dispatcher:    dispatcher,
			Clock:         func() time.Time { return fixedNow },
		}),
	}
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return raw
}

func seed(t *testing.T, store tokenstore.Store, raw string) {
	t.Helper()
	claims, err := token.NewDecoder("").Decode(raw)
	require.NoError(t, err)
	require.NoError(t, store.Write(context.Background(), raw, claims))
}
