package session

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/console/internal/authapi"
	"github.com/tripflow/console/internal/domain"
	"github.com/tripflow/console/internal/events"
	"github.com/tripflow/console/internal/tokenstore"
)

func assertRoleExclusive(t *testing.T, snap Snapshot) {
	t.Helper()
	set := 0
	for _, flag := range []bool{snap.IsAdmin, snap.IsVendor, snap.IsDriver, snap.IsRider} {
		if flag {
			set++
		}
	}
	assert.LessOrEqual(t, set, 1)
	if snap.User == nil {
		assert.Zero(t, set)
	}
}

func TestNew_StartsInitializing(t *testing.T) {
	f := newFixture(t, "client-a")
	snap := f.ctx.Snapshot()
	assert.Equal(t, domain.SessionInitializing, snap.Status)
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.User)
	assertRoleExclusive(t, snap)
}

func TestContext_Restore(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		wantStatus domain.SessionStatus
		wantRole   domain.Role
		wantEvent  events.EventType
		cleared    bool
	}{
		{
			name:       "valid admin token",
			stored:     "admin",
			wantStatus: domain.SessionAuthenticated,
			wantRole:   domain.RoleAdmin,
			wantEvent:  events.EventSessionRestored,
		},
		{
			name:       "expired token",
			stored:     "expired",
			wantStatus: domain.SessionAnonymous,
			wantEvent:  events.EventSessionDiscarded,
			cleared:    true,
		},
		{
			name:       "token without expiry",
			stored:     "no-exp",
			wantStatus: domain.SessionAnonymous,
			wantEvent:  events.EventSessionDiscarded,
			cleared:    true,
		},
		{
			name:       "token without role",
			stored:     "no-role",
			wantStatus: domain.SessionAnonymous,
			wantEvent:  events.EventSessionDiscarded,
			cleared:    true,
		},
		{
			name:       "malformed token",
			stored:     "malformed",
			wantStatus: domain.SessionAnonymous,
			wantEvent:  events.EventSessionDiscarded,
			cleared:    true,
		},
	}

	tokens := map[string]string{
		"admin":   mintToken(t, jwt.MapClaims{"role": "ADMIN", "email": "root@tripflow.test", "name": "Root", "exp": fixedNow.Add(time.Hour).Unix()}),
		"expired": mintToken(t, jwt.MapClaims{"role": "ADMIN", "exp": fixedNow.Add(-time.Hour).Unix()}),
		"no-exp":  mintToken(t, jwt.MapClaims{"role": "ADMIN"}),
		"no-role": mintToken(t, jwt.MapClaims{"email": "x@y.z", "exp": fixedNow.Add(time.Hour).Unix()}),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, "client-a")
			if raw, ok := tokens[tt.stored]; ok {
				seed(t, f.store, raw)
			} else {
				require.NoError(t, f.backend.Set(ctx, f.store.Key(tokenstore.FieldToken), "not.a.jwt"))
				require.NoError(t, f.backend.Set(ctx, f.store.Key(tokenstore.FieldRole), "ADMIN"))
			}

			require.NoError(t, f.ctx.Restore(ctx))

			snap := f.ctx.Snapshot()
			assert.Equal(t, tt.wantStatus, snap.Status)
			assert.False(t, snap.Loading)
			assertRoleExclusive(t, snap)
			assert.Equal(t, []events.EventType{tt.wantEvent}, *f.events)

			if tt.wantStatus == domain.SessionAuthenticated {
				require.NotNil(t, snap.User)
				assert.Equal(t, tt.wantRole, snap.User.Role)
				assert.Equal(t, "root@tripflow.test", snap.User.Email)
				assert.Equal(t, "Root", snap.User.Name)
				assert.True(t, snap.IsAdmin)
			} else {
				assert.Nil(t, snap.User)
			}

			if tt.cleared {
				_, ok, err := f.store.Read(ctx)
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Zero(t, f.backend.Len())
			}
		})
	}
}

func TestContext_RestoreWithoutToken(t *testing.T) {
	f := newFixture(t, "client-a")
	require.NoError(t, f.ctx.Restore(context.Background()))

	snap := f.ctx.Snapshot()
	assert.Equal(t, domain.SessionAnonymous, snap.Status)
	assert.False(t, snap.Loading)
	assert.Empty(t, *f.events, "nothing to decode, nothing to announce")
}

func TestContext_RestoreIsIdempotent(t *testing.T) {
	for name, claims := range map[string]jwt.MapClaims{
		"valid":   {"role": "DRIVER", "driverId": 12, "exp": fixedNow.Add(time.Hour).Unix()},
		"expired": {"role": "DRIVER", "exp": fixedNow.Add(-time.Minute).Unix()},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "client-a")
			seed(t, f.store, mintToken(t, claims))

			require.NoError(t, f.ctx.Restore(context.Background()))
			first := f.ctx.Snapshot()
			require.NoError(t, f.ctx.Restore(context.Background()))
			assert.Equal(t, first, f.ctx.Snapshot())
		})
	}
}

func TestContext_RestoreStoreFailure(t *testing.T) {
	backend := tokenstore.NewMemoryBackend()
	store := &faultyStore{Store: tokenstore.New(backend, storePrefix, "client-a"), readErr: errors.New("redis down")}
	f := newFixtureWithStore(t, "client-a", backend, store)

	err := f.ctx.Restore(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.SessionAnonymous, f.ctx.Snapshot().Status)
	assert.False(t, f.ctx.Snapshot().Loading)
}

func TestContext_SignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "client-a")
	require.NoError(t, f.ctx.Restore(ctx))

	vendorToken := mintToken(t, jwt.MapClaims{
		"role":     "VENDOR",
		"phone":    "9000000000",
		"vendorId": 77,
		"exp":      fixedNow.Add(time.Hour).Unix(),
	})
	f.authn.On("Login", mock.Anything, authapi.LoginRequest{
		Identifier: "9000000000",
		Phone:      "9000000000",
		Password:   "123123",
	}).Run(func(mock.Arguments) {
		assert.True(t, f.ctx.Snapshot().Loading, "loading while the backend call is in flight")
	}).Return(&authapi.LoginResponse{AccessToken: vendorToken}, nil).Once()

	require.NoError(t, f.ctx.SignIn(ctx, "9000000000", "123123"))

	snap := f.ctx.Snapshot()
	assert.Equal(t, domain.SessionAuthenticated, snap.Status)
	assert.False(t, snap.Loading)
	assert.True(t, snap.IsVendor)
	assert.False(t, snap.IsAdmin || snap.IsDriver || snap.IsRider)
	assert.Equal(t, "9000000000", snap.User.Phone)

	raw, ok, err := f.store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, vendorToken, raw)
	vendorID, _, _ := f.backend.Get(ctx, f.store.Key(tokenstore.FieldVendorID))
	assert.Equal(t, "77", vendorID)
	role, _, _ := f.backend.Get(ctx, f.store.Key(tokenstore.FieldRole))
	assert.Equal(t, "VENDOR", role)

	assert.Equal(t, []events.EventType{events.EventSignedIn}, *f.events)
	f.authn.AssertExpectations(t)
}

func TestContext_SignInReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "client-a")
	seed(t, f.store, mintToken(t, jwt.MapClaims{"role": "VENDOR", "vendorId": "v-1", "email": "v@x.y", "exp": fixedNow.Add(time.Hour).Unix()}))
	require.NoError(t, f.ctx.Restore(ctx))

	riderToken := mintToken(t, jwt.MapClaims{"role": "RIDER", "riderId": "r-1", "exp": fixedNow.Add(time.Hour).Unix()})
	f.authn.On("Login", mock.Anything, mock.Anything).Return(&authapi.LoginResponse{AccessToken: riderToken}, nil)

	require.NoError(t, f.ctx.SignIn(ctx, "rider@x.y", "pw"))
	assert.True(t, f.ctx.Snapshot().IsRider)

	for _, field := range []string{tokenstore.FieldVendorID, tokenstore.FieldEmail} {
		_, ok, _ := f.backend.Get(ctx, f.store.Key(field))
		assert.False(t, ok, "%s from the vendor session must not survive", field)
	}
}

func TestContext_SignInFailures(t *testing.T) {
	noRole := mintToken(t, jwt.MapClaims{"email": "a@b.c", "exp": fixedNow.Add(time.Hour).Unix()})
	expired := mintToken(t, jwt.MapClaims{"role": "ADMIN", "exp": fixedNow.Add(-time.Hour).Unix()})

	tests := []struct {
		name        string
		identifier  string
		resp        *authapi.LoginResponse
		err         error
		wantKind    error
		wantMessage string
	}{
		{
			name:        "backend rejects with message",
			identifier:  "bad@x.com",
			err:         &authapi.APIError{StatusCode: 401, Message: "Invalid credentials"},
			wantKind:    ErrAuthenticationFailed,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "backend rejects with joined message",
			identifier:  "bad@x.com",
			err:         &authapi.APIError{StatusCode: 400, Message: "password too short, phone invalid"},
			wantKind:    ErrAuthenticationFailed,
			wantMessage: "password too short, phone invalid",
		},
		{
			name:        "backend rejects without message",
			identifier:  "9000000000",
			err:         &authapi.APIError{StatusCode: 500},
			wantKind:    ErrAuthenticationFailed,
			wantMessage: GenericSignInMessage,
		},
		{
			name:        "network failure",
			identifier:  "9000000000",
			err:         errors.New("dial tcp: connection refused"),
			wantKind:    ErrAuthenticationFailed,
			wantMessage: GenericSignInMessage,
		},
		{
			name:        "unreadable success body",
			identifier:  "a@b.com",
			err:         authapi.ErrMalformedResponse,
			wantKind:    ErrContractViolation,
			wantMessage: GenericSignInMessage,
		},
		{
			name:        "token without role",
			identifier:  "a@b.com",
			resp:        &authapi.LoginResponse{AccessToken: noRole},
			wantKind:    ErrContractViolation,
			wantMessage: GenericSignInMessage,
		},
		{
			name:        "already expired token",
			identifier:  "a@b.com",
			resp:        &authapi.LoginResponse{AccessToken: expired},
			wantKind:    ErrContractViolation,
			wantMessage: GenericSignInMessage,
		},
		{
			name:        "missing access token",
			identifier:  "a@b.com",
			resp:        &authapi.LoginResponse{},
			wantKind:    ErrContractViolation,
			wantMessage: GenericSignInMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, "client-a")
			existing := mintToken(t, jwt.MapClaims{"role": "ADMIN", "email": "root@tripflow.test", "exp": fixedNow.Add(time.Hour).Unix()})
			seed(t, f.store, existing)
			require.NoError(t, f.ctx.Restore(ctx))
			before := f.ctx.Snapshot()
			*f.events = nil

			if tt.resp != nil {
				f.authn.On("Login", mock.Anything, mock.Anything).Return(tt.resp, nil)
			} else {
				f.authn.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			err := f.ctx.SignIn(ctx, tt.identifier, "wrong")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMessage, err.Error())

			var signInErr *SignInError
			require.True(t, errors.As(err, &signInErr))

			after := f.ctx.Snapshot()
			assert.Equal(t, before, after, "session untouched by a failed sign in")
			assert.False(t, after.Loading)

			raw, ok, _ := f.store.Read(ctx)
			assert.True(t, ok)
			assert.Equal(t, existing, raw, "stored token untouched")
			assert.Equal(t, []events.EventType{events.EventSignInFailed}, *f.events)
		})
	}
}

func TestContext_SignInStoreWriteFailure(t *testing.T) {
	ctx := context.Background()
	newToken := mintToken(t, jwt.MapClaims{"role": "VENDOR", "vendorId": "v-9", "exp": fixedNow.Add(time.Hour).Unix()})

	t.Run("when anonymous", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		store := &faultyStore{Store: tokenstore.New(backend, storePrefix, "client-a"), writeErr: errors.New("disk full")}
		f := newFixtureWithStore(t, "client-a", backend, store)
		require.NoError(t, f.ctx.Restore(ctx))
		before := f.ctx.Snapshot()

		f.authn.On("Login", mock.Anything, mock.Anything).Return(&authapi.LoginResponse{AccessToken: newToken}, nil)

		err := f.ctx.SignIn(ctx, "a@b.com", "pw")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.Equal(t, before, f.ctx.Snapshot())
		assert.Zero(t, backend.Len())
	})

	t.Run("when already signed in", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		kv := tokenstore.New(backend, storePrefix, "client-a")
		store := &faultyStore{Store: kv, writeErr: errors.New("disk full"), writeFailures: 1}
		f := newFixtureWithStore(t, "client-a", backend, store)

		adminToken := mintToken(t, jwt.MapClaims{"role": "ADMIN", "email": "root@tripflow.test", "exp": fixedNow.Add(time.Hour).Unix()})
		seed(t, kv, adminToken)
		require.NoError(t, f.ctx.Restore(ctx))
		before := f.ctx.Snapshot()
		require.True(t, before.IsAdmin)

		f.authn.On("Login", mock.Anything, mock.Anything).Return(&authapi.LoginResponse{AccessToken: newToken}, nil)

		err := f.ctx.SignIn(ctx, "vendor@b.com", "pw")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.Equal(t, before, f.ctx.Snapshot())

		raw, ok, err := kv.Read(ctx)
		require.NoError(t, err)
		require.True(t, ok, "previous token survives a failed sign in")
		assert.Equal(t, adminToken, raw)
		email, _, _ := backend.Get(ctx, kv.Key(tokenstore.FieldEmail))
		assert.Equal(t, "root@tripflow.test", email)
		_, ok, _ = backend.Get(ctx, kv.Key(tokenstore.FieldVendorID))
		assert.False(t, ok)

		require.NoError(t, f.ctx.Restore(ctx))
		assert.Equal(t, before, f.ctx.Snapshot(), "memory and store still agree")
	})
}

func TestContext_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("when anonymous", func(t *testing.T) {
		f := newFixture(t, "client-a")
		require.NoError(t, f.ctx.Restore(ctx))

		require.NoError(t, f.ctx.SignOut(ctx))
		require.NoError(t, f.ctx.SignOut(ctx))
		assert.Equal(t, domain.SessionAnonymous, f.ctx.Snapshot().Status)
		assert.Empty(t, *f.events)
	})

	t.Run("when authenticated", func(t *testing.T) {
		f := newFixture(t, "client-a")
		seed(t, f.store, mintToken(t, jwt.MapClaims{"role": "RIDER", "riderId": "r-1", "exp": fixedNow.Add(time.Hour).Unix()}))
		require.NoError(t, f.ctx.Restore(ctx))
		require.True(t, f.ctx.Snapshot().IsRider)

		require.NoError(t, f.ctx.SignOut(ctx))

		snap := f.ctx.Snapshot()
		assert.Equal(t, domain.SessionAnonymous, snap.Status)
		assert.Nil(t, snap.User)
		assertRoleExclusive(t, snap)
		assert.Zero(t, f.backend.Len())
		assert.Equal(t, []events.EventType{events.EventSessionRestored, events.EventSignedOut}, *f.events)
	})

	t.Run("store failure still drops the session", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		store := &faultyStore{Store: tokenstore.New(backend, storePrefix, "client-a"), clearErr: errors.New("redis down")}
		f := newFixtureWithStore(t, "client-a", backend, store)
		seed(t, store, mintToken(t, jwt.MapClaims{"role": "ADMIN", "exp": fixedNow.Add(time.Hour).Unix()}))
		require.NoError(t, f.ctx.Restore(ctx))

		assert.Error(t, f.ctx.SignOut(ctx))
		assert.Equal(t, domain.SessionAnonymous, f.ctx.Snapshot().Status)
	})
}

func TestSnapshot_UserIsACopy(t *testing.T) {
	f := newFixture(t, "client-a")
	seed(t, f.store, mintToken(t, jwt.MapClaims{"role": "ADMIN", "name": "Root", "exp": fixedNow.Add(time.Hour).Unix()}))
	require.NoError(t, f.ctx.Restore(context.Background()))

	snap := f.ctx.Snapshot()
	snap.User.Role = domain.RoleRider
	assert.True(t, f.ctx.Snapshot().IsAdmin)
	assert.Equal(t, domain.RoleAdmin, f.ctx.Snapshot().User.Role)
}

func TestSignInError_Is(t *testing.T) {
	err := &SignInError{Kind: KindContractViolation, Message: GenericSignInMessage}
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
}
