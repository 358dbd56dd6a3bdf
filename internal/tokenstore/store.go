package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripflow/console/internal/token"
)

// Persisted field names, one key each under the client namespace.
const (
	FieldToken    = "token"
	FieldRole     = "role"
	FieldEmail    = "email"
	FieldVendorID = "vendorId"
	FieldRiderID  = "riderId"
	FieldDriverID = "driverId"
)

var allFields = []string{FieldToken, FieldRole, FieldEmail, FieldVendorID, FieldRiderID, FieldDriverID}

// Backend is a durable string key-value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Store persists the session token of one client runtime.
type Store interface {
	Write(ctx context.Context, raw string, claims *token.Claims) error
	Read(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// KVStore implements Store over a Backend, namespacing keys per client.
type KVStore struct {
	backend   Backend
	namespace string
}

var _ Store = (*KVStore)(nil)

// New creates a store for clientID under prefix.
func New(backend Backend, prefix, clientID string) *KVStore {
	return &KVStore{backend: backend, namespace: prefix + ":" + clientID}
}

// Key returns the backend key for field.
func (s *KVStore) Key(field string) string {
	return s.namespace + ":" + field
}

// Write stores raw and the denormalized claim fields. Optional fields absent from
// claims are deleted so values from an earlier session never survive.
func (s *KVStore) Write(ctx context.Context, raw string, claims *token.Claims) error {
	if raw == "" {
		return errors.New("refusing to store empty token")
	}
	if claims == nil {
		return errors.New("refusing to store token without claims")
	}

	if err := s.backend.Set(ctx, s.Key(FieldToken), raw); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	optional := []struct {
		field string
		value string
	}{
		{FieldRole, string(claims.DomainRole())},
		{FieldEmail, claims.Email},
		{FieldVendorID, claims.VendorID.String()},
		{FieldRiderID, claims.RiderID.String()},
		{FieldDriverID, claims.DriverID.String()},
	}

	var stale []string
	for _, f := range optional {
		if f.value == "" {
			stale = append(stale, s.Key(f.field))
			continue
		}
		if err := s.backend.Set(ctx, s.Key(f.field), f.value); err != nil {
			return fmt.Errorf("store %s: %w", f.field, err)
		}
	}
	if len(stale) > 0 {
		if err := s.backend.Delete(ctx, stale...); err != nil {
			return fmt.Errorf("drop stale fields: %w", err)
		}
	}
	return nil
}

// Read returns the stored raw token. It performs no validation.
func (s *KVStore) Read(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.backend.Get(ctx, s.Key(FieldToken))
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if !ok || raw == "" {
		return "", false, nil
	}
	return raw, true, nil
}

// Clear removes the token and every denormalized field. Safe to repeat.
func (s *KVStore) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(allFields))
	for _, f := range allFields {
		keys = append(keys, s.Key(f))
	}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session store: %w", err)
	}
	return nil
}
