package token

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Decoder turns raw access tokens into Claims. It performs no I/O.
type Decoder struct {
	verifyKey []byte
	parser    *jwt.Parser
}

// NewDecoder builds a decoder. With an empty secret the signature is not checked,
// which is the normal mode for the console since the backend owns the signing key.
func NewDecoder(verifySecret string) *Decoder {
	d := &Decoder{}
	if verifySecret != "" {
		d.verifyKey = []byte(verifySecret)
		d.parser = jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithoutClaimsValidation(),
		)
	} else {
		d.parser = jwt.NewParser()
	}
	return d
}

// Verifies reports whether signatures are checked.
func (d *Decoder) Verifies() bool {
	return len(d.verifyKey) > 0
}

// Decode parses raw into Claims. Expiry is not judged here.
func (d *Decoder) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &DecodeError{Err: ErrEmptyToken}
	}

	claims := &Claims{}
	if d.Verifies() {
		parsed, err := d.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return d.verifyKey, nil
		})
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		if !parsed.Valid {
			return nil, &DecodeError{Err: errors.New("invalid signature")}
		}
		return claims, nil
	}

	if _, _, err := d.parser.ParseUnverified(raw, claims); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return claims, nil
}

// Validate decodes raw and applies IsValid, reporting why a token is rejected.
func (d *Decoder) Validate(raw string, now time.Time) (*Claims, error) {
	claims, err := d.Decode(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Role) == "" {
		return claims, ErrMissingRole
	}
	if IsExpired(claims, now) {
		return claims, ErrExpired
	}
	return claims, nil
}

// IsExpired reports whether claims carry no expiry or an expiry at or before now.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(now)
}

// IsValid reports whether claims carry a role and a future expiry.
func IsValid(claims *Claims, now time.Time) bool {
	if claims == nil || strings.TrimSpace(claims.Role) == "" {
		return false
	}
	return !IsExpired(claims, now)
}
