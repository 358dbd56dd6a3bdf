package token

import (
	"encoding/json"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/tripflow/console/internal/domain"
)

// Claims is the payload of a console access token issued by the backend.
type Claims struct {
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Name     string `json:"name,omitempty"`
	VendorID RefID  `json:"vendorId,omitempty"`
	RiderID  RefID  `json:"riderId,omitempty"`
	DriverID RefID  `json:"driverId,omitempty"`
	jwt.RegisteredClaims
}

// DomainRole returns the normalised role claim.
func (c *Claims) DomainRole() domain.Role {
	return domain.ParseRole(c.Role)
}

// User projects the identity fields of the claims.
func (c *Claims) User() *domain.User {
	return &domain.User{
		Email: c.Email,
		Phone: c.Phone,
		Role:  c.DomainRole(),
		Name:  c.Name,
	}
}

// RefID is a backend entity reference. The backend sends either strings or numbers.
type RefID string

// UnmarshalJSON accepts a JSON string, number or null.
func (r *RefID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = RefID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("reference id: %w", err)
	}
	*r = RefID(n.String())
	return nil
}

func (r RefID) String() string {
	return string(r)
}
