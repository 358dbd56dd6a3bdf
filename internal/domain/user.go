package domain

// User is the identity projected from session token claims.
type User struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

// Clone returns a copy so callers cannot mutate session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
