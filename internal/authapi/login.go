package authapi

import (
	"encoding/json"
	"strings"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"password"`
}

// IsEmailLike reports whether identifier should be sent as an email.
func IsEmailLike(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// NewLoginRequest classifies identifier and always forwards it raw as well.
func NewLoginRequest(identifier, password string) LoginRequest {
	req := LoginRequest{Identifier: identifier, Password: password}
	if IsEmailLike(identifier) {
		req.Email = identifier
	} else {
		req.Phone = identifier
	}
	return req
}

// LoginResponse is the success body of POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Message is a backend error message sent as a string or a list of strings.
type Message string

// UnmarshalJSON joins list messages with ", ".
func (m *Message) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Message(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		// Unrecognised shapes carry no usable message.
		*m = ""
		return nil
	}
	*m = Message(strings.Join(list, ", "))
	return nil
}

type errorBody struct {
	Message Message `json:"message"`
}
