package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/taskflow/internal/config"
)

// AuthResult is a decoded login or registration response.
type AuthResult struct {
	Token   config.Secret
	Profile Profile
}

type authResponse struct {
	Token    string   `json:"token"`
	User     *Profile `json:"user"`
	UserID   int64    `json:"userId"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
}

// ParseAuthResponse decodes a login or registration body. The profile is
// taken from a nested "user" object, else from flat userId/email/fullName
// fields, else built from the submitted email and full name.
func ParseAuthResponse(body []byte, email, fullName string) (AuthResult, error) {
	var r authResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return AuthResult{}, fmt.Errorf("decoding auth response: %w", err)
	}
	if strings.TrimSpace(r.Token) == "" {
		return AuthResult{}, ErrNoToken
	}

	var p Profile
	switch {
	case r.User != nil && r.User.Email != "":
		p = *r.User
	case r.Email != "":
		p = Profile{ID: r.UserID, Email: r.Email, FullName: r.FullName}
	default:
		p = Profile{Email: email, FullName: fullName}
	}
	return AuthResult{Token: config.Secret(r.Token), Profile: p}, nil
}
