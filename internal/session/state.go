package session

import (
	"errors"

	"github.com/fyrsmithlabs/taskflow/internal/config"
)

var (
	// ErrNoCredential indicates an operation requires a signed-in session.
	ErrNoCredential = errors.New("no credential")

	// ErrNoToken indicates an authentication response carried no token.
	ErrNoToken = errors.New("authentication response has no token")
)

// Profile identifies the signed-in user. ID is zero when the service did
// not report one.
type Profile struct {
	ID       int64  `json:"id,omitempty" toml:"id,omitempty"`
	Email    string `json:"email" toml:"email"`
	FullName string `json:"fullName,omitempty" toml:"full_name,omitempty"`
}

// State is the persisted session: a credential and the profile it belongs to.
type State struct {
	Token   config.Secret
	Profile *Profile
}

// Authenticated reports whether s carries a credential.
func (s State) Authenticated() bool {
	return s.Token.IsSet()
}
