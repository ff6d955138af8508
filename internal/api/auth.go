package api

import (
	"context"
	"net/http"

	"github.com/fyrsmithlabs/taskflow/internal/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

// Login exchanges an email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (session.AuthResult, error) {
	return c.authenticate(ctx, "login", "/auth/login", credentials{Email: email, Password: password})
}

// Register creates an account and returns its credential.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (session.AuthResult, error) {
	return c.authenticate(ctx, "register", "/auth/register",
		credentials{Email: email, Password: password, FullName: fullName})
}

func (c *Client) authenticate(ctx context.Context, op, path string, in credentials) (session.AuthResult, error) {
	body, err := c.send(ctx, op, http.MethodPost, path, in)
	if err != nil {
		return session.AuthResult{}, err
	}
	res, err := session.ParseAuthResponse(body, in.Email, in.FullName)
	if err != nil {
		return session.AuthResult{}, &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	return res, nil
}
