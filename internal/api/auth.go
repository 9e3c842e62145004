package api

import (
	"context"
	"fmt"
	"net/http"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city,omitempty"`
	Village  string `json:"village,omitempty"`
}

// Signup creates an account. The raw response is the login payload handed
// to the session manager.
func (c *Client) Signup(ctx context.Context, req SignupRequest) ([]byte, error) {
	return c.authPayload(ctx, "/auth/user/signup-with-email", req)
}

// Login exchanges credentials for the login payload.
func (c *Client) Login(ctx context.Context, req LoginRequest) ([]byte, error) {
	return c.authPayload(ctx, "/auth/user/login-with-email", req)
}

func (c *Client) authPayload(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := c.raw(ctx, request{method: http.MethodPost, path: path, body: body})
	if err != nil {
		return nil, err
	}
	if _, err := decodeEnvelope(payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return payload, nil
}

// Logout ends the current login on the backend.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/auth/user/logout", body: struct{}{}, auth: true}, nil)
	return err
}
