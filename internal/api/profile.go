package api

import (
	"context"
	"encoding/json"
	"net/http"

	"mehnda-chinji/internal/domain"
)

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type RevokeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// UpdateProfile sends changed profile fields and returns the profile the
// backend stored, which may be nil when the backend does not echo it.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (domain.Profile, error) {
	var out struct {
		UserData domain.Profile `json:"userData"`
	}
	env, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/update-profile", body: fields, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	if out.UserData != nil {
		return out.UserData, nil
	}
	// some deployments answer with the bare profile
	var flat domain.Profile
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &flat); err == nil && flat.ID() != "" {
			return flat, nil
		}
	}
	return nil, nil
}

func (c *Client) DeleteAccount(ctx context.Context, req DeleteAccountRequest) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/delete-account", body: req, auth: true}, nil)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/change-password", body: req, auth: true}, nil)
	return err
}

func (c *Client) ActiveSessions(ctx context.Context) ([]domain.LoginSession, error) {
	var sessions []domain.LoginSession
	if _, err := c.call(ctx, request{method: http.MethodGet, path: "/api/user/v1/sessions", auth: true}, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/revoke-session", body: RevokeSessionRequest{SessionID: sessionID}, auth: true}, nil)
	return err
}

func (c *Client) SavePushToken(ctx context.Context, token string) error {
	_, err := c.call(ctx, request{method: http.MethodPost, path: "/api/user/v1/save-push-token", body: PushTokenRequest{PushToken: token}, auth: true}, nil)
	return err
}
