// Package api is the client for the remote mehnda-chinji backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/domain"
)

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// Error is a non-2xx (or success=false) answer from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the backend rejected the bearer token.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Envelope is the body shape of every backend response.
type Envelope struct {
	Success    *bool              `json:"success,omitempty"`
	Message    string             `json:"message,omitempty"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  logrus.FieldLogger
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		tokens:  cfg.Tokens,
		logger:  cfg.Logger.WithField("component", "api"),
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// raw performs the request and returns the undecoded body of a 2xx answer.
func (c *Client) raw(ctx context.Context, req request) ([]byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.auth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.logger.WithFields(logrus.Fields{"method": req.method, "path": req.path})
	log.Debug("api request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("api request failed")
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.path, err)
	}
	log = log.WithField("status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: messageOf(payload)}
		log.WithError(apiErr).Warn("api error response")
		return nil, apiErr
	}
	log.Debug("api response")
	return payload, nil
}

// call performs the request, checks the envelope and decodes its data into out.
func (c *Client) call(ctx context.Context, req request, out any) (*Envelope, error) {
	payload, err := c.raw(ctx, req)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.path, err)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", req.path, err)
		}
	}
	return env, nil
}

func decodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if len(bytes.TrimSpace(payload)) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, &Error{Status: http.StatusOK, Message: env.Message}
	}
	return &env, nil
}

func messageOf(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(payload))
}
