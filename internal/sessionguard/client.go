// Package sessionguard is the client half of the session contract: a typed
// client for the auth gateway plus the page-load guard that decides whether
// a visitor may stay on a portal page. It mirrors what the browser front end
// does on every page load.
package sessionguard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned by Login when the gateway rejects the
// email/password pair. The gateway never says which of the two was wrong.
var ErrInvalidCredentials = errors.New("sessionguard: invalid credentials")

// Client wraps the auth gateway HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a gateway client with sensible defaults.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignupForm carries the signup fields as the gateway expects them.
type SignupForm struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Age               int    `json:"age"`
	Phone             string `json:"phone"`
	BackupPhone       string `json:"backupPhone"`
	SchoolName        string `json:"schoolName"`
	Email             string `json:"email"`
	UserType          string `json:"userType"`
	Grade             string `json:"grade"`
	SchoolCode        string `json:"schoolCode"`
	Password          string `json:"password"`
	CommercialConsent bool   `json:"commercialConsent"`
}

// LoginResult is the gateway's answer to a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

// SessionStatus is the gateway's answer to a session check.
type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role"`
	Email         string `json:"email"`
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, form SignupForm) error {
	resp, err := c.postJSON(ctx, "/api/signup", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signup rejected: %s", gatewayError(resp))
	}
	return nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	resp, err := c.postJSON(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return LoginResult{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return LoginResult{}, fmt.Errorf("login failed: %s", gatewayError(resp))
	}
	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return LoginResult{}, fmt.Errorf("decode login response: %w", err)
	}
	return result, nil
}

// VerifySession asks the gateway whether the given credential is live. The
// credential travels as a bearer header; an empty credential is still sent
// so the caller gets the gateway's authoritative "not authenticated".
func (c *Client) VerifySession(ctx context.Context, credential string) (SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/verify-session", nil)
	if err != nil {
		return SessionStatus{}, err
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return SessionStatus{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return SessionStatus{}, fmt.Errorf("verify-session status %d", resp.StatusCode)
	}
	var status SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return SessionStatus{}, fmt.Errorf("decode session status: %w", err)
	}
	return status, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func gatewayError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return body.Error
}
