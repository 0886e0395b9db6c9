// Package authclient is the account API client used by storefront tooling.
// It holds the session tokens and renews the access token once when the API
// answers 401.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/address"
	"github.com/noah-isme/roller-shop/internal/auth"
	"github.com/noah-isme/roller-shop/internal/resilience"
)

var (
	ErrNotAuthenticated = errors.New("authclient: not authenticated")
	ErrNoRefreshToken   = errors.New("authclient: no refresh token")
)

// APIError carries the "error" field of a failed API response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client talks to the account API.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
	Logger  zerolog.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         *auth.User
}

// New returns a client for baseURL.
func New(baseURL string, httpClient resilience.HTTPClient, logger zerolog.Logger) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient, Logger: logger}
}

// SetTokens installs a session obtained elsewhere.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

// Tokens returns the current access and refresh token.
func (c *Client) Tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

// Authenticated reports whether an access token is held.
func (c *Client) Authenticated() bool {
	access, _ := c.Tokens()
	return access != ""
}

// CurrentUser returns the user of the last login or registration.
func (c *Client) CurrentUser() (auth.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return auth.User{}, false
	}
	return *c.user, true
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, in auth.RegisterInput) (auth.User, error) {
	var session auth.Session
	if err := c.call(ctx, http.MethodPost, "/api/auth/register", "", in, &session, "Registration failed"); err != nil {
		c.Logger.Error().Err(err).Msg("registration failed")
		return auth.User{}, err
	}
	c.store(session)
	c.Logger.Info().Str("email", session.User.Email).Msg("registration successful")
	return session.User, nil
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (auth.User, error) {
	body := map[string]string{"email": email, "password": password}
	var session auth.Session
	if err := c.call(ctx, http.MethodPost, "/api/auth/login", "", body, &session, "Login failed"); err != nil {
		c.Logger.Error().Err(err).Msg("login failed")
		return auth.User{}, err
	}
	c.store(session)
	c.Logger.Info().Str("email", session.User.Email).Msg("login successful")
	return session.User, nil
}

// Refresh exchanges the refresh token for a new access token. Any failure
// clears the session.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	_, refresh := c.Tokens()
	if refresh == "" {
		c.Logout()
		return "", ErrNoRefreshToken
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"refreshToken": refresh}
	if err := c.call(ctx, http.MethodPost, "/api/auth/refresh", "", body, &out, "Token refresh failed"); err != nil {
		c.Logger.Warn().Err(err).Msg("token refresh failed")
		c.Logout()
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.mu.Unlock()
	c.Logger.Debug().Msg("token refreshed")
	return out.AccessToken, nil
}

// Logout drops the local session.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
	c.user = nil
}

// Do performs an authenticated call. On 401 the access token is refreshed
// once and the request repeated.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token, _ := c.Tokens()
	if token == "" {
		return ErrNotAuthenticated
	}
	err := c.call(ctx, method, path, token, body, out, "API call failed")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	token, err = c.Refresh(ctx)
	if err != nil {
		return err
	}
	return c.call(ctx, method, path, token, body, out, "API call failed")
}

// Me returns the profile of the logged in user.
func (c *Client) Me(ctx context.Context) (auth.Profile, error) {
	var p auth.Profile
	err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &p)
	return p, err
}

func (c *Client) ListAddresses(ctx context.Context) ([]address.Address, error) {
	var out []address.Address
	err := c.Do(ctx, http.MethodGet, "/api/addresses", nil, &out)
	return out, err
}

func (c *Client) AddAddress(ctx context.Context, in address.Input) (address.Address, error) {
	var out address.Address
	err := c.Do(ctx, http.MethodPost, "/api/addresses", in, &out)
	return out, err
}

func (c *Client) UpdateAddress(ctx context.Context, id string, in address.Input) (address.Address, error) {
	var out address.Address
	err := c.Do(ctx, http.MethodPut, "/api/addresses/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/api/addresses/"+id, nil, nil)
}

func (c *Client) store(s auth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = s.AccessToken
	c.refreshToken = s.RefreshToken
	user := s.User
	c.user = &user
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: fallback}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
