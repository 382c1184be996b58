package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/config"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
)

// Client talks to the remote user-management API on behalf of one browsing
// session. Public endpoints (login, register, refresh, logout) go out on a
// plain client and never trigger renewal; protected endpoints go through the
// authenticated gateway. Both share a cookie jar so the httpOnly refresh
// cookie set at login is presented on renewal, without application code ever
// reading it.
type Client struct {
	baseURL string
	public  *http.Client
	private *http.Client
	gateway *Gateway
}

// ClientOptions bundles client dependencies.
type ClientOptions struct {
	Config     config.APIConfig
	Store      CredentialStore
	Identity   IdentityClearer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	SessionID  string
	Now        func() time.Time
}

// NewClient builds a per-session API client.
func NewClient(opts ClientOptions) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: strings.TrimRight(opts.Config.BaseURL, "/"),
	}
	c.public = &http.Client{
		Jar:     jar,
		Timeout: opts.Config.RequestTimeout(),
	}
	c.gateway = NewGateway(GatewayOptions{
		Store:        opts.Store,
		Identity:     opts.Identity,
		Renew:        c.Refresh,
		RenewTimeout: opts.Config.RefreshTimeout(),
		Now:          opts.Now,
		Dispatcher:   opts.Dispatcher,
		Metrics:      opts.Metrics,
		Logger:       opts.Logger,
		SessionID:    opts.SessionID,
	})
	c.private = &http.Client{
		Jar:       jar,
		Timeout:   opts.Config.RequestTimeout(),
		Transport: c.gateway,
	}
	return c
}

// Gateway exposes the renewal coordinator so session restoration shares the
// same single flight as in-request renewals.
func (c *Client) Gateway() *Gateway {
	return c.gateway
}

// Login exchanges credentials for an access token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, c.public, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out User
	if err := c.do(ctx, c.public, http.MethodPost, "/auth/register", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the server-held refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out RefreshResponse
	if err := c.do(ctx, c.public, http.MethodPost, "/auth/refresh", nil, nil, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Logout invalidates the server-side refresh session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, c.public, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me fetches the authenticated user's record.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, c.private, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe changes the authenticated user's display name.
func (c *Client) UpdateMe(ctx context.Context, name string) (*User, error) {
	var out User
	if err := c.do(ctx, c.private, http.MethodPatch, "/users/me", nil, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePassword changes the authenticated user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.do(ctx, c.private, http.MethodPatch, "/users/password", nil, map[string]string{"password": password}, nil)
}

// ListUsers fetches a filtered, sorted page of users.
func (c *Client) ListUsers(ctx context.Context, q ListQuery) (*UserPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("sortBy", q.SortBy)
	params.Set("order", q.Order)
	if q.Role != "" {
		params.Set("role", q.Role)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var out UserPage
	if err := c.do(ctx, c.private, http.MethodGet, "/users", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInactiveUsers fetches a page of users with no recent login.
func (c *Client) ListInactiveUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var out UserPage
	if err := c.do(ctx, c.private, http.MethodGet, "/users/inactives", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, c.private, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// do issues one JSON request and decodes the response into out when non-nil.
// Non-2xx responses are returned as *APIError values, never panics.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError turns an error response into an APIError, tolerating both
// enveloped and flat error payloads.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		} else if envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
