// Package api wraps the Taskwell REST API. The remote server is treated as
// an opaque collaborator: this package owns request construction, auth
// header/cookie handling, and error decoding, and nothing else. State lives
// in the session and todos stores, not here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/logging"
	"github.com/taskwell/core/pkg/events"
	"github.com/taskwell/core/pkg/models"
)

// identityPath is the one endpoint whose 401 must not raise the forced
// logout signal: it is how the client probes whether a session exists at
// all, so an unauthorized answer there is a normal outcome.
const identityPath = "/user/get_user"

// TokenSource supplies the persisted access token for bearer deployments.
type TokenSource interface {
	Token() (string, error)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string
	// AuthScheme is "bearer" or "cookie".
	AuthScheme string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// Tokens supplies the access token in bearer mode. May be nil in
	// cookie mode.
	Tokens TokenSource
	// AuthEvents receives the forced-logout signal on 401s. May be nil.
	AuthEvents *events.Bus
	// HTTPClient overrides the underlying client, used by tests.
	HTTPClient *http.Client
}

// Client calls the Taskwell REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	scheme     string
	tokens     TokenSource
	authEvents *events.Bus
	log        *logrus.Entry
}

// NewClient creates a Client. In cookie mode the client carries a cookie
// jar so the server-set session cookie is echoed automatically.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.AuthScheme == "cookie" && httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("api: create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		scheme:     opts.AuthScheme,
		tokens:     opts.Tokens,
		authEvents: opts.AuthEvents,
		log:        logging.NewLogger("api"),
	}, nil
}

// Login exchanges credentials for a session. The endpoint takes a
// form-encoded body, matching the server's OAuth2 password flow.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("api: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var auth models.AuthResponse
	if err := c.send(req, &auth, false); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Register creates a new account. It never authenticates; the role field is
// forced to "user" regardless of input.
func (c *Client) Register(ctx context.Context, req models.CreateUserRequest) error {
	req.Role = "user"
	return c.doJSON(ctx, http.MethodPost, "/auth/", req, nil)
}

// Logout invalidates the server-side session. Callers treat this as
// best-effort; local state is cleared regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the current identity. A 401 here is reported as an error but
// never raises the forced-logout signal.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doJSONExempt(ctx, http.MethodGet, identityPath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPut, "/user/update_user", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	return c.doJSON(ctx, http.MethodPatch, "/user/change_password", req, nil)
}

// DeleteAccount permanently removes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/user/delete_account", nil, nil)
}

// ListTodos returns every task owned by the authenticated user, in server
// order.
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo returns a single task by id.
func (c *Client) GetTodo(ctx context.Context, id int) (*models.Todo, error) {
	var todo models.Todo
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/todo/%d", id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo creates a task. The server assigns the id.
func (c *Client) CreateTodo(ctx context.Context, req models.CreateTodoRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/todo", req, nil)
}

// UpdateTodo replaces the task body for id.
func (c *Client) UpdateTodo(ctx context.Context, id int, req models.UpdateTodoRequest) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/todo/%d", id), req, nil)
}

// DeleteTodo removes the task with id.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/todo/%d", id), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, body, out, false)
}

// doJSONExempt is doJSON without the 401 forced-logout signal.
func (c *Client) doJSONExempt(ctx context.Context, method, path string, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, body, out, true)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}, exempt bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out, exempt)
}

// send executes the request, attaches auth, decodes the response, and
// raises the forced-logout signal on non-exempt 401s.
func (c *Client) send(req *http.Request, out interface{}, exempt bool) error {
	if c.scheme != "cookie" && c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			c.log.WithError(err).Debug("could not read access token")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && !exempt && c.authEvents != nil {
			c.log.WithField("path", req.URL.Path).Debug("401 on protected endpoint, signaling logout")
			c.authEvents.Publish()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeServer, "malformed response body")
	}
	return nil
}
