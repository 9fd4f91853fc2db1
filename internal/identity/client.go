// Package identity is the client side of auth-service.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/shared/models"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the identity service.
type APIError struct {
	Status  int
	Message string
	Fields  models.FieldErrors
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity service returned %d", e.Status)
	}
	return e.Message
}

// Is lets callers match the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case models.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case models.ErrNotFound:
		return e.Status == http.StatusNotFound
	case models.ErrEmailTaken:
		return e.Status == http.StatusConflict
	}
	return false
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Login(ctx context.Context, input models.LoginInput) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/login", "", input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Register(ctx context.Context, input models.RegisterInput) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/register", "", input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var body struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/session", token, nil, &body); err != nil {
		return nil, err
	}
	return &body.User, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

// decodeError turns the services' {"error", "fields"} body into an error.
// A 400 with fields becomes a *models.ValidationError.
func decodeError(resp *http.Response) error {
	var body struct {
		Error  string             `json:"error"`
		Fields models.FieldErrors `json:"fields"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &body); err != nil {
		body.Error = strings.TrimSpace(string(data))
	}
	if resp.StatusCode == http.StatusBadRequest && len(body.Fields) > 0 {
		return &models.ValidationError{Fields: body.Fields}
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: body.Error, Fields: body.Fields}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

