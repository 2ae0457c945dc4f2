package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
)

var _ port.Authenticator = (*Client)(nil)

const (
	loginPath      = "/api/users/login"
	defaultTimeout = 5 * time.Second
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// A Client checks credentials against the users endpoint of the catalog
// backend. It keeps no state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Authenticate returns [domain.ErrInvalidCredentials] for a 4xx answer and
// [domain.ErrAuthUnavailable] when the backend cannot be asked.
func (c *Client) Authenticate(
	ctx context.Context, cr port.Credentials,
) (port.Identity, error) {
	const op = "Client.Authenticate"
	log := slog.With("op", op)

	body, err := json.Marshal(loginRequest{Email: cr.Email, Password: cr.Password})
	if err != nil {
		return port.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body),
	)
	if err != nil {
		return port.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("login request failed", "err", err)
		return port.Identity{}, fmt.Errorf(
			"%s: %w: %w", op, domain.ErrAuthUnavailable, err,
		)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return port.Identity{}, fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidCredentials,
		)
	default:
		log.Error("unexpected login status", "status", resp.StatusCode)
		return port.Identity{}, fmt.Errorf(
			"%s: %w: status %d", op, domain.ErrAuthUnavailable, resp.StatusCode,
		)
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return port.Identity{}, fmt.Errorf(
			"%s: %w: %w", op, domain.ErrAuthUnavailable, err,
		)
	}

	if u.Email == "" {
		u.Email = cr.Email
	}
	return port.Identity{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}
