package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/niksmo/cardfinder/pkg/retry"
)

var _ port.CatalogService = (*Client)(nil)

const (
	cardsPath  = "/api/cards"
	searchPath = "/api/cards/search"

	defaultTimeout = 10 * time.Second
	maxErrBody     = 512
)

// A StatusError is a non-success answer of the catalog service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog responded %d", e.Code)
	}
	return fmt.Sprintf("catalog responded %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrServiceStatus
}

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// A Client reads cards from the catalog service over HTTP.
//
// Network failures are retried, answers of the service are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.RetryConfig
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry: retry.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			Backoff:     retry.LinearBackoff(cfg.RetryDelay),
			ShouldRetry: isNetworkErr,
		},
	}
}

// FetchCards sends GET /api/cards for an empty request and
// GET /api/cards/search otherwise.
func (c *Client) FetchCards(
	ctx context.Context, req domain.SearchRequest,
) ([]domain.Card, error) {
	const op = "Client.FetchCards"
	log := slog.With("op", op)

	target := c.url(req)

	cards, err := retry.DoWithResult(ctx, c.retry, func() ([]domain.Card, error) {
		cards, err := c.get(ctx, target)
		if err != nil && isNetworkErr(err) {
			log.Warn("catalog request failed", "url", target, "err", err)
		}
		return cards, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("cards received", "url", target, "nCards", len(cards))
	return cards, nil
}

func (c *Client) url(req domain.SearchRequest) string {
	if req.Empty() {
		return c.baseURL + cardsPath
	}
	return c.baseURL + searchPath + "?" + req.Encode()
}

func (c *Client) get(ctx context.Context, target string) ([]domain.Card, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	request.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		}
	}

	var dtos []cardDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf(
			"%w: malformed cards payload: %w", domain.ErrTransport, err,
		)
	}

	cards := make([]domain.Card, 0, len(dtos))
	for _, d := range dtos {
		cards = append(cards, d.toDomain())
	}
	return cards, nil
}

// isNetworkErr reports a failure of the round trip itself.
// Cancellation by the caller is not one.
func isNetworkErr(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr) &&
		!errors.Is(err, context.Canceled)
}
