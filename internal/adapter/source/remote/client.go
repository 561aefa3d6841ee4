// Package remote is the HTTP client for a homestead listing server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/homestead/internal/api"
	"github.com/mmcdole/homestead/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
	userAgent      = "Homestead/1.0"
)

// Client implements domain.ListingSource against the listing API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// retryDelay is the first backoff step; it doubles per attempt
	retryDelay time.Duration
}

var _ domain.ListingSource = (*Client)(nil)

// NewClient creates a new listing API client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     logger,
		retryDelay: baseRetryDelay,
	}
}

// statusError is a non-2xx reply that was not retried
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d - %s", e.code, e.message)
}

// doRequest performs an HTTP request to the listing API.
// Includes retry logic with exponential backoff for 5xx server errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, userID string, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = reqURL + "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if userID != "" {
			req.Header.Set(api.UserHeader, userID)
		}

		c.logger.Debug("listing api request", "method", method, "url", reqURL, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("listing api request failed", "error", err)
			return nil, domain.ErrServerOffline
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = fmt.Errorf("server error: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			c.logger.Warn("listing api server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, mapStatus(method, resp.StatusCode, respBody)
		}

		return respBody, nil
	}

	c.logger.Error("listing api request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

// mapStatus turns an error reply into the matching domain error
func mapStatus(method string, code int, body []byte) error {
	var payload api.ErrorResponse
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	switch code {
	case http.StatusUnauthorized:
		return domain.ErrAuthFailed
	case http.StatusForbidden:
		return domain.ErrNotOwner
	case http.StatusNotFound:
		return domain.ErrListingNotFound
	case http.StatusBadRequest:
		if method != http.MethodGet {
			return fmt.Errorf("%w: %s", domain.ErrInvalidListing, message)
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, message)
	default:
		return &statusError{code: code, message: message}
	}
}

// QueryListings implements domain.ListingRepository
func (c *Client) QueryListings(ctx context.Context, q domain.ListingQuery, after *domain.Cursor) ([]*domain.Listing, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.PageSize > api.MaxPageSize {
		return nil, fmt.Errorf("%w: page size %d above server limit %d", domain.ErrInvalidQuery, q.PageSize, api.MaxPageSize)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/listings", api.EncodeQuery(q, after), "", nil)
	if err != nil {
		return nil, err
	}

	var page api.PageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return page.Items, nil
}

// GetListing returns a listing by ID
func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/listings/"+url.PathEscape(id), nil, "", nil)
	if err != nil {
		return nil, err
	}
	return decodeListing(body)
}

// CreateListing creates a listing owned by l.OwnerID
func (c *Client) CreateListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	if err := l.CheckRequired(); err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/listings", nil, l.OwnerID, l)
	if err != nil {
		return nil, err
	}
	return decodeListing(body)
}

// UpdateListing replaces a listing owned by ownerID
func (c *Client) UpdateListing(ctx context.Context, ownerID string, l *domain.Listing) (*domain.Listing, error) {
	body, err := c.doRequest(ctx, http.MethodPut, "/listings/"+url.PathEscape(l.ID), nil, ownerID, l)
	if err != nil {
		return nil, err
	}
	return decodeListing(body)
}

// DeleteListing removes a listing owned by ownerID
func (c *Client) DeleteListing(ctx context.Context, ownerID, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/listings/"+url.PathEscape(id), nil, ownerID, nil)
	return err
}

func decodeListing(body []byte) (*domain.Listing, error) {
	var l domain.Listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &l, nil
}
