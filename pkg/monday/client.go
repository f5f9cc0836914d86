// Package monday wraps the monday.com GraphQL API for board reads.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://api.monday.com/v2"
	defaultAPIVersion = "2023-10"
	defaultPageLimit  = 100
	defaultMaxRetries = 3
)

// Client defines the monday.com operations used by this application.
type Client interface {
	GetBoard(ctx context.Context, boardID string) (*Board, error)
}

// ClientOption configures the monday client.
type ClientOption func(*gqlClient)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(url string) ClientOption {
	return func(c *gqlClient) { c.baseURL = url }
}

// WithAPIVersion overrides the API-Version request header.
func WithAPIVersion(v string) ClientOption {
	return func(c *gqlClient) { c.apiVersion = v }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *gqlClient) { c.http = h }
}

// WithRateLimit overrides the default request rate (5 req/s). A rate
// of zero disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *gqlClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithMaxRetries overrides the attempt budget for failed requests.
func WithMaxRetries(n int) ClientOption {
	return func(c *gqlClient) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithPageLimit overrides the items_page page size.
func WithPageLimit(n int) ClientOption {
	return func(c *gqlClient) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

// gqlClient implements Client against the monday.com GraphQL endpoint.
type gqlClient struct {
	http       *http.Client
	token      string
	baseURL    string
	apiVersion string
	limiter    *rate.Limiter
	pageLimit  int
	maxRetries int
}

// NewClient creates a monday client with the given API token.
func NewClient(token string, opts ...ClientOption) Client {
	c := &gqlClient{
		http:       &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		limiter:    rate.NewLimiter(5, 5),
		pageLimit:  defaultPageLimit,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type columnValue struct {
	Column struct {
		Title string `json:"title"`
	} `json:"column"`
	Text *string `json:"text"`
}

type item struct {
	Name         string        `json:"name"`
	ColumnValues []columnValue `json:"column_values"`
}

type itemsPage struct {
	Cursor string `json:"cursor"`
	Items  []item `json:"items"`
}

type boardPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemsPage itemsPage `json:"items_page"`
}

const boardQuery = `query ($boardID: [ID!], $limit: Int!) {
  boards (ids: $boardID) {
    id
    name
    items_page (limit: $limit) {
      cursor
      items {
        name
        column_values {
          column { title }
          text
        }
      }
    }
  }
}`

const nextPageQuery = `query ($cursor: String!, $limit: Int!) {
  next_items_page (cursor: $cursor, limit: $limit) {
    cursor
    items {
      name
      column_values {
        column { title }
        text
      }
    }
  }
}`

// GetBoard fetches a board and flattens all of its items, following
// the items_page cursor until exhausted.
func (c *gqlClient) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	var resp struct {
		Data struct {
			Boards []boardPayload `json:"boards"`
		} `json:"data"`
		Errors []gqlError `json:"errors"`
	}
	err := c.do(ctx, gqlRequest{
		Query: boardQuery,
		Variables: map[string]any{
			"boardID": []string{boardID},
			"limit":   c.pageLimit,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("monday: graphql error: %s", resp.Errors[0].Message)
	}
	if len(resp.Data.Boards) == 0 {
		return nil, eris.Errorf("monday: board %s not found", boardID)
	}

	payload := resp.Data.Boards[0]
	board := newBoard(payload.ID, payload.Name)
	board.addItems(payload.ItemsPage.Items)

	cursor := payload.ItemsPage.Cursor
	for cursor != "" {
		page, err := c.nextPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		board.addItems(page.Items)
		cursor = page.Cursor
	}

	zap.L().Debug("fetched board",
		zap.String("board_id", board.ID),
		zap.String("board_name", board.Name),
		zap.Int("rows", len(board.Rows)),
		zap.Int("columns", len(board.Headers)),
	)
	return board, nil
}

func (c *gqlClient) nextPage(ctx context.Context, cursor string) (*itemsPage, error) {
	var resp struct {
		Data struct {
			NextItemsPage itemsPage `json:"next_items_page"`
		} `json:"data"`
		Errors []gqlError `json:"errors"`
	}
	err := c.do(ctx, gqlRequest{
		Query: nextPageQuery,
		Variables: map[string]any{
			"cursor": cursor,
			"limit":  c.pageLimit,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("monday: graphql error: %s", resp.Errors[0].Message)
	}
	return &resp.Data.NextItemsPage, nil
}

// do posts one GraphQL request with rate limiting and retry on 429
// and server errors.
func (c *gqlClient) do(ctx context.Context, req gqlRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "monday: marshal request")
	}

	var lastErr error
	for attempt := range c.maxRetries {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "monday: rate limit")
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "monday: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", c.token)
		httpReq.Header.Set("API-Version", c.apiVersion)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			lastErr = err
			zap.L().Warn("monday request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if attempt < c.maxRetries-1 {
				c.backoff(ctx, attempt)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("monday: http %d", resp.StatusCode)
			zap.L().Warn("monday request rejected, retrying",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			if attempt < c.maxRetries-1 {
				c.backoff(ctx, attempt)
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close() //nolint:errcheck
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return eris.Errorf("monday: unexpected status %d: %s", resp.StatusCode, snippet)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return eris.Wrap(err, "monday: decode response")
		}
		return nil
	}

	return eris.Wrap(lastErr, fmt.Sprintf("monday: all %d attempts failed", c.maxRetries))
}

func (c *gqlClient) backoff(ctx context.Context, attempt int) {
	base := time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > 15*time.Second {
		d = 15 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
