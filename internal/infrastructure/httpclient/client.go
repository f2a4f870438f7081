package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const maxBody = 16 << 20

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Body)
}

// Options configures timeouts and the retry policy.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	UserAgent  string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	Body        []byte
	ContentType string
}

// Client executes HTTP requests through a failsafe retry policy.
type Client struct {
	http      *http.Client
	executor  failsafe.Executor[Response]
	userAgent string
}

// New builds a client from options, filling zero values from DefaultOptions.
func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = def.BaseDelay
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}

	retry := retrypolicy.NewBuilder[Response]().
		HandleIf(func(_ Response, err error) bool { return Retryable(err) }).
		WithBackoff(opts.BaseDelay, opts.MaxDelay).
		WithJitterFactor(0.1).
		WithMaxRetries(opts.MaxRetries).
		Build()

	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		executor:  failsafe.With[Response](retry),
		userAgent: opts.UserAgent,
	}
}

// Retryable reports whether err is worth another attempt: network errors,
// rate limits and server errors.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return true
}

// Get fetches url with optional headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req, headers)
		return req, nil
	})
}

// PostJSON marshals payload and posts it to url.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		setHeaders(req, headers)
		return req, nil
	})
}

// Do builds a fresh request per attempt and returns the read body.
func (c *Client) Do(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) (Response, error) {
	return c.executor.WithContext(ctx).Get(func() (Response, error) {
		req, err := newRequest(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("new request: %w", err)
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return Response{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return Response{}, &StatusError{
				Code:   resp.StatusCode,
				Status: resp.Status,
				Body:   strings.TrimSpace(string(payload)),
			}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return Response{}, fmt.Errorf("read body: %w", err)
		}
		return Response{Body: data, ContentType: resp.Header.Get("Content-Type")}, nil
	})
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
