package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Client is the shared upstream HTTP client. Every call gets browser-like
// headers and a bounded exponential-backoff retry; format and logical
// errors stop the retry loop immediately.
type Client struct {
	http      *http.Client
	userAgent string
	attempts  int
	delay     time.Duration
	maxDelay  time.Duration
}

// ClientConfig holds client tuning knobs
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	Attempts  int
	Delay     time.Duration
	MaxDelay  time.Duration
}

// NewClient creates the shared upstream client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		attempts:  cfg.Attempts,
		delay:     cfg.Delay,
		maxDelay:  cfg.MaxDelay,
	}
}

// HTTP exposes the underlying http.Client for libraries that manage
// their own requests
func (c *Client) HTTP() *http.Client { return c.http }

// UserAgent returns the configured user agent string
func (c *Client) UserAgent() string { return c.userAgent }

// GetJSON fetches the URL and decodes the JSON body into out, retrying
// transient failures with backoff
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	return c.retry(ctx, func() error {
		body, err := c.get(ctx, url, headers)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return formatErr("decode json from %s: %w", url, err)
		}
		return nil
	})
}

// GetText fetches the URL and returns the raw body, retrying transient
// failures with backoff
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
	var body []byte
	err := c.retry(ctx, func() error {
		b, err := c.get(ctx, url, headers)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return string(body), err
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	retrier := repeater.NewBackoff(c.attempts, c.delay, repeater.WithMaxDelay(c.maxDelay), repeater.WithJitter(0.2))
	return retrier.Do(ctx, fn, ErrFormat, ErrLogical)
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, formatErr("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transientErr("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ferr := logicalErr("get %s: status %d", url, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			ferr = transientErr("get %s: status %d", url, resp.StatusCode)
		}
		ferr.Status = resp.StatusCode
		return nil, ferr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientErr("read body from %s: %w", url, err)
	}
	return body, nil
}

// ErrStatus extracts the HTTP status code from a fetch error, used by
// adapters that switch to a mirror on specific codes
func ErrStatus(err error) (int, bool) {
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status == 0 {
		return 0, false
	}
	return fe.Status, true
}
