package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
)

// Client wraps outbound HTTP with wbi signing and retry on transient
// failures. Transport-level failures are treated as status 0 and retried
// like rate limits.
type Client struct {
	httpc      *http.Client
	keys       KeyStore
	cookie     string
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
}

// ClientConfig holds signed-client settings.
type ClientConfig struct {
	HTTPClient *http.Client
	Keys       KeyStore
	Cookie     string // raw session cookie string, passed as-is
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
}

// NewClient creates a signed-request client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) biliwatch/1.0"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 4
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	return &Client{
		httpc:      cfg.HTTPClient,
		keys:       cfg.Keys,
		cookie:     cfg.Cookie,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
	}
}

// transient reports whether a status belongs to the retryable set.
func transient(status int) bool {
	return status == 0 || status == http.StatusPreconditionFailed ||
		status == http.StatusTooManyRequests || status >= 500
}

// Get performs a GET against rawURL with the given query parameters.
// When signed is true the query is wbi-signed. Transient statuses are
// retried with exponential backoff and jitter; anything else is returned
// to the caller immediately. A signature-rejection response triggers one
// key refresh and a single re-signed retry.
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string, signed bool) (status int, body []byte, err error) {
	status, body, err = c.getWithRetry(ctx, rawURL, params, signed)
	if err != nil {
		return status, body, err
	}

	if signed && sigRejected(body) {
		lgr.Printf("[WARN] signature rejected for %s, refreshing keys", rawURL)
		if rerr := c.keys.Refresh(ctx); rerr != nil {
			return status, body, fmt.Errorf("refresh wbi keys: %w", rerr)
		}
		return c.getWithRetry(ctx, rawURL, params, signed)
	}
	return status, body, nil
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string, params map[string]string, signed bool) (int, []byte, error) {
	var status int
	var body []byte

	retrier := repeater.NewBackoff(c.maxRetries, c.baseDelay,
		repeater.WithMaxDelay(10*time.Second), repeater.WithJitter(0.5))

	err := retrier.Do(ctx, func() error {
		var derr error
		status, body, derr = c.doOnce(ctx, rawURL, params, signed)
		if derr != nil {
			status = 0
			return derr // transport failure, retry
		}
		if transient(status) {
			return fmt.Errorf("transient status %d from %s", status, rawURL)
		}
		return nil
	})
	if err != nil {
		return status, body, fmt.Errorf("get %s: %w", rawURL, err)
	}
	return status, body, nil
}

func (c *Client) doOnce(ctx context.Context, rawURL string, params map[string]string, signed bool) (int, []byte, error) {
	query, err := c.buildQuery(ctx, params, signed)
	if err != nil {
		return 0, nil, err
	}

	u := rawURL
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://www.bilibili.com/")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) buildQuery(ctx context.Context, params map[string]string, signed bool) (string, error) {
	if !signed {
		return encodeQuery(params), nil
	}
	imgKey, subKey, err := c.keys.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("obtain wbi keys: %w", err)
	}
	return signQuery(params, imgKey, subKey, time.Now()), nil
}

func encodeQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	vals := url.Values{}
	for k, v := range params {
		vals.Set(k, v)
	}
	return vals.Encode() // sorted by key, deterministic for tests and logs
}

// sigRejected detects the upstream "signature rejected" API codes in an
// otherwise successful HTTP response.
func sigRejected(body []byte) bool {
	var envelope struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return envelope.Code == -403 || envelope.Code == -352
}
