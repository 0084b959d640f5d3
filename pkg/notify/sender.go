package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// ImagePayload is one of the three image encodings a channel may accept:
// inline base64, a remote URL the channel fetches itself, or a local file
// reference. Exactly one field is set.
type ImagePayload struct {
	Base64 string
	URL    string
	File   string
}

// Sender is the outbound delivery channel. The dispatcher does not assume
// which image encoding the channel prefers and tries all three in order.
type Sender interface {
	SendText(ctx context.Context, dest, text string) error
	SendImage(ctx context.Context, dest string, img ImagePayload) error
}

// HTTPSender delivers messages to a send-API endpoint over HTTP.
type HTTPSender struct {
	endpoint string
	token    string
	httpc    *http.Client
}

// NewHTTPSender creates a sender for the given send-API base URL.
func NewHTTPSender(endpoint, token string, httpc *http.Client) *HTTPSender {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSender{endpoint: endpoint, token: token, httpc: httpc}
}

// SendText posts a text message to the destination stream.
func (s *HTTPSender) SendText(ctx context.Context, dest, text string) error {
	return s.post(ctx, "/send_text", map[string]string{"stream_id": dest, "text": text})
}

// SendImage posts one image to the destination stream.
func (s *HTTPSender) SendImage(ctx context.Context, dest string, img ImagePayload) error {
	body := map[string]string{"stream_id": dest}
	switch {
	case img.Base64 != "":
		body["image_base64"] = img.Base64
	case img.URL != "":
		body["image_url"] = img.URL
	case img.File != "":
		body["image_file"] = img.File
	default:
		return fmt.Errorf("empty image payload")
	}
	return s.post(ctx, "/send_image", body)
}

// post delivers one request, retrying rate limits and server errors with
// backoff.
func (s *HTTPSender) post(ctx context.Context, path string, payload map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	retrier := repeater.NewBackoff(3, 500*time.Millisecond, repeater.WithMaxDelay(5*time.Second))
	return retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, bytes.NewReader(data))
		if err != nil {
			return &criticalError{err: fmt.Errorf("create request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("post %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("send api status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 300 {
			return &criticalError{err: fmt.Errorf("send api rejected %s: status %d", path, resp.StatusCode)}
		}
		return nil
	}, errCritical)
}

// errCritical is the terminal sentinel handed to repeater; Do stops retrying
// on any error matching it.
var errCritical = errors.New("critical error")

// criticalError wraps an error so repeater recognizes it as terminal.
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

// Is matches the terminal sentinel, which is how repeater's Do decides to
// stop.
func (e *criticalError) Is(target error) bool { return target == errCritical }
