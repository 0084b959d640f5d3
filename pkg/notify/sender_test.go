package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSenderSendText(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send_text", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer ts.Close()

	sender := NewHTTPSender(ts.URL, "secret", ts.Client())
	require.NoError(t, sender.SendText(context.Background(), "stream-1", "hello"))
	assert.Equal(t, map[string]string{"stream_id": "stream-1", "text": "hello"}, got)
}

func TestHTTPSenderSendImage(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send_image", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer ts.Close()

	sender := NewHTTPSender(ts.URL, "", ts.Client())

	t.Run("base64 payload", func(t *testing.T) {
		require.NoError(t, sender.SendImage(context.Background(), "s", ImagePayload{Base64: "aGk="}))
		assert.Equal(t, "aGk=", got["image_base64"])
	})

	t.Run("url payload", func(t *testing.T) {
		require.NoError(t, sender.SendImage(context.Background(), "s", ImagePayload{URL: "http://img/x.jpg"}))
		assert.Equal(t, "http://img/x.jpg", got["image_url"])
	})

	t.Run("file payload", func(t *testing.T) {
		require.NoError(t, sender.SendImage(context.Background(), "s", ImagePayload{File: "/tmp/x.jpg"}))
		assert.Equal(t, "/tmp/x.jpg", got["image_file"])
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		assert.ErrorContains(t, sender.SendImage(context.Background(), "s", ImagePayload{}), "empty image payload")
	})
}

func TestHTTPSenderRetries(t *testing.T) {
	t.Run("server error retried", func(t *testing.T) {
		var attempts int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}))
		defer ts.Close()

		sender := NewHTTPSender(ts.URL, "", ts.Client())
		require.NoError(t, sender.SendText(context.Background(), "s", "x"))
		assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	})

	t.Run("client error not retried", func(t *testing.T) {
		var attempts int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer ts.Close()

		sender := NewHTTPSender(ts.URL, "", ts.Client())
		assert.ErrorContains(t, sender.SendText(context.Background(), "s", "x"), "status 400")
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})
}

func TestCriticalErrorTerminal(t *testing.T) {
	base := errors.New("send api rejected /send_text: status 403")
	err := &criticalError{err: base}
	assert.True(t, errors.Is(err, errCritical), "repeater matches the sentinel via Is")
	assert.Equal(t, base, errors.Unwrap(err))
}
