package bili

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNameResolver(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("mid") == "123" {
			w.Write([]byte(`{"code":0,"data":{"name":"alice"}}`))
			return
		}
		w.Write([]byte(`{"code":-404}`))
	}))
	defer ts.Close()

	client := NewClient(ClientConfig{HTTPClient: ts.Client(), Keys: &fixedKeys{}, MaxRetries: 1, BaseDelay: time.Millisecond})
	resolver := NewNameResolver(client)
	resolver.apiURL = ts.URL

	assert.Equal(t, "alice", resolver.Resolve(context.Background(), "123"))
	assert.Equal(t, "alice", resolver.Resolve(context.Background(), "123"), "second hit served from cache")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, "", resolver.Resolve(context.Background(), "999"), "miss is empty, not an error")

	resolver.Put("555", "seeded")
	assert.Equal(t, "seeded", resolver.Resolve(context.Background(), "555"))
}
