package bili

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-pkgz/lgr"
)

const accInfoURL = "https://api.bilibili.com/x/space/wbi/acc/info"

// NameResolver resolves author UIDs to display names with an in-memory
// cache. A failed lookup returns an empty string, never an error - callers
// fall back to the "UID:<id>" form.
type NameResolver struct {
	client *Client
	apiURL string

	mu    sync.Mutex
	cache map[string]string
}

// NewNameResolver creates a resolver on top of the signed client.
func NewNameResolver(client *Client) *NameResolver {
	return &NameResolver{client: client, apiURL: accInfoURL, cache: map[string]string{}}
}

// Resolve returns the display name for uid, or "" when unresolved.
func (r *NameResolver) Resolve(ctx context.Context, uid string) string {
	r.mu.Lock()
	if name, ok := r.cache[uid]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	status, body, err := r.client.Get(ctx, r.apiURL, map[string]string{"mid": uid}, true)
	if err != nil || status != http.StatusOK {
		lgr.Printf("[DEBUG] name lookup failed for uid %s: status %d, %v", uid, status, err)
		return ""
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Code != 0 || resp.Data.Name == "" {
		return ""
	}

	r.mu.Lock()
	r.cache[uid] = resp.Data.Name
	r.mu.Unlock()
	return resp.Data.Name
}

// Put seeds the cache, used by the fetcher when an API payload already
// carries the name.
func (r *NameResolver) Put(uid, name string) {
	if uid == "" || name == "" {
		return
	}
	r.mu.Lock()
	r.cache[uid] = name
	r.mu.Unlock()
}
