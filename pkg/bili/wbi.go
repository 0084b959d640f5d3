package bili

import (
	"context"
	"crypto/md5" //nolint:gosec // upstream signature scheme requires md5
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// mixinTab is the fixed public permutation mixing the two raw wbi keys into
// the 32-character signing key.
var mixinTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

const keyFreshness = time.Hour

// KeyStore supplies the rotating wbi key pair. The HTTP-backed implementation
// caches keys for an hour; tests substitute a fixed pair.
type KeyStore interface {
	Keys(ctx context.Context) (imgKey, subKey string, err error)
	Refresh(ctx context.Context) error
}

// NavKeyStore obtains wbi keys from the nav metadata endpoint and caches
// them for the freshness window.
type NavKeyStore struct {
	client  *http.Client
	navURL  string
	headers map[string]string

	mu        sync.Mutex
	imgKey    string
	subKey    string
	fetchedAt time.Time
}

// NewNavKeyStore creates a key store backed by the given nav endpoint.
func NewNavKeyStore(client *http.Client, navURL string, headers map[string]string) *NavKeyStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if navURL == "" {
		navURL = "https://api.bilibili.com/x/web-interface/nav"
	}
	return &NavKeyStore{client: client, navURL: navURL, headers: headers}
}

// Keys returns the cached key pair, fetching fresh keys when the cache is
// empty or older than the freshness window.
func (s *NavKeyStore) Keys(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imgKey != "" && time.Since(s.fetchedAt) < keyFreshness {
		return s.imgKey, s.subKey, nil
	}
	if err := s.fetchLocked(ctx); err != nil {
		return "", "", err
	}
	return s.imgKey, s.subKey, nil
}

// Refresh drops the cache and fetches a fresh pair immediately. Called when
// the upstream rejects a signature mid-window.
func (s *NavKeyStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(ctx)
}

func (s *NavKeyStore) fetchLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.navURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create nav request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch wbi keys: %w", err)
	}
	defer resp.Body.Close()

	var nav struct {
		Data struct {
			WbiImg struct {
				ImgURL string `json:"img_url"`
				SubURL string `json:"sub_url"`
			} `json:"wbi_img"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&nav); err != nil {
		return fmt.Errorf("decode nav response: %w", err)
	}

	img := keyFromURL(nav.Data.WbiImg.ImgURL)
	sub := keyFromURL(nav.Data.WbiImg.SubURL)
	if img == "" || sub == "" {
		return fmt.Errorf("nav response carries no wbi keys")
	}

	s.imgKey, s.subKey, s.fetchedAt = img, sub, time.Now()
	lgr.Printf("[DEBUG] wbi keys refreshed")
	return nil
}

// keyFromURL extracts the key from a wbi image URL, e.g.
// https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png -> 7cd0...
func keyFromURL(u string) string {
	base := path.Base(u)
	return strings.TrimSuffix(base, path.Ext(base))
}

// mixinKey folds the two raw keys through the permutation table and takes
// the first 32 characters.
func mixinKey(imgKey, subKey string) string {
	raw := imgKey + subKey
	var b strings.Builder
	b.Grow(32)
	for _, idx := range mixinTab {
		if idx < len(raw) {
			b.WriteByte(raw[idx])
		}
	}
	key := b.String()
	if len(key) > 32 {
		key = key[:32]
	}
	return key
}

// signQuery adds wts and w_rid parameters to params and returns the encoded
// query string. Parameter values are stripped of the disallowed character
// set before encoding.
func signQuery(params map[string]string, imgKey, subKey string, now time.Time) string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = stripUnsafe(v)
	}
	signed["wts"] = strconv.FormatInt(now.Unix(), 10)

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var q strings.Builder
	for i, k := range keys {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString(url.QueryEscape(k))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(signed[k]))
	}

	sum := md5.Sum([]byte(q.String() + mixinKey(imgKey, subKey))) //nolint:gosec // upstream scheme
	q.WriteString("&w_rid=")
	q.WriteString(hex.EncodeToString(sum[:]))
	return q.String()
}

// stripUnsafe removes the characters the signature scheme disallows in
// parameter values.
func stripUnsafe(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '!', '\'', '(', ')', '*':
			return -1
		}
		return r
	}, v)
}
