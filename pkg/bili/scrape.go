package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/go-pkgz/lgr"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// initial-state blob markers: raw and URL-encoded page variants
var (
	initialStateStrictRe = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});\s*\(function`)
	initialStateRe       = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});`)
	initialStateEncRe    = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__%3D(%7B.*?%7D)%3B`)
)

// fetchScrape is the last-resort strategy: pull the author's feed page,
// locate the embedded initial-state JSON and take the first candidate item.
// It never errors; any parse failure yields nil so the pipeline proceeds.
func (f *Fetcher) fetchScrape(ctx context.Context, uid string) (*domain.Item, map[string]any) {
	status, body, err := f.client.Get(ctx, fmt.Sprintf(f.spacePageURL, uid), nil, false)
	if err != nil || status != http.StatusOK {
		lgr.Printf("[DEBUG] page scrape failed for uid %s: status %d, %v", uid, status, err)
		return nil, nil
	}

	blob := extractInitialState(body)
	if blob == nil {
		lgr.Printf("[DEBUG] no initial-state blob on page for uid %s", uid)
		return nil, nil
	}

	var state map[string]any
	if err := json.Unmarshal(blob, &state); err != nil {
		lgr.Printf("[DEBUG] malformed initial-state blob for uid %s: %v", uid, err)
		return nil, nil
	}

	raw := firstCandidate(state)
	if raw == nil {
		return nil, nil
	}
	return f.norm.Item(ctx, raw), raw
}

// extractInitialState finds the state blob via the raw marker first, then
// the URL-encoded variant.
func extractInitialState(page []byte) []byte {
	if m := initialStateStrictRe.FindSubmatch(page); m != nil {
		return m[1]
	}
	if m := initialStateRe.FindSubmatch(page); m != nil {
		return m[1]
	}
	if m := initialStateEncRe.FindSubmatch(page); m != nil {
		if decoded, err := url.QueryUnescape(string(m[1])); err == nil {
			return []byte(decoded)
		}
	}
	return nil
}

// firstCandidate looks in the two known nested locations for the item list.
func firstCandidate(state map[string]any) map[string]any {
	paths := [][]string{
		{"dynamicList", "items"},
		{"feed", "items"},
	}
	for _, path := range paths {
		node := any(state)
		for _, key := range path {
			node = asMap(node)[key]
		}
		if items := asList(node); len(items) > 0 {
			return asMap(items[0])
		}
	}
	return nil
}
