package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/pashkov/biliwatch/pkg/domain"
)

const (
	polymerURL      = "https://api.bilibili.com/x/polymer/web-dynamic/v1/feed/space"
	spaceHistoryURL = "https://api.vc.bilibili.com/dynamic_svr/dynamic_svr/space_history"
	spacePageURL    = "https://space.bilibili.com/%s/dynamic"
)

// DumpFunc receives the raw upstream payload together with the normalized
// item for one observed entry. Used for debug artifacts.
type DumpFunc func(uid string, raw map[string]any, item *domain.Item)

// Fetcher orchestrates the three fetch strategies in a fixed preference
// order and returns one normalized latest eligible item per author.
type Fetcher struct {
	client       *Client
	norm         *Normalizer
	legacyFirst  bool // prefer the legacy endpoint over polymer
	dump         DumpFunc
	polymerURL   string
	legacyURL    string
	spacePageURL string
	liveURL      string
}

// NewFetcher creates a fetcher. When legacyFirst is set the strategy order
// is legacy-then-polymer; the page scrape is always the last resort.
func NewFetcher(client *Client, norm *Normalizer, legacyFirst bool) *Fetcher {
	return &Fetcher{
		client:       client,
		norm:         norm,
		legacyFirst:  legacyFirst,
		polymerURL:   polymerURL,
		legacyURL:    spaceHistoryURL,
		spacePageURL: spacePageURL,
		liveURL:      accInfoURL,
	}
}

// SetDump installs a callback invoked with the raw payload and normalized
// item whenever a fetch yields a usable result.
func (f *Fetcher) SetDump(fn DumpFunc) { f.dump = fn }

func (f *Fetcher) emit(uid string, raw map[string]any, item *domain.Item) {
	if f.dump != nil {
		f.dump(uid, raw, item)
	}
}

// FetchLatest returns the newest non-pinned item for uid, or nil when every
// strategy came back empty. Only a full three-way miss is reported as nil;
// individual strategy failures are logged and absorbed.
func (f *Fetcher) FetchLatest(ctx context.Context, uid string) *domain.Item {
	strategies := []struct {
		name string
		fn   func(context.Context, string) (*domain.Item, map[string]any, error)
	}{
		{"polymer", f.fetchPolymer},
		{"legacy", f.fetchLegacy},
	}
	if f.legacyFirst {
		strategies[0], strategies[1] = strategies[1], strategies[0]
	}

	for _, s := range strategies {
		item, raw, err := s.fn(ctx, uid)
		if err != nil {
			lgr.Printf("[WARN] %s fetch failed for uid %s: %v", s.name, uid, err)
			continue
		}
		if item.Usable() {
			f.emit(uid, raw, item)
			return item
		}
	}

	// the page scrape depends on an unversioned page structure and never
	// errors, a parse failure just yields nil
	if item, raw := f.fetchScrape(ctx, uid); item.Usable() {
		lgr.Printf("[INFO] uid %s served by page-scrape fallback", uid)
		f.emit(uid, raw, item)
		return item
	}
	return nil
}

// fetchPolymer queries the current dynamics API, filters pinned and
// live-recommendation entries and returns the numerically newest item.
func (f *Fetcher) fetchPolymer(ctx context.Context, uid string) (*domain.Item, map[string]any, error) {
	status, body, err := f.client.Get(ctx, f.polymerURL, map[string]string{"host_mid": uid}, true)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("polymer status %d", status)
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"message"`
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode polymer response: %w", err)
	}
	if resp.Code != 0 {
		return nil, nil, fmt.Errorf("polymer api code %d: %s", resp.Code, resp.Msg)
	}

	item, raw := f.pickLatest(ctx, resp.Data.Items)
	return item, raw, nil
}

// fetchLegacy queries the pre-polymer space history endpoint whose cards
// embed their payload as JSON strings.
func (f *Fetcher) fetchLegacy(ctx context.Context, uid string) (*domain.Item, map[string]any, error) {
	status, body, err := f.client.Get(ctx, f.legacyURL, map[string]string{"host_uid": uid}, false)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("space_history status %d", status)
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Cards []map[string]any `json:"cards"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode space_history response: %w", err)
	}
	if resp.Code != 0 {
		return nil, nil, fmt.Errorf("space_history api code %d", resp.Code)
	}

	var best *domain.Item
	var bestRaw map[string]any
	for _, card := range resp.Data.Cards {
		if isPinned(card) {
			continue
		}
		item := f.norm.LegacyCard(ctx, card)
		if !item.Usable() {
			continue
		}
		if best == nil || domain.CompareIDs(item.ID, best.ID) > 0 {
			best, bestRaw = item, card
		}
	}
	return best, bestRaw, nil
}

// pickLatest normalizes candidates and returns the one with the highest
// numeric id, excluding pinned and auto-generated live entries.
func (f *Fetcher) pickLatest(ctx context.Context, items []map[string]any) (*domain.Item, map[string]any) {
	var best *domain.Item
	var bestRaw map[string]any
	for _, raw := range items {
		if str(raw, "type") == "DYNAMIC_TYPE_LIVE_RCMD" {
			continue // auto-generated live announcements are tracked separately
		}
		if isPinned(raw) {
			continue
		}
		item := f.norm.Item(ctx, raw)
		if !item.Usable() {
			continue
		}
		if best == nil || domain.CompareIDs(item.ID, best.ID) > 0 {
			best, bestRaw = item, raw
		}
	}
	return best, bestRaw
}

// isPinned checks the three known locations of the pinned flag: a top-level
// is_top flag, an author-module top flag and a tag-module text carrying the
// pinned marker.
func isPinned(raw map[string]any) bool {
	if b, ok := raw["is_top"].(bool); ok && b {
		return true
	}
	modules := foldModules(raw["modules"])
	author := asMap(modules["module_author"])
	if b, ok := author["top"].(bool); ok && b {
		return true
	}
	tag := asMap(modules["module_tag"])
	return strings.Contains(str(tag, "text"), "置顶")
}

// LiveInfo is the live-room snapshot for one author.
type LiveInfo struct {
	Status int
	Title  string
	URL    string
	Cover  string
	Uname  string
}

// FetchLive returns the author's current live-room state.
func (f *Fetcher) FetchLive(ctx context.Context, uid string) (*LiveInfo, error) {
	status, body, err := f.client.Get(ctx, f.liveURL, map[string]string{"mid": uid}, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("acc/info status %d", status)
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Name     string `json:"name"`
			LiveRoom struct {
				LiveStatus int    `json:"liveStatus"`
				Title      string `json:"title"`
				URL        string `json:"url"`
				Cover      string `json:"cover"`
			} `json:"live_room"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode acc/info response: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("acc/info api code %d", resp.Code)
	}

	info := &LiveInfo{
		Status: resp.Data.LiveRoom.LiveStatus,
		Title:  resp.Data.LiveRoom.Title,
		URL:    resp.Data.LiveRoom.URL,
		Cover:  resp.Data.LiveRoom.Cover,
		Uname:  resp.Data.Name,
	}
	if info.Status != 1 {
		info.Status = 0 // anything but "on" is treated as offline
	}
	return info, nil
}
