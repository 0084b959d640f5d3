package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// checkLive runs the two-state live machine for one author: first
// observation seeds silently, off-to-on pushes a "went live" notice with
// the cover image, on-to-off pushes an "ended" notice with the elapsed
// time. Same-status observations are no-ops and write nothing.
func (m *Monitor) checkLive(ctx context.Context, route domain.Route) {
	info, err := m.fetcher.FetchLive(ctx, route.UID)
	if err != nil {
		lgr.Printf("[DEBUG] live check for uid %s failed: %v", route.UID, err)
		return
	}

	prev, found, err := m.store.GetLive(ctx, route.UID)
	if err != nil {
		lgr.Printf("[WARN] live state read for uid %s failed: %v", route.UID, err)
		return
	}

	now := time.Now()
	next := domain.LiveState{Status: info.Status}
	if next.Live() {
		next.StartTS = now.Unix()
	}

	if !found {
		if err := m.store.SetLive(ctx, route.UID, next); err != nil {
			lgr.Printf("[WARN] live state seed for uid %s failed: %v", route.UID, err)
		}
		return
	}

	switch {
	case !prev.Live() && next.Live():
		name := info.Uname
		if name == "" {
			name = "UID:" + route.UID
		}
		text := fmt.Sprintf("[Live] %s is streaming: %s\n%s\nStarted: %s",
			name, info.Title, info.URL, now.Format("2006-01-02 15:04:05"))
		m.pusher.PushCover(ctx, text, info.Cover, route.Destinations)
		lgr.Printf("[INFO] uid %s went live: %s", route.UID, info.Title)

	case prev.Live() && !next.Live():
		name := info.Uname
		if name == "" {
			name = "UID:" + route.UID
		}
		text := fmt.Sprintf("[Live] %s ended the stream", name)
		if prev.StartTS > 0 {
			text += fmt.Sprintf(" (lasted %s)", formatDuration(now.Unix()-prev.StartTS))
		}
		m.pusher.PushText(ctx, text, route.Destinations)
		lgr.Printf("[INFO] uid %s went offline", route.UID)

	default:
		// no transition, keep the stored start time
		return
	}

	if err := m.store.SetLive(ctx, route.UID, next); err != nil {
		lgr.Printf("[WARN] live state write for uid %s failed: %v", route.UID, err)
	}
}

// formatDuration renders elapsed seconds as "1h02m03s" / "5m03s" / "42s".
func formatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h, rem := secs/3600, secs%3600
	mi, s := rem/60, rem%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, mi, s)
	case mi > 0:
		return fmt.Sprintf("%dm%02ds", mi, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
