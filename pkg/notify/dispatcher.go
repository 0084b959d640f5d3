package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/time/rate"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// ImageConfig controls image delivery behavior.
type ImageConfig struct {
	Enabled        bool
	MaxCount       int   // above this, images are skipped in favor of the permalink
	MaxBytes       int64 // inline payloads above this are recompressed first
	DownscaleWidth int
	Quality        int
	PerImageDelay  time.Duration // pacing between image sends to one destination
	ScratchDir     string
}

// Dispatcher delivers rendered items to destination channels. Text always
// goes first; each image then falls through three encoding tiers before
// being reported as a failed link.
type Dispatcher struct {
	sender Sender
	httpc  *http.Client
	images ImageConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDispatcher creates a dispatcher delivering through sender.
func NewDispatcher(sender Sender, httpc *http.Client, images ImageConfig) *Dispatcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if images.MaxBytes == 0 {
		images.MaxBytes = 8 << 20
	}
	if images.DownscaleWidth == 0 {
		images.DownscaleWidth = 1280
	}
	if images.Quality == 0 {
		images.Quality = 85
	}
	if images.PerImageDelay == 0 {
		images.PerImageDelay = 500 * time.Millisecond
	}
	return &Dispatcher{
		sender:   sender,
		httpc:    httpc,
		images:   images,
		limiters: map[string]*rate.Limiter{},
	}
}

// Push delivers one item to every destination and returns a per-destination
// report. A text failure for one destination never blocks the others.
func (d *Dispatcher) Push(ctx context.Context, item *domain.Item, dests []string) []domain.PushReport {
	text := FormatItem(item)

	imageURLs := item.ImageURLs
	if d.images.MaxCount > 0 && len(imageURLs) > d.images.MaxCount {
		text += fmt.Sprintf("\n\n(%d images attached, open the link to view them)", len(imageURLs))
		imageURLs = nil
	}

	reports := make([]domain.PushReport, 0, len(dests))
	for _, dest := range dests {
		reports = append(reports, d.pushOne(ctx, dest, text, imageURLs))
	}
	return reports
}

// PushText delivers a bare text message, used for live notifications and
// control-surface responses.
func (d *Dispatcher) PushText(ctx context.Context, text string, dests []string) []domain.PushReport {
	reports := make([]domain.PushReport, 0, len(dests))
	for _, dest := range dests {
		rep := domain.PushReport{Destination: dest}
		if err := d.sender.SendText(ctx, dest, text); err != nil {
			lgr.Printf("[WARN] text delivery to %s failed: %v", dest, err)
			rep.Err = err
		} else {
			rep.TextOK = true
		}
		reports = append(reports, rep)
	}
	return reports
}

// PushCover delivers text plus a single cover image (tier chain applies).
func (d *Dispatcher) PushCover(ctx context.Context, text, coverURL string, dests []string) []domain.PushReport {
	reports := make([]domain.PushReport, 0, len(dests))
	for _, dest := range dests {
		var urls []string
		if coverURL != "" && d.images.Enabled {
			urls = []string{coverURL}
		}
		reports = append(reports, d.pushOne(ctx, dest, text, urls))
	}
	return reports
}

func (d *Dispatcher) pushOne(ctx context.Context, dest, text string, imageURLs []string) domain.PushReport {
	rep := domain.PushReport{Destination: dest}

	if err := d.sender.SendText(ctx, dest, text); err != nil {
		// logged but does not block image delivery
		lgr.Printf("[WARN] text delivery to %s failed: %v", dest, err)
		rep.Err = err
	} else {
		rep.TextOK = true
	}

	if !d.images.Enabled || len(imageURLs) == 0 {
		return rep
	}

	for _, u := range imageURLs {
		if err := d.limiter(dest).Wait(ctx); err != nil {
			rep.FailedURLs = append(rep.FailedURLs, u)
			continue
		}
		if err := d.sendImage(ctx, dest, u); err != nil {
			lgr.Printf("[WARN] image %s failed all delivery tiers for %s: %v", u, dest, err)
			rep.FailedURLs = append(rep.FailedURLs, u)
			continue
		}
		rep.ImagesSent++
	}

	// degraded content is reported as links, never silently dropped
	if len(rep.FailedURLs) > 0 {
		msg := "some images could not be delivered:\n" + strings.Join(rep.FailedURLs, "\n")
		if err := d.sender.SendText(ctx, dest, msg); err != nil {
			lgr.Printf("[WARN] failed-links report to %s failed: %v", dest, err)
		}
	}
	return rep
}

// sendImage walks the three delivery tiers, stopping at the first success:
// inline base64 (recompressed when oversized), remote URL, local file
// reference.
func (d *Dispatcher) sendImage(ctx context.Context, dest, url string) error {
	// fetch the complete payload; the inline limit applies to what is sent,
	// never to the download, or recompression would operate on a truncated
	// image
	data, dlErr := download(ctx, d.httpc, urlVariants(url), maxDownloadBytes)
	if dlErr == nil {
		payload := data
		if int64(len(payload)) > d.images.MaxBytes {
			if shrunk, err := shrink(payload, d.images.DownscaleWidth, d.images.Quality); err == nil {
				payload = shrunk
			} else {
				lgr.Printf("[DEBUG] recompress of %s failed: %v", url, err)
			}
		}
		if int64(len(payload)) <= d.images.MaxBytes {
			err := d.sender.SendImage(ctx, dest, ImagePayload{Base64: base64.StdEncoding.EncodeToString(payload)})
			if err == nil {
				return nil
			}
			lgr.Printf("[DEBUG] inline image tier failed for %s: %v", dest, err)
		}
	} else {
		lgr.Printf("[DEBUG] image download failed for %s: %v", url, dlErr)
	}

	if err := d.sender.SendImage(ctx, dest, ImagePayload{URL: url}); err == nil {
		return nil
	}

	if dlErr != nil {
		// last tier needs the raw bytes; retry the download once more
		var err error
		if data, err = download(ctx, d.httpc, []string{url}, maxDownloadBytes); err != nil {
			return fmt.Errorf("all delivery tiers failed for %s: %w", url, err)
		}
	}
	path, err := saveScratch(d.images.ScratchDir, data)
	if err != nil {
		return fmt.Errorf("scratch file for %s: %w", url, err)
	}
	if err := d.sender.SendImage(ctx, dest, ImagePayload{File: path}); err != nil {
		return fmt.Errorf("all delivery tiers failed for %s: %w", url, err)
	}
	return nil
}

// limiter returns the pacing limiter for one destination.
func (d *Dispatcher) limiter(dest string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.limiters[dest]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(d.images.PerImageDelay), 1)
	d.limiters[dest] = l
	return l
}

// FormatItem renders the notification text for one item.
func FormatItem(item *domain.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[New post] %s\n\n%s", item.AuthorName, item.Text)
	fmt.Fprintf(&b, "\n\nLink: %s", item.URL())
	return b.String()
}
