package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/pashkov/biliwatch/pkg/bili"
	"github.com/pashkov/biliwatch/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/pusher.go -pkg mocks -skip-ensure -fmt goimports . Pusher

// Fetcher provides the latest feed item and the live-room state per author.
type Fetcher interface {
	FetchLatest(ctx context.Context, uid string) *domain.Item
	FetchLive(ctx context.Context, uid string) (*bili.LiveInfo, error)
}

// Store persists dedup markers and live state between runs.
type Store interface {
	GetMarker(ctx context.Context, uid string) (string, error)
	SetMarker(ctx context.Context, uid, id string) error
	Markers(ctx context.Context) (map[string]string, error)
	GetLive(ctx context.Context, uid string) (domain.LiveState, bool, error)
	SetLive(ctx context.Context, uid string, state domain.LiveState) error
}

// Pusher delivers notifications to destination channels.
type Pusher interface {
	Push(ctx context.Context, item *domain.Item, dests []string) []domain.PushReport
	PushText(ctx context.Context, text string, dests []string) []domain.PushReport
	PushCover(ctx context.Context, text, coverURL string, dests []string) []domain.PushReport
}

// Config holds the poll loop parameters.
type Config struct {
	Routes       []domain.Route
	PollInterval time.Duration
	PollJitter   time.Duration // symmetric, added to and subtracted from the interval
	AuthorDelay  time.Duration // pause between authors inside one cycle
	Policy       Policy
}

// Monitor runs the poll loop: one cycle per interval, each cycle walks all
// routed authors sequentially, fetching, deduplicating and delivering. All
// per-author work is isolated so one bad author never stops the rest.
type Monitor struct {
	fetcher Fetcher
	store   Store
	pusher  Pusher
	cfg     Config

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	stagnant  map[string]int // per-uid cycles without a new id, diagnostic only
}

// minSleep is the floor for the jittered interval, keeps a misconfigured
// jitter from producing a hot loop.
const minSleep = time.Second

// fallbackSleep is used after a cycle-level panic.
const fallbackSleep = 30 * time.Second

// New creates a monitor. Start must be called to begin polling.
func New(fetcher Fetcher, store Store, pusher Pusher, cfg Config) *Monitor {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Minute
	}
	if cfg.AuthorDelay == 0 {
		cfg.AuthorDelay = time.Second
	}
	return &Monitor{
		fetcher:  fetcher,
		store:    store,
		pusher:   pusher,
		cfg:      cfg,
		stagnant: map[string]int{},
	}
}

// Start launches the poll loop. Idempotent: starting a running monitor is a
// no-op. The loop stops when ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		lgr.Printf("[DEBUG] monitor already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.startedAt = time.Now()
	m.cancel = cancel
	m.done = make(chan struct{})

	lgr.Printf("[INFO] monitor started: %d authors, interval %v, jitter %v",
		len(m.cfg.Routes), m.cfg.PollInterval, m.cfg.PollJitter)
	go m.run(runCtx, m.done)
}

// Stop requests a cooperative shutdown and waits for the in-flight cycle to
// finish. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	lgr.Printf("[INFO] monitor stopped")
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		// stop flag is honored at the top of each iteration only, an
		// in-flight cycle always completes
		select {
		case <-ctx.Done():
			return
		default:
		}

		sleep := m.nextSleep()
		if err := m.safeCycle(ctx); err != nil {
			lgr.Printf("[ERROR] poll cycle recovered: %v", err)
			sleep = fallbackSleep
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// nextSleep returns the interval with symmetric random jitter, clamped to a
// minimum absolute sleep.
func (m *Monitor) nextSleep() time.Duration {
	sleep := m.cfg.PollInterval
	if j := m.cfg.PollJitter; j > 0 {
		sleep += time.Duration(rand.Int63n(int64(2*j))) - j //nolint:gosec // jitter needs no crypto rand
	}
	if sleep < minSleep {
		sleep = minSleep
	}
	return sleep
}

// safeCycle converts a cycle-level panic into an error so the loop survives.
func (m *Monitor) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	m.cycle(ctx)
	return nil
}

func (m *Monitor) cycle(ctx context.Context) {
	for i, route := range m.cfg.Routes {
		m.safeProcess(ctx, route)
		m.safeLive(ctx, route)

		if i == len(m.cfg.Routes)-1 {
			break
		}
		// pacing between authors keeps a long route list from looking
		// like a burst to the upstream
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.AuthorDelay):
		}
	}
}

// safeProcess isolates one author's feed processing; a panic is logged and
// the remaining authors still run.
func (m *Monitor) safeProcess(ctx context.Context, route domain.Route) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] processing uid %s recovered: %v", route.UID, r)
		}
	}()
	m.processFeed(ctx, route)
}

func (m *Monitor) safeLive(ctx context.Context, route domain.Route) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] live check for uid %s recovered: %v", route.UID, r)
		}
	}()
	m.checkLive(ctx, route)
}

// processFeed fetches the latest item for one author, runs the dedup
// decision and delivers when due. Delivery happens before the marker is
// persisted, so a crash in between re-delivers rather than drops.
func (m *Monitor) processFeed(ctx context.Context, route domain.Route) {
	item := m.fetcher.FetchLatest(ctx, route.UID)
	if item == nil {
		lgr.Printf("[DEBUG] no item for uid %s this cycle", route.UID)
		return
	}

	marker, err := m.store.GetMarker(ctx, route.UID)
	if err != nil {
		lgr.Printf("[WARN] marker read for uid %s failed, skipping cycle: %v", route.UID, err)
		return
	}

	d := decide(marker, item, time.Now(), m.startAt(), m.cfg.Policy)
	switch {
	case d.push:
		reports := m.pusher.Push(ctx, item, route.Destinations)
		for _, rep := range reports {
			if rep.Err != nil {
				lgr.Printf("[WARN] delivery of %s to %s failed: %v", item.ID, rep.Destination, rep.Err)
			}
		}
		lgr.Printf("[INFO] uid %s: delivered %s to %d destinations (%s)",
			route.UID, item.ID, len(reports), d.reason)
	case d.reason == "stagnant":
		m.mu.Lock()
		m.stagnant[route.UID]++
		m.mu.Unlock()
	default:
		lgr.Printf("[INFO] uid %s: recorded %s without delivery (%s)", route.UID, item.ID, d.reason)
	}

	if d.setMarker {
		m.mu.Lock()
		m.stagnant[route.UID] = 0
		m.mu.Unlock()
		if err := m.store.SetMarker(ctx, route.UID, item.ID); err != nil {
			// in-memory decision stands for this run, only restart
			// durability is lost
			lgr.Printf("[WARN] marker persist for uid %s failed: %v", route.UID, err)
		}
	}
}

func (m *Monitor) startAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

// TestPush fetches the author's latest item and delivers it to dest (or the
// author's configured destinations when dest is empty), bypassing the dedup
// state. The raw error is returned for interactive debugging.
func (m *Monitor) TestPush(ctx context.Context, uid, dest string) error {
	item := m.fetcher.FetchLatest(ctx, uid)
	if item == nil {
		return fmt.Errorf("no item available for uid %s", uid)
	}

	dests := []string{dest}
	if dest == "" {
		for _, route := range m.cfg.Routes {
			if route.UID == uid {
				dests = route.Destinations
				break
			}
		}
		if len(dests) == 1 && dests[0] == "" {
			return fmt.Errorf("uid %s has no configured destinations", uid)
		}
	}

	for _, rep := range m.pusher.Push(ctx, item, dests) {
		if rep.Err != nil {
			return fmt.Errorf("deliver to %s: %w", rep.Destination, rep.Err)
		}
	}
	return nil
}

// Status is the control-surface snapshot.
type Status struct {
	Running   bool           `json:"running"`
	Authors   int            `json:"authors"`
	Markers   int            `json:"markers"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	Stagnant  map[string]int `json:"stagnant_cycles,omitempty"`
	Live      []LiveSummary  `json:"live,omitempty"`
}

// LiveSummary is one author's current live state for the status endpoint.
type LiveSummary struct {
	UID      string `json:"uid"`
	Duration string `json:"duration"`
}

// Status reports the monitor state, marker count and any authors currently
// on air with their elapsed stream time.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	st := Status{
		Running:  m.running,
		Authors:  len(m.cfg.Routes),
		Stagnant: make(map[string]int, len(m.stagnant)),
	}
	if m.running {
		t := m.startedAt
		st.StartedAt = &t
	}
	for uid, n := range m.stagnant {
		if n > 0 {
			st.Stagnant[uid] = n
		}
	}
	m.mu.Unlock()

	markers, err := m.store.Markers(ctx)
	if err != nil {
		return st, fmt.Errorf("list markers: %w", err)
	}
	st.Markers = len(markers)

	for _, route := range m.cfg.Routes {
		state, found, err := m.store.GetLive(ctx, route.UID)
		if err != nil || !found || !state.Live() {
			continue
		}
		dur := "unknown"
		if state.StartTS > 0 {
			dur = formatDuration(time.Now().Unix() - state.StartTS)
		}
		st.Live = append(st.Live, LiveSummary{UID: route.UID, Duration: dur})
	}
	return st, nil
}
