package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// Dumper writes one JSON artifact per fetched item, carrying both the raw
// upstream payload and the normalized result. Intended to be installed as
// the fetcher's dump callback.
type Dumper struct {
	Enabled bool
	Dir     string
	UIDs    []string // whitelist; empty dumps every uid
}

type dumpArtifact struct {
	UID        string         `json:"uid"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Raw        map[string]any `json:"raw"`
	Normalized *domain.Item   `json:"normalized"`
}

// Dump writes the artifact. Failures are logged, never surfaced; diagnostics
// must not affect the pipeline.
func (d *Dumper) Dump(uid string, raw map[string]any, item *domain.Item) {
	if d == nil || !d.Enabled {
		return
	}
	if len(d.UIDs) > 0 && !slices.Contains(d.UIDs, uid) {
		return
	}

	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		lgr.Printf("[WARN] dump dir %s: %v", d.Dir, err)
		return
	}

	art := dumpArtifact{UID: uid, FetchedAt: time.Now(), Raw: raw, Normalized: item}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		lgr.Printf("[WARN] dump marshal for uid %s: %v", uid, err)
		return
	}

	name := fmt.Sprintf("%s-%s.json", uid, item.ID)
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, 0o600); err != nil {
		lgr.Printf("[WARN] dump write for uid %s: %v", uid, err)
	}
}
