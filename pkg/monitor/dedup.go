package monitor

import (
	"fmt"
	"time"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// Policy holds the staleness thresholds applied when deciding whether a
// newly observed item is delivered or only recorded.
type Policy struct {
	MaxPushAge     time.Duration // items older than this are recorded, never pushed; 0 disables
	ColdStartGrace time.Duration // suppress items predating process start by more than this; 0 disables
	BackfillWindow time.Duration // push on first observation when published within this window; 0 never
}

// decision is the per-item outcome: whether to deliver, whether the marker
// advances, and a reason string for logging.
type decision struct {
	push      bool
	setMarker bool
	reason    string
}

// decide implements the per-author dedup state machine. First observation
// seeds the marker without delivery (unless a backfill window admits a
// recent item), ids at or below the marker are absorbed, and an id above
// the marker is delivered only when its publish time passes the cold-start
// and max-age checks. The marker advances whenever the id is new,
// regardless of whether delivery happened.
func decide(marker string, item *domain.Item, now, startedAt time.Time, pol Policy) decision {
	if marker == "" {
		// an absent publish time cannot prove the item is recent, so it
		// only seeds
		if pol.BackfillWindow > 0 && item.PublishTS > 0 &&
			now.Sub(time.Unix(item.PublishTS, 0)) <= pol.BackfillWindow {
			return decision{push: true, setMarker: true, reason: "backfill"}
		}
		return decision{setMarker: true, reason: "seeded"}
	}

	if domain.CompareIDs(item.ID, marker) <= 0 {
		return decision{reason: "stagnant"}
	}

	if pol.ColdStartGrace > 0 && item.PublishTS > 0 &&
		time.Unix(item.PublishTS, 0).Before(startedAt.Add(-pol.ColdStartGrace)) {
		return decision{setMarker: true, reason: "predates process start"}
	}

	if pol.MaxPushAge > 0 && item.PublishTS > 0 &&
		now.Sub(time.Unix(item.PublishTS, 0)) > pol.MaxPushAge {
		return decision{setMarker: true, reason: fmt.Sprintf("older than %v", pol.MaxPushAge)}
	}

	return decision{push: true, setMarker: true, reason: "new item"}
}
