package domain

import (
	"fmt"
	"math/big"
)

// Item is the canonical, source-agnostic representation of one feed entry.
// All three fetch strategies normalize into this shape before any comparison
// or delivery decision is made.
type Item struct {
	ID            string   // decimal string, monotonically increasing per author
	AuthorName    string
	Text          string
	ImageURLs     []string // order-preserving, deduplicated
	IsForward     bool
	ForwardAuthor string
	ForwardText   string
	PublishTS     int64 // unix seconds, 0 when the source omits it
}

// Usable reports whether the item carries a valid ordering key. Anything else
// means "no usable item found" and the identity is skipped this cycle.
func (i *Item) Usable() bool {
	if i == nil || i.ID == "" {
		return false
	}
	for _, r := range i.ID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// URL returns the public permalink for the item.
func (i *Item) URL() string {
	return fmt.Sprintf("https://t.bilibili.com/%s", i.ID)
}

// CompareIDs compares two decimal id strings as arbitrary-precision integers.
// Returns -1, 0 or 1. Ids too large for int64 are common, float conversion
// would lose precision.
func CompareIDs(a, b string) int {
	ai, aok := new(big.Int).SetString(a, 10)
	bi, bok := new(big.Int).SetString(b, 10)
	if !aok || !bok {
		// non-numeric ids never win a comparison
		switch {
		case aok:
			return 1
		case bok:
			return -1
		default:
			return 0
		}
	}
	return ai.Cmp(bi)
}
