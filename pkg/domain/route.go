package domain

// Route maps one monitored author UID to the destination channels that
// should receive its notifications.
type Route struct {
	UID          string
	Destinations []string
}

// LiveState holds the last observed live status for one author.
type LiveState struct {
	Status  int   // 0 offline, 1 live; anything else is treated as offline
	StartTS int64 // unix seconds of the observed stream start, 0 when offline
}

// Live reports whether the state is "on air".
func (s LiveState) Live() bool { return s.Status == 1 }

// PushReport is the per-destination outcome of delivering one item.
// Callers can assert partial failures precisely instead of collapsing
// the whole push into a single boolean.
type PushReport struct {
	Destination string
	TextOK      bool
	ImagesSent  int
	FailedURLs  []string // image URLs that exhausted every delivery tier
	Err         error    // text delivery error, if any
}
