package queue

import "time"

// QueuedMessage is an inbound message received by the gateway.
type QueuedMessage struct {
	// ID is assigned by Manager.Enqueue; a caller-supplied value is replaced.
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	From        string    `json:"from"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
	Processed   bool      `json:"processed"`
	ProcessedAt time.Time `json:"processed_at,omitempty"`
}

// SnapshotEntry is a display copy of a queued message. Body may be truncated.
type SnapshotEntry struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	From      string `json:"from"`
	Body      string `json:"body"`
	Processed bool   `json:"processed"`
}

// Policy controls which entries ClearOld evicts.
type Policy struct {
	// MaxAge evicts any entry received longer ago than this. Zero disables.
	MaxAge time.Duration
	// ProcessedTTL evicts processed entries this long after processing. Zero
	// evicts processed entries on the next sweep.
	ProcessedTTL time.Duration
	// MaxEntries caps the length left after a sweep. Zero disables.
	MaxEntries int
}
