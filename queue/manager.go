package queue

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"xmppctl/internal/metrics"
)

// DisplayWidth is the number of body runes kept by Snapshot.
const DisplayWidth = 50

// Manager holds inbound messages in arrival order.
type Manager struct {
	queue   []QueuedMessage
	policy  Policy
	mu      sync.Mutex
	quit    chan struct{}
	stop    sync.Once
	now     func() time.Time
	entropy io.Reader
	log     zerolog.Logger
}

// NewManager creates an empty queue evicting by policy.
func NewManager(policy Policy, log zerolog.Logger) *Manager {
	return &Manager{
		queue:   make([]QueuedMessage, 0),
		policy:  policy,
		quit:    make(chan struct{}),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		log:     log.With().Str("component", "queue").Logger(),
	}
}

// Enqueue appends msg as unprocessed and returns the stored copy. The ID is
// always assigned here, so IDs are unique and sort in arrival order whatever
// ReceivedAt the caller supplies.
func (m *Manager) Enqueue(msg QueuedMessage) QueuedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = now
	}
	msg.ID = m.newID(now)
	msg.Processed = false
	msg.ProcessedAt = time.Time{}

	m.queue = append(m.queue, msg)
	metrics.MessagesQueued.Inc()
	metrics.SetQueueDepth(len(m.queue))
	m.log.Debug().Str("id", msg.ID).Str("account", msg.AccountID).Str("from", msg.From).Msg("queued inbound message")
	return msg
}

func (m *Manager) newID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), m.entropy)
	if err != nil {
		// Clock outside the ULID range.
		id = ulid.MustNew(0, m.entropy)
	}
	return id.String()
}

// Unprocessed returns the unprocessed entries in arrival order.
func (m *Manager) Unprocessed() []QueuedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]QueuedMessage, 0, len(m.queue))
	for _, msg := range m.queue {
		if !msg.Processed {
			out = append(out, msg)
		}
	}
	return out
}

// MarkProcessed flips the named entries to processed and returns how many
// changed. Entries already processed are left untouched.
func (m *Manager) MarkProcessed(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	marked := 0
	for i := range m.queue {
		if m.queue[i].Processed {
			continue
		}
		if _, ok := want[m.queue[i].ID]; !ok {
			continue
		}
		m.queue[i].Processed = true
		m.queue[i].ProcessedAt = now
		marked++
	}
	return marked
}

// ClearOld evicts stale entries and returns the number removed.
func (m *Manager) ClearOld() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	before := len(m.queue)

	remaining := m.queue[:0]
	for _, msg := range m.queue {
		if m.stale(msg, now) {
			continue
		}
		remaining = append(remaining, msg)
	}
	clear(m.queue[len(remaining):])
	m.queue = remaining

	if limit := m.policy.MaxEntries; limit > 0 && len(m.queue) > limit {
		m.queue = trimToFit(m.queue, limit)
	}

	removed := before - len(m.queue)
	if removed > 0 {
		metrics.MessagesEvicted.Add(float64(removed))
		m.log.Info().Int("removed", removed).Int("remaining", len(m.queue)).Msg("evicted queued messages")
	}
	metrics.SetQueueDepth(len(m.queue))
	return removed
}

func (m *Manager) stale(msg QueuedMessage, now time.Time) bool {
	if m.policy.MaxAge > 0 && now.Sub(msg.ReceivedAt) > m.policy.MaxAge {
		return true
	}
	return msg.Processed && now.Sub(msg.ProcessedAt) >= m.policy.ProcessedTTL
}

// trimToFit drops the oldest entries, processed ones first, until limit remain.
func trimToFit(queue []QueuedMessage, limit int) []QueuedMessage {
	excess := len(queue) - limit
	drop := make([]bool, len(queue))
	for i := 0; i < len(queue) && excess > 0; i++ {
		if queue[i].Processed {
			drop[i] = true
			excess--
		}
	}
	for i := 0; i < len(queue) && excess > 0; i++ {
		if !drop[i] {
			drop[i] = true
			excess--
		}
	}

	kept := queue[:0]
	for i, msg := range queue {
		if !drop[i] {
			kept = append(kept, msg)
		}
	}
	clear(queue[len(kept):])
	return kept
}

// Snapshot returns up to limit entries in arrival order for display.
func (m *Manager) Snapshot(limit int) []SnapshotEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit < 0 || limit > len(m.queue) {
		limit = len(m.queue)
	}
	out := make([]SnapshotEntry, 0, limit)
	for _, msg := range m.queue[:limit] {
		out = append(out, SnapshotEntry{
			ID:        msg.ID,
			AccountID: msg.AccountID,
			From:      msg.From,
			Body:      Truncate(msg.Body, DisplayWidth),
			Processed: msg.Processed,
		})
	}
	return out
}

// Truncate shortens s to width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + "..."
}

// Len returns the number of queued entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Counts returns the total and unprocessed entry counts.
func (m *Manager) Counts() (total, unprocessed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.queue {
		if !msg.Processed {
			unprocessed++
		}
	}
	return len(m.queue), unprocessed
}

// Start runs ClearOld every interval in a background goroutine.
func (m *Manager) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.quit:
				return
			case <-ticker.C:
				m.ClearOld()
			}
		}
	}()
}

// Stop shuts down the janitor. Safe to call more than once.
func (m *Manager) Stop() {
	m.stop.Do(func() { close(m.quit) })
}
