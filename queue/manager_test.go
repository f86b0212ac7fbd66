package queue

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager(policy Policy) (*Manager, *time.Time) {
	m := NewManager(policy, zerolog.Nop())
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestEnqueueAppendsUnprocessed(t *testing.T) {
	m, _ := newTestManager(Policy{})

	for i := 0; i < 3; i++ {
		before := m.Len()
		stored := m.Enqueue(QueuedMessage{
			AccountID: "default",
			From:      "alice@example.com",
			Body:      fmt.Sprintf("hello %d", i),
			Processed: true,
		})
		if got := m.Len(); got != before+1 {
			t.Fatalf("expected length %d, got %d", before+1, got)
		}
		if stored.ID == "" || stored.ReceivedAt.IsZero() {
			t.Fatalf("expected ID and ReceivedAt assigned, got %+v", stored)
		}
		if stored.Processed {
			t.Fatalf("expected enqueued message to be unprocessed")
		}
	}

	unprocessed := m.Unprocessed()
	if len(unprocessed) != 3 {
		t.Fatalf("expected 3 unprocessed, got %d", len(unprocessed))
	}
	for i, msg := range unprocessed {
		if msg.Body != fmt.Sprintf("hello %d", i) {
			t.Fatalf("expected arrival order, got %q at %d", msg.Body, i)
		}
	}
	if unprocessed[0].ID >= unprocessed[1].ID {
		t.Fatalf("expected monotonic IDs, got %s then %s", unprocessed[0].ID, unprocessed[1].ID)
	}
}

func TestEnqueueKeepsDuplicates(t *testing.T) {
	m, _ := newTestManager(Policy{})
	msg := QueuedMessage{AccountID: "a", From: "bob@example.com", Body: "same"}
	m.Enqueue(msg)
	m.Enqueue(msg)
	if got := len(m.Unprocessed()); got != 2 {
		t.Fatalf("expected duplicate arrivals to be kept, got %d", got)
	}
}

func TestEnqueuePreEpochReceivedAt(t *testing.T) {
	m, _ := newTestManager(Policy{})
	stamp := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)

	first := m.Enqueue(QueuedMessage{From: "a@b.com", Body: "delayed", ReceivedAt: stamp})
	second := m.Enqueue(QueuedMessage{From: "a@b.com", Body: "live"})
	if !first.ReceivedAt.Equal(stamp) {
		t.Fatalf("expected caller ReceivedAt kept, got %v", first.ReceivedAt)
	}
	if first.ID == "" || first.ID >= second.ID {
		t.Fatalf("expected IDs in arrival order, got %s then %s", first.ID, second.ID)
	}
}

func TestEnqueueClockOutOfRange(t *testing.T) {
	m, _ := newTestManager(Policy{})
	m.now = func() time.Time { return time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC) }

	if msg := m.Enqueue(QueuedMessage{From: "a@b.com", Body: "x"}); msg.ID == "" {
		t.Fatalf("expected an ID even with an out of range clock")
	}
}

func TestEnqueueReplacesCallerID(t *testing.T) {
	m, _ := newTestManager(Policy{})
	a := m.Enqueue(QueuedMessage{ID: "dup", From: "a@b.com", Body: "one"})
	b := m.Enqueue(QueuedMessage{ID: "dup", From: "a@b.com", Body: "two"})
	if a.ID == "dup" || a.ID == b.ID {
		t.Fatalf("expected queue-assigned unique IDs, got %q and %q", a.ID, b.ID)
	}

	if got := m.MarkProcessed(a.ID); got != 1 {
		t.Fatalf("expected exactly one entry marked, got %d", got)
	}
	if open := m.Unprocessed(); len(open) != 1 || open[0].Body != "two" {
		t.Fatalf("expected the second arrival to stay unprocessed, got %+v", open)
	}
}

func TestUnprocessedIsReadOnly(t *testing.T) {
	m, _ := newTestManager(Policy{})
	m.Enqueue(QueuedMessage{From: "a@b.com", Body: "x"})

	first := m.Unprocessed()
	first[0].Body = "mutated"
	if again := m.Unprocessed(); len(again) != 1 || again[0].Body != "x" {
		t.Fatalf("expected Unprocessed to return copies, got %+v", again)
	}
}

func TestMarkProcessedOnce(t *testing.T) {
	m, clock := newTestManager(Policy{})
	a := m.Enqueue(QueuedMessage{From: "a@b.com", Body: "one"})
	m.Enqueue(QueuedMessage{From: "a@b.com", Body: "two"})

	if got := m.MarkProcessed(a.ID, "unknown"); got != 1 {
		t.Fatalf("expected 1 marked, got %d", got)
	}
	firstAt := m.queue[0].ProcessedAt

	*clock = clock.Add(time.Minute)
	if got := m.MarkProcessed(a.ID); got != 0 {
		t.Fatalf("expected second mark to be a no-op, got %d", got)
	}
	if !m.queue[0].ProcessedAt.Equal(firstAt) {
		t.Fatalf("expected ProcessedAt to stay %v, got %v", firstAt, m.queue[0].ProcessedAt)
	}

	unprocessed := m.Unprocessed()
	if len(unprocessed) != 1 || unprocessed[0].Body != "two" {
		t.Fatalf("unexpected unprocessed set %+v", unprocessed)
	}
	if total, open := m.Counts(); total != 2 || open != 1 {
		t.Fatalf("expected counts 2/1, got %d/%d", total, open)
	}
}

func TestClearOldByAge(t *testing.T) {
	m, clock := newTestManager(Policy{MaxAge: time.Hour, ProcessedTTL: 10 * time.Minute})
	start := *clock

	m.Enqueue(QueuedMessage{Body: "old", ReceivedAt: start.Add(-2 * time.Hour)})
	fresh := m.Enqueue(QueuedMessage{Body: "fresh"})
	done := m.Enqueue(QueuedMessage{Body: "done"})
	m.MarkProcessed(done.ID)

	before := m.Len()
	removed := m.ClearOld()
	if removed != 1 {
		t.Fatalf("expected only the aged entry removed, got %d", removed)
	}
	if removed != before-m.Len() {
		t.Fatalf("removed count %d does not match length delta %d", removed, before-m.Len())
	}

	*clock = start.Add(15 * time.Minute)
	if removed := m.ClearOld(); removed != 1 {
		t.Fatalf("expected processed entry past TTL removed, got %d", removed)
	}
	if m.Len() != 1 || m.queue[0].ID != fresh.ID {
		t.Fatalf("expected only fresh entry to survive, got %+v", m.queue)
	}
	if m.queue[0].Body != "fresh" || m.queue[0].Processed {
		t.Fatalf("survivor was mutated: %+v", m.queue[0])
	}
}

func TestClearOldNeverGrows(t *testing.T) {
	m, _ := newTestManager(Policy{MaxAge: time.Hour, ProcessedTTL: time.Hour})
	if removed := m.ClearOld(); removed != 0 {
		t.Fatalf("expected nothing removed from empty queue, got %d", removed)
	}
	m.Enqueue(QueuedMessage{Body: "keep"})
	before := m.Len()
	m.ClearOld()
	if m.Len() > before {
		t.Fatalf("ClearOld increased length from %d to %d", before, m.Len())
	}
}

func TestClearOldEnforcesMaxEntries(t *testing.T) {
	m, _ := newTestManager(Policy{ProcessedTTL: time.Hour, MaxEntries: 3})
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, m.Enqueue(QueuedMessage{Body: fmt.Sprintf("m%d", i)}).ID)
	}
	m.MarkProcessed(ids[3])

	if removed := m.ClearOld(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	var bodies []string
	for _, msg := range m.queue {
		bodies = append(bodies, msg.Body)
	}
	if got := strings.Join(bodies, ","); got != "m1,m2,m4" {
		t.Fatalf("expected processed then oldest dropped, got %s", got)
	}
}

func TestSnapshot(t *testing.T) {
	m, _ := newTestManager(Policy{})
	long := strings.Repeat("x", 60)
	for i := 0; i < 7; i++ {
		body := fmt.Sprintf("msg %d", i)
		if i == 1 {
			body = long
		}
		m.Enqueue(QueuedMessage{AccountID: "acct", From: "a@b.com", Body: body})
	}

	snap := m.Snapshot(5)
	if len(snap) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(snap))
	}
	if snap[0].Body != "msg 0" || snap[4].Body != "msg 4" {
		t.Fatalf("expected first five in arrival order, got %+v", snap)
	}
	if want := strings.Repeat("x", 50) + "..."; snap[1].Body != want {
		t.Fatalf("expected truncated body %q, got %q", want, snap[1].Body)
	}
	if m.queue[1].Body != long {
		t.Fatalf("stored body must not be truncated")
	}
	if got := m.Snapshot(20); len(got) != 7 {
		t.Fatalf("expected limit clamped to queue length, got %d", len(got))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{strings.Repeat("a", 51), strings.Repeat("a", 50) + "..."},
		{strings.Repeat("é", 55), strings.Repeat("é", 50) + "..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, DisplayWidth); got != tt.want {
			t.Fatalf("Truncate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartStop(t *testing.T) {
	m, _ := newTestManager(Policy{ProcessedTTL: 0})
	msg := m.Enqueue(QueuedMessage{Body: "done"})
	m.MarkProcessed(msg.ID)

	m.Start(10 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not evict processed message")
		}
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
}
