// Package host defines the capabilities the command surface needs from the
// process that owns the XMPP connection, the inbound queue and the roster.
package host

import (
	"xmppctl/dispatch"
	"xmppctl/queue"
	"xmppctl/roster"
)

// Host is the contract between command handlers and the gateway process.
type Host interface {
	dispatch.Accessor

	Enqueue(msg queue.QueuedMessage) queue.QueuedMessage
	Unprocessed() []queue.QueuedMessage
	MarkProcessed(ids ...string) int
	ClearOld() int
	Snapshot(limit int) []queue.SnapshotEntry
	Counts() (total, unprocessed int)
	Len() int
	Roster() *roster.Store
}

// Local is an in-process Host over a queue manager and roster.
type Local struct {
	*queue.Manager
	roster *roster.Store
	client func() dispatch.Client
}

var _ Host = (*Local)(nil)

// NewLocal returns a Local host. client may be nil when this process holds
// no connection.
func NewLocal(q *queue.Manager, r *roster.Store, client func() dispatch.Client) *Local {
	if r == nil {
		r = roster.NewStore()
	}
	return &Local{Manager: q, roster: r, client: client}
}

// DirectHandle returns the live client, or nil.
func (l *Local) DirectHandle() dispatch.Client {
	if l.client == nil {
		return nil
	}
	return l.client()
}

// Roster returns the host's roster store.
func (l *Local) Roster() *roster.Store {
	return l.roster
}
