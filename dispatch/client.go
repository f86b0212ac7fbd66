package dispatch

import (
	"context"

	"xmppctl/launcher"
	"xmppctl/stanza"
)

// Client is a live in-process XMPP connection handle.
type Client interface {
	Send(ctx context.Context, s stanza.Stanza) error
}

// RoomJoiner is implemented by clients with native group-chat support.
type RoomJoiner interface {
	JoinRoom(ctx context.Context, room, nick string) error
}

// StatusReporter is implemented by clients that can describe their
// connection state.
type StatusReporter interface {
	Status() string
}

// Accessor yields the current live handle, or nil when none is connected.
type Accessor interface {
	DirectHandle() Client
}

// Sender delivers a message through the external gateway process.
type Sender interface {
	SendViaExternal(ctx context.Context, address, body string) launcher.ExternalResult
}
