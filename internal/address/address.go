package address

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyAddress indicates no address was supplied.
	ErrEmptyAddress = errors.New("empty address")
	// ErrInvalidAddress indicates a room or nick could not form an occupant.
	ErrInvalidAddress = errors.New("invalid address")
)

// Parse trims surrounding whitespace from a destination address. Addresses
// are opaque, so inner spaces (as in "room@conference.example.org/John Smith")
// are kept and only an empty value is rejected.
func Parse(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrEmptyAddress
	}
	return addr, nil
}

// Occupant builds the room/nick address used to enter a group chat.
func Occupant(room, nick string) (string, error) {
	room, err := Parse(room)
	if err != nil {
		return "", fmt.Errorf("room: %w", err)
	}
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return "", fmt.Errorf("%w: empty nick", ErrInvalidAddress)
	}
	if strings.Contains(room, "/") {
		return "", fmt.Errorf("%w: room %q already carries a resource", ErrInvalidAddress, room)
	}
	return room + "/" + nick, nil
}
