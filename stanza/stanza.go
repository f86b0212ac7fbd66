// Package stanza builds the XMPP stanzas the command surface hands to a
// live client connection.
package stanza

import (
	"encoding/xml"
	"fmt"
)

// Stanza is a single XMPP unit ready for transmission.
type Stanza interface {
	Name() string
}

// Message is a <message/> stanza.
type Message struct {
	XMLName xml.Name `xml:"message"`
	To      string   `xml:"to,attr"`
	Type    string   `xml:"type,attr,omitempty"`
	Body    string   `xml:"body"`
}

// Name returns the element name.
func (Message) Name() string { return "message" }

// Presence is a <presence/> stanza.
type Presence struct {
	XMLName xml.Name `xml:"presence"`
	To      string   `xml:"to,attr,omitempty"`
	Type    string   `xml:"type,attr,omitempty"`
}

// Name returns the element name.
func (Presence) Name() string { return "presence" }

// Chat returns a chat-type message addressed to to.
func Chat(to, body string) Message {
	return Message{To: to, Type: "chat", Body: body}
}

// JoinRoom returns the presence that enters a MUC as occupant (room/nick).
func JoinRoom(occupant string) Presence {
	return Presence{To: occupant}
}

// Marshal encodes s as XML.
func Marshal(s Stanza) ([]byte, error) {
	out, err := xml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal %s stanza: %w", s.Name(), err)
	}
	return out, nil
}
