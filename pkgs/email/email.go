package email

import (
	"errors"
	"time"
)

// DefaultMailbox is the folder searched when none is configured.
const DefaultMailbox = "INBOX"

// ErrNotConnected is returned by IMAPClient methods called before Connect
// or after Close.
var ErrNotConnected = errors.New("imap client is not connected")

// Message is the decoded view of one mailbox entry.
type Message struct {
	// From is the raw From header, not decoded or validated.
	From    string `json:"from"`
	Subject string `json:"subject"`
	// Body is the first non-attachment text/plain part, or the whole
	// payload of a single-part message.
	Body string `json:"body"`
}

// RawMessage is an undecoded RFC 5322 message as stored on the server.
type RawMessage struct {
	UID          uint32
	InternalDate time.Time
	Data         []byte
}
