package email

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-imap/v2"
)

// IMAPDateLayout is the DD-Mon-YYYY date form used by IMAP SEARCH.
const IMAPDateLayout = "02-Jan-2006"

// Conn is an authenticated mailbox session. Close logs out.
type Conn interface {
	Select(folder string) error
	Search(criteria *imap.SearchCriteria) ([]imap.UID, error)
	FetchRaw(uid imap.UID) (*RawMessage, error)
	MarkDeleted(uids []imap.UID) error
	Expunge() error
	Close() error
}

// Dialer opens a new authenticated Conn.
type Dialer interface {
	Dial() (Conn, error)
}

// MailboxOptions configures a Mailbox.
type MailboxOptions struct {
	// Folder is the catch-all folder, default INBOX.
	Folder string
	Logger *slog.Logger
	// Now overrides the clock used for cleanup cutoffs.
	Now func() time.Time
}

// Mailbox reads and purges the catch-all folder. Every call opens its own
// connection and logs out before returning; nothing is pooled.
type Mailbox struct {
	dialer Dialer
	folder string
	logger *slog.Logger
	now    func() time.Time
}

// NewMailbox creates a Mailbox that dials through d.
func NewMailbox(d Dialer, opts MailboxOptions) *Mailbox {
	m := &Mailbox{
		dialer: d,
		folder: opts.Folder,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if m.folder == "" {
		m.folder = DefaultMailbox
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// FetchForAddress returns the decoded messages whose To header contains
// address, in server search order.
//
// Connection and search failures yield an empty result and a nil error, so
// an unreachable server looks the same as an empty mailbox. Messages that
// cannot be fetched or parsed are skipped. Only a failure to select the
// folder is returned as an error.
func (m *Mailbox) FetchForAddress(address string) ([]Message, error) {
	messages := []Message{}
	err := m.eachRaw(address, func(raw *RawMessage) {
		msg, err := ParseMessage(raw.Data)
		if err != nil {
			m.logger.Warn("skipping unparsable message", "uid", raw.UID, "error", err)
			return
		}
		messages = append(messages, *msg)
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FetchRawForAddress is FetchForAddress without decoding.
func (m *Mailbox) FetchRawForAddress(address string) ([]RawMessage, error) {
	raws := []RawMessage{}
	err := m.eachRaw(address, func(raw *RawMessage) {
		raws = append(raws, *raw)
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}

func (m *Mailbox) eachRaw(address string, fn func(*RawMessage)) error {
	conn := m.connect()
	if conn == nil {
		return nil
	}
	defer m.release(conn)

	if err := conn.Select(m.folder); err != nil {
		return err
	}

	uids, err := conn.Search(&imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "To", Value: address}},
	})
	if err != nil {
		m.logger.Warn("search failed, returning no messages", "address", address, "error", err)
		return nil
	}

	for _, uid := range uids {
		raw, err := conn.FetchRaw(uid)
		if err != nil {
			m.logger.Warn("skipping message", "address", address, "uid", uint32(uid), "error", err)
			continue
		}
		fn(raw)
	}
	return nil
}

// Cleanup flags every message dated before today minus retentionDays as
// deleted and expunges the folder. It returns the number of messages the
// search matched; the server does not report how many it expunged.
//
// A connection failure is a no-op, and a search rejected by the server
// leaves the folder untouched. All other errors are returned.
func (m *Mailbox) Cleanup(retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("retention days must not be negative: %d", retentionDays)
	}

	conn := m.connect()
	if conn == nil {
		return 0, nil
	}
	defer m.release(conn)

	if err := conn.Select(m.folder); err != nil {
		return 0, err
	}

	cutoff := CutoffDate(m.now(), retentionDays)
	uids, err := conn.Search(&imap.SearchCriteria{Before: cutoff})
	if err != nil {
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			m.logger.Warn("cleanup search rejected, nothing deleted",
				"before", cutoff.Format(IMAPDateLayout), "error", err)
			return 0, nil
		}
		return 0, err
	}

	if err := conn.MarkDeleted(uids); err != nil {
		return 0, err
	}
	if err := conn.Expunge(); err != nil {
		return 0, err
	}

	m.logger.Info("cleanup complete",
		"folder", m.folder,
		"before", cutoff.Format(IMAPDateLayout),
		"matched", len(uids),
	)
	return len(uids), nil
}

// CutoffDate returns the calendar date retentionDays before now. IMAP date
// searches ignore time of day, so the result is midnight UTC of that date.
func CutoffDate(now time.Time, retentionDays int) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -retentionDays)
}

// connect returns nil when the server cannot be reached or rejects the
// credentials.
func (m *Mailbox) connect() Conn {
	conn, err := m.dialer.Dial()
	if err != nil {
		m.logger.Warn("mailbox unavailable", "error", err)
		return nil
	}
	return conn
}

func (m *Mailbox) release(conn Conn) {
	if err := conn.Close(); err != nil {
		m.logger.Debug("logout failed", "error", err)
	}
}
