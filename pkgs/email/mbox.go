package email

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-mbox"
	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// mboxUnknownSender is written on the From_ line when the message has no
// parsable From address.
const mboxUnknownSender = "MAILER-DAEMON"

// ExportMbox writes raws to w as an mbox stream, one message per entry.
func ExportMbox(w io.Writer, raws []RawMessage) error {
	mw := mbox.NewWriter(w)

	for _, raw := range raws {
		date := raw.InternalDate
		if date.IsZero() {
			date = time.Now()
		}

		entry, err := mw.CreateMessage(envelopeSender(raw.Data), date)
		if err != nil {
			return fmt.Errorf("creating mbox entry for UID %d: %w", raw.UID, err)
		}
		if _, err := entry.Write(raw.Data); err != nil {
			return fmt.Errorf("writing mbox entry for UID %d: %w", raw.UID, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing mbox writer: %w", err)
	}
	return nil
}

// envelopeSender extracts the bare From address for the mbox separator line.
func envelopeSender(data []byte) string {
	entity, err := gomessage.Read(bytes.NewReader(data))
	if err != nil && entity == nil {
		return mboxUnknownSender
	}
	h := mail.Header{Header: entity.Header}
	addrs, err := h.AddressList("From")
	if err != nil || len(addrs) == 0 || addrs[0].Address == "" {
		return mboxUnknownSender
	}
	return addrs[0].Address
}
