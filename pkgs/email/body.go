package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// ParseMessage decodes raw RFC 5322 bytes into a Message.
//
// Transfer encodings and declared charsets are decoded by go-message; any
// bytes that are still not valid UTF-8 are replaced with U+FFFD.
func ParseMessage(raw []byte) (*Message, error) {
	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !isTolerable(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	msg := &Message{
		From:    entity.Header.Get("From"),
		Subject: decodeSubject(entity.Header.Get("Subject")),
	}
	parseEntityBody(msg, entity)
	return msg, nil
}

// parseEntityBody fills msg.Body from a go-message Entity. Multipart
// messages are walked depth-first in part order.
func parseEntityBody(msg *Message, entity *gomessage.Entity) {
	if mr := entity.MultipartReader(); mr != nil {
		parseMultipart(msg, mr)
	} else {
		parseSinglePart(msg, entity)
	}
}

// parseMultipart stops at the first text/plain part that is not declared
// as an attachment. Nested multiparts are searched in place.
func parseMultipart(msg *Message, mr gomessage.MultipartReader) bool {
	for {
		part, err := mr.NextPart()
		if err != nil && (part == nil || !isTolerable(err)) {
			return false
		}
		ct := contentType(part.Header)

		switch {
		case strings.HasPrefix(ct, "multipart/"):
			if nested := part.MultipartReader(); nested != nil {
				if parseMultipart(msg, nested) {
					return true
				}
			}

		case ct == "text/plain" && !isAttachment(part.Header):
			msg.Body = readText(part.Body)
			return true
		}
	}
}

// isTolerable reports errors for which go-message still hands back a
// readable part with the raw body.
func isTolerable(err error) bool {
	return gomessage.IsUnknownCharset(err) || gomessage.IsUnknownEncoding(err)
}

// parseSinglePart takes the whole payload regardless of content type.
func parseSinglePart(msg *Message, entity *gomessage.Entity) {
	msg.Body = readText(entity.Body)
}

// contentType returns the lower-cased media type, defaulting to text/plain
// when the header is absent.
func contentType(h gomessage.Header) string {
	if h.Get("Content-Type") == "" {
		return "text/plain"
	}
	ct, _, _ := h.ContentType()
	return ct
}

func isAttachment(h gomessage.Header) bool {
	return strings.Contains(h.Get("Content-Disposition"), "attachment")
}

// readText reads a decoded body. A read error keeps whatever was read
// before it.
func readText(r io.Reader) string {
	body, _ := io.ReadAll(r)
	return strings.ToValidUTF8(string(body), "�")
}
