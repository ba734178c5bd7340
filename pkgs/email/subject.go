package email

import (
	"bytes"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-message/charset"
)

var (
	encodedWordRE = regexp.MustCompile(`=\?([^?\s]+)\?([bBqQ])\?([^?\s]*)\?=`)
	foldRE        = regexp.MustCompile(`\r?\n[ \t]+`)
)

// decodeSubject returns the first segment of a possibly encoded header.
//
// A segment is either a run of plain text or a run of adjacent encoded
// words sharing one charset. Encoded segments are decoded with their
// declared charset; a segment in an unknown charset is returned as the
// raw encoded text.
func decodeSubject(raw string) string {
	raw = foldRE.ReplaceAllString(raw, " ")
	locs := encodedWordRE.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return raw
	}
	if lead := raw[:locs[0][0]]; strings.TrimSpace(lead) != "" {
		return lead
	}

	cs := strings.ToLower(raw[locs[0][2]:locs[0][3]])
	var payload []byte
	end := locs[0][0]
	for i, loc := range locs {
		if i > 0 {
			if strings.TrimSpace(raw[end:loc[0]]) != "" {
				break
			}
			if strings.ToLower(raw[loc[2]:loc[3]]) != cs {
				break
			}
		}
		b, err := decodeWordPayload(raw[loc[4]:loc[5]], raw[loc[6]:loc[7]])
		if err != nil {
			return raw[locs[0][0]:loc[1]]
		}
		payload = append(payload, b...)
		end = loc[1]
	}

	text, err := toUTF8(cs, payload)
	if err != nil {
		return raw[locs[0][0]:end]
	}
	return text
}

// rawWordDecoder decodes the B or Q layer of a single encoded word and
// leaves the bytes in their declared charset.
var rawWordDecoder = &mime.WordDecoder{
	CharsetReader: func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	},
}

// rawCharset replaces the declared charset before decoding. mime.WordDecoder
// converts ISO-8859-1 and US-ASCII itself, which would break merging.
const rawCharset = "x-raw"

// decodeWordPayload undoes the B or Q encoding of one encoded word.
func decodeWordPayload(enc, text string) ([]byte, error) {
	s, err := rawWordDecoder.Decode("=?" + rawCharset + "?" + enc + "?" + text + "?=")
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// toUTF8 converts payload from the named charset.
func toUTF8(cs string, payload []byte) (string, error) {
	if cs == "" || cs == "utf-8" || cs == "us-ascii" {
		return strings.ToValidUTF8(string(payload), "�"), nil
	}
	r, err := charset.Reader(cs, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
