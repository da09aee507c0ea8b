// Package sse decodes text/event-stream responses chunk by chunk.
//
// The decoder is fed raw network chunks, which may split frames at any byte
// boundary. Incomplete trailing lines are carried in the session buffer and
// prepended to the next chunk before re-splitting, so fragment output is
// invariant under chunking.
package sse

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
)

// doneSentinel is the literal, non-JSON payload some providers send to mark
// end of stream. It is recognized and skipped, never parsed as JSON.
const doneSentinel = "[DONE]"

// Extract inspects one complete "data:" payload and returns the text
// fragments it carries, in order. Payloads for non-content event types yield
// no fragments. A malformed payload that should have carried content must be
// reported as an error; malformed non-content payloads are returned as
// (nil, nil) and skipped.
type Extract func(data string) ([]string, error)

// Decoder is the per-request event-stream session. Not safe for concurrent
// use; create one per request.
type Decoder struct {
	extract Extract
	buf     []byte
}

func NewDecoder(extract Extract) *Decoder {
	return &Decoder{extract: extract}
}

// Feed consumes one chunk and returns the fragments completed by it.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	d.buf = append(d.buf, chunk...)

	var out []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return out, nil
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]

		frags, err := d.line(line)
		out = append(out, frags...)
		if err != nil {
			return out, err
		}
	}
}

// Finish flushes the session. A residual that forms a complete frame (final
// line without trailing newline) is decoded; any other non-blank residual is
// an incomplete frame and therefore a decode error.
func (d *Decoder) Finish() ([]string, error) {
	rest := strings.TrimSpace(string(d.buf))
	d.buf = nil
	if rest == "" {
		return nil, nil
	}

	if data, ok := strings.CutPrefix(rest, "data:"); ok {
		data = strings.TrimSpace(data)
		if data == doneSentinel || json.Valid([]byte(data)) {
			return d.line(rest)
		}
		return nil, &ai.DecodeError{Frame: rest, Err: errTruncated}
	}
	// A complete non-data field (event:, id:, retry:, comment) carries no
	// content; anything else is a torn frame.
	if strings.ContainsRune(rest, ':') {
		return nil, nil
	}
	return nil, &ai.DecodeError{Frame: rest, Err: errTruncated}
}

func (d *Decoder) line(line string) ([]string, error) {
	line = strings.TrimSuffix(line, "\r")
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// event:/id:/retry: fields, comments, and blank dispatch lines carry
		// no payload of their own; the type discriminator lives inside the
		// JSON payload for the providers we speak to.
		return nil, nil
	}
	data = strings.TrimSpace(data)
	if data == "" || data == doneSentinel {
		return nil, nil
	}
	return d.extract(data)
}

type truncatedErr struct{}

func (truncatedErr) Error() string { return "stream ended mid-frame" }

var errTruncated = truncatedErr{}
