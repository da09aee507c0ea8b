// Package ndjson decodes line-delimited JSON responses (one object per
// line, no wrapping array) chunk by chunk.
//
// Like the event-stream decoder, it carries incomplete trailing lines in a
// per-request session buffer so that fragment output does not depend on how
// the network happened to split the body into chunks.
package ndjson

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
)

// Extract pulls the text fragments out of one complete JSON line, in the
// order the provider gave them. A line may carry several fragments (multiple
// candidates or parts) or none.
type Extract func(line string) ([]string, error)

// Decoder is the per-request NDJSON session. Not safe for concurrent use;
// create one per request.
type Decoder struct {
	extract Extract
	buf     []byte
}

func NewDecoder(extract Extract) *Decoder {
	return &Decoder{extract: extract}
}

// Feed consumes one chunk and returns the fragments completed by it.
// Malformed complete lines are skipped: both NDJSON providers interleave
// keep-alive and metadata lines we have no schema for, and dropping a line
// that decodes but carries no content loses nothing. Torn frames are still
// caught by Finish.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	d.buf = append(d.buf, chunk...)

	var out []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return out, nil
		}
		line := strings.TrimSpace(string(d.buf[:i]))
		d.buf = d.buf[i+1:]
		if line == "" {
			continue
		}
		if frags, err := d.extract(line); err == nil {
			out = append(out, frags...)
		}
	}
}

// Finish flushes the session. The final line of a body often arrives without
// a trailing newline; if the residual is a complete JSON object it is
// decoded normally. A residual that is not valid JSON is an incomplete
// frame and therefore a decode error, not a silent drop.
func (d *Decoder) Finish() ([]string, error) {
	rest := strings.TrimSpace(string(d.buf))
	d.buf = nil
	if rest == "" {
		return nil, nil
	}
	if !json.Valid([]byte(rest)) {
		return nil, &ai.DecodeError{Frame: rest, Err: errTruncated}
	}
	frags, err := d.extract(rest)
	if err != nil {
		return nil, err
	}
	return frags, nil
}

type truncatedErr struct{}

func (truncatedErr) Error() string { return "stream ended mid-line" }

var errTruncated = truncatedErr{}
