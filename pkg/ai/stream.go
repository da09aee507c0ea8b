package ai

import (
	"errors"
	"io"
)

// NoResponse is returned by GetFixSuggestion when the provider answered
// successfully but produced no candidates. Producing some text even when
// the model stays silent is part of the fix-suggestion contract.
const NoResponse = "No response from model"

// FrameDecoder turns raw network chunks into decoded text fragments. A
// decoder instance is the per-request session: it owns the carried-over
// partial-frame buffer and must not be shared across requests.
//
// Feed consumes one chunk and returns the fragments completed by it, in
// order. A chunk may end mid-frame; the trailing bytes are held in the
// session buffer and prepended to the next chunk. Feed may return fragments
// alongside an error when a malformed content frame follows good ones.
//
// Finish is called at end of stream. A residual buffer that still forms a
// complete frame (the final line of a body that lacks a trailing newline)
// is decoded and its fragments returned; anything else non-blank is a
// *DecodeError, never silently dropped.
type FrameDecoder interface {
	Feed(chunk []byte) ([]string, error)
	Finish() ([]string, error)
}

// bodyStream adapts an HTTP response body plus a FrameDecoder into a pull
// Stream. Reads from the wire happen only inside Next, so an abandoned
// stream performs no further I/O. Close releases the connection.
type bodyStream struct {
	provider string
	body     io.ReadCloser
	dec      FrameDecoder
	hint     string

	buf     []byte
	pending []string
	err     error // terminal error, delivered after pending fragments
	done    bool
	closed  bool
}

// NewBodyStream wraps body in a Stream that feeds each chunk through dec.
// hint is appended to mid-stream connection errors (e.g. which credential
// to check).
func NewBodyStream(provider string, body io.ReadCloser, dec FrameDecoder, hint string) Stream {
	return &bodyStream{
		provider: provider,
		body:     body,
		dec:      dec,
		hint:     hint,
		buf:      make([]byte, 8192),
	}
}

func (s *bodyStream) Next() (string, error) {
	for {
		if len(s.pending) > 0 {
			frag := s.pending[0]
			s.pending = s.pending[1:]
			return frag, nil
		}
		if s.err != nil {
			return "", s.err
		}
		if s.done || s.closed {
			return "", io.EOF
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			frags, derr := s.dec.Feed(s.buf[:n])
			s.pending = append(s.pending, frags...)
			if derr != nil {
				s.fail(derr)
				continue
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				frags, ferr := s.dec.Finish()
				s.pending = append(s.pending, frags...)
				if ferr != nil {
					s.fail(ferr)
				} else {
					s.done = true
					s.body.Close()
				}
				continue
			}
			s.fail(&ConnectionError{Provider: s.provider, Err: err, Hint: s.hint})
		}
	}
}

func (s *bodyStream) fail(err error) {
	s.err = err
	s.body.Close()
}

func (s *bodyStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// ChunkStream streams a fixed answer in size-bounded pieces. It backs the
// deterministic mock provider and anything else that needs to simulate
// streaming without a network.
type ChunkStream struct {
	chunks []string
	pos    int
	closed bool
}

// NewChunkStream splits text into chunks of at most size runes.
func NewChunkStream(text string, size int) *ChunkStream {
	if size <= 0 {
		size = 5
	}
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return &ChunkStream{chunks: chunks}
}

func (s *ChunkStream) Next() (string, error) {
	if s.closed || s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	frag := s.chunks[s.pos]
	s.pos++
	return frag, nil
}

func (s *ChunkStream) Close() error {
	s.closed = true
	return nil
}
