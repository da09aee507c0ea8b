package ai

import "fmt"

// The error taxonomy mirrors how failures are acted upon:
//
//   - ConnectionError: the request never completed at the transport level
//     (DNS, TCP, TLS, mid-stream read). Likely network or credential.
//   - ProviderError: the provider answered with a non-success status. The
//     status and body are preserved verbatim for diagnosability.
//   - DecodeError: a complete protocol frame was assembled but could not be
//     decoded. Distinct from tolerated malformed non-content events, which
//     are skipped because they carry no user-visible payload.
//   - ConfigurationError: a credential environment variable is missing.

// ConnectionError wraps a transport-level failure.
type ConnectionError struct {
	Provider string
	Err      error
	Hint     string // remediation hint, e.g. the credential to check
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("%s: connection failed: %v", e.Provider, e.Err)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProviderError is a non-success HTTP response. Body is the full response
// body, read before failing so nothing is lost.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Hint       string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// DecodeError reports a malformed frame after a complete line or event was
// assembled, or a non-empty partial frame left over at end of stream.
type DecodeError struct {
	Provider string
	Frame    string // the offending frame, possibly truncated
	Err      error
}

func (e *DecodeError) Error() string {
	frame := e.Frame
	if len(frame) > 200 {
		frame = frame[:200] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: decode frame %q: %v", e.Provider, frame, e.Err)
	}
	return fmt.Sprintf("%s: decode frame %q", e.Provider, frame)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigurationError names the environment variable a provider constructor
// could not find.
type ConfigurationError struct {
	Variable string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not set", e.Variable)
}
