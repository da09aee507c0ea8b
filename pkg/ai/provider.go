package ai

import "context"

// Provider is the capability contract satisfied by every backend: the four
// HTTP adapters under providers/, the Bedrock adapter, and the deterministic
// mock. Everything above the streaming layer depends only on this interface.
//
// A Provider instance serves concurrent requests; implementations must keep
// it read-only after construction. All per-request state lives in the Stream.
type Provider interface {
	// StreamCompletion starts a streaming completion. The returned Stream is
	// lazy: network reads happen as fragments are pulled, not eagerly. It is
	// not restartable — once exhausted or closed, make a new call.
	StreamCompletion(ctx context.Context, req CompletionRequest) (Stream, error)

	// GetFixSuggestion performs a single non-streaming round trip that asks
	// the model to diagnose a failed command. An empty model response yields
	// a fixed "no response" string, not an error.
	GetFixSuggestion(ctx context.Context, errorLog string) (string, error)

	// ModelName returns the configured model identifier. No I/O.
	ModelName() string
}

// Stream is a pull-based sequence of decoded text fragments. Fragments are
// delivered in arrival order; concatenating them reconstructs the answer.
//
// Next returns io.EOF after the last fragment of a cleanly terminated
// stream. Any other error is terminal and typed per errors.go. Closing
// before exhaustion abandons the stream and releases the underlying
// connection; it is not an error and Close is safe to call more than once.
type Stream interface {
	Next() (string, error)
	Close() error
}
