// Package relay provides the stream duplication primitive used while
// billing model responses: each chunk is forwarded to the caller and
// appended to an accumulator, and the full text is handed to a
// completion callback exactly once when the source stream ends.
package relay

import (
	"strings"
	"sync"
)

// Relay tees a chunk sequence. Forwarding is chunk-at-a-time with no
// whole-response buffering; time-to-first-byte is that of the source.
type Relay struct {
	forward  func(chunk string) error
	complete func(full string)

	mu         sync.Mutex
	buf        strings.Builder
	forwardErr error
	once       sync.Once
}

// New creates a relay. forward receives each chunk in order; complete
// receives the concatenation of all chunks when Close is called.
func New(forward func(chunk string) error, complete func(full string)) *Relay {
	return &Relay{
		forward:  forward,
		complete: complete,
	}
}

// Write passes a chunk through. Accumulation always happens; once a
// forward fails (typically a disconnected caller) further forwards are
// skipped so the paid-for answer can still be persisted in full.
func (r *Relay) Write(chunk string) error {
	r.mu.Lock()
	r.buf.WriteString(chunk)
	forwardErr := r.forwardErr
	r.mu.Unlock()

	if forwardErr != nil {
		return nil
	}

	if err := r.forward(chunk); err != nil {
		r.mu.Lock()
		r.forwardErr = err
		r.mu.Unlock()
	}
	return nil
}

// ForwardErr reports the first forwarding failure, if any.
func (r *Relay) ForwardErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forwardErr
}

// Text returns the accumulated text so far.
func (r *Relay) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Close fires the completion callback with the accumulated text.
// Subsequent calls are no-ops.
func (r *Relay) Close() {
	r.once.Do(func() {
		r.complete(r.Text())
	})
}
