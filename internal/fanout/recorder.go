package fanout

import (
	"context"
	"sync"
)

// Recorder is an in-memory Publisher for tests. It can be told to fail
// to exercise the best-effort publish policy.
type Recorder struct {
	mu        sync.Mutex
	envelopes []Envelope
	FailWith  error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.envelopes = append(r.envelopes, env)
	return nil
}

// Envelopes returns a copy of everything published so far.
func (r *Recorder) Envelopes() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.envelopes))
	copy(out, r.envelopes)
	return out
}

// OfKind filters recorded envelopes by kind.
func (r *Recorder) OfKind(kind Kind) []Envelope {
	var out []Envelope
	for _, env := range r.Envelopes() {
		if env.Kind == kind {
			out = append(out, env)
		}
	}
	return out
}
