// Package speech wraps voice capture and synthesis behind capability-gated
// interfaces. It is consumed by the composer only; the conversation store
// never touches it.
package speech

import (
	"context"
	"errors"
)

// Transcript is one recognition event. Partial transcripts may be replaced by
// later events; Final marks the end of an utterance.
type Transcript struct {
	Text  string
	Final bool
}

// Recognizer produces a lazy sequence of transcripts once started. Start
// returns ErrNotSupported when the capability is absent on this platform.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Transcript, error)
	Stop()
}

// Speaker reads text aloud, fire-and-forget.
type Speaker interface {
	Speak(text string)
}

var ErrNotSupported = errors.New("speech: not supported on this platform")

// NullRecognizer is the default when no recognition backend is wired.
type NullRecognizer struct{}

func (NullRecognizer) Start(context.Context) (<-chan Transcript, error) {
	return nil, ErrNotSupported
}

func (NullRecognizer) Stop() {}

// NullSpeaker drops all speech output.
type NullSpeaker struct{}

func (NullSpeaker) Speak(string) {}

// ScriptedRecognizer replays fixed transcripts; used by tests and demos.
type ScriptedRecognizer struct {
	Transcripts []Transcript

	cancel context.CancelFunc
}

func (r *ScriptedRecognizer) Start(ctx context.Context) (<-chan Transcript, error) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	ch := make(chan Transcript)
	go func() {
		defer close(ch)
		for _, t := range r.Transcripts {
			select {
			case ch <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (r *ScriptedRecognizer) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}
