package speech

import (
	"context"
	"testing"
)

func TestNullRecognizerIsNotSupported(t *testing.T) {
	var r Recognizer = NullRecognizer{}
	if _, err := r.Start(context.Background()); err != ErrNotSupported {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	r.Stop()
}

func TestScriptedRecognizerReplaysTranscripts(t *testing.T) {
	r := &ScriptedRecognizer{Transcripts: []Transcript{
		{Text: "hel"},
		{Text: "hello"},
		{Text: "hello world", Final: true},
	}}
	ch, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var got []Transcript
	for tr := range ch {
		got = append(got, tr)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transcripts, got %d", len(got))
	}
	if got[2].Text != "hello world" || !got[2].Final {
		t.Fatalf("unexpected final transcript: %+v", got[2])
	}
}

func TestScriptedRecognizerStopCancels(t *testing.T) {
	r := &ScriptedRecognizer{Transcripts: []Transcript{
		{Text: "a"}, {Text: "b"}, {Text: "c", Final: true},
	}}
	ch, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-ch
	r.Stop()
	// The channel closes once the producer observes cancellation.
	for range ch {
	}
}
