package state

import (
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func TestSessionStateReplaceTranscriptCopies(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	st.AppendUserMessage("hi")

	canonical := append(st.History(), schema.AssistantMessage("hello", nil))
	st.ReplaceTranscript(canonical)
	canonical[0] = schema.UserMessage("mutated")

	if st.Transcript[0].Content != "hi" {
		t.Fatalf("transcript aliases caller slice: %q", st.Transcript[0].Content)
	}
	if len(st.Transcript) != 2 || st.Turns != 1 {
		t.Fatalf("unexpected state: len=%d turns=%d", len(st.Transcript), st.Turns)
	}
}

func TestSessionStateValidate(t *testing.T) {
	t.Parallel()

	st := NewSessionState("  ", time.Now())
	if err := st.Validate(); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSession", err)
	}

	st = NewSessionState("s1", time.Now())
	st.Transcript = append(st.Transcript, nil)
	if err := st.Validate(); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("Validate() error = %v, want ErrNilMessage", err)
	}

	st = NewSessionState("s1", time.Now())
	st.Transcript = append(st.Transcript, &schema.Message{Role: "robot"})
	if err := st.Validate(); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("Validate() error = %v, want ErrUnknownRole", err)
	}
}
