package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrNilMessage  = errors.New("transcript contains a nil message")
	ErrUnknownRole = errors.New("transcript message has an unknown role")
)

// SessionState is the persisted part of a chat session: its transcript.
type SessionState struct {
	SessionID  string            `json:"session_id"`
	Transcript []*schema.Message `json:"transcript"`
	Turns      int               `json:"turns"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:  sessionID,
		Transcript: make([]*schema.Message, 0, 8),
		UpdatedAt:  now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// AppendUserMessage adds a user turn to the end of the transcript.
func (s *SessionState) AppendUserMessage(text string) {
	s.Transcript = append(s.Transcript, schema.UserMessage(text))
}

// ReplaceTranscript swaps in the runtime's canonical history and counts the turn.
func (s *SessionState) ReplaceTranscript(msgs []*schema.Message) {
	s.Transcript = append(make([]*schema.Message, 0, len(msgs)), msgs...)
	s.Turns++
}

// History returns a copy of the transcript slice. Messages are shared.
func (s *SessionState) History() []*schema.Message {
	if s == nil {
		return nil
	}
	return append([]*schema.Message(nil), s.Transcript...)
}

func (s *SessionState) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, m := range s.Transcript {
		if m == nil {
			return fmt.Errorf("%w: index=%d", ErrNilMessage, i)
		}
		switch m.Role {
		case schema.User, schema.Assistant, schema.Tool, schema.System:
		default:
			return fmt.Errorf("%w: index=%d role=%q", ErrUnknownRole, i, m.Role)
		}
	}
	return nil
}
