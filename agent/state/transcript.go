package state

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrNilTranscript      = errors.New("transcript is nil")
	ErrInvalidChannel     = errors.New("channel id is empty")
)

// Transcript is the local record of one Shapes conversation. Shapes keys
// conversation memory by user and channel, so the transcript does too.
type Transcript struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Model     string    `json:"model,omitempty"`
	Turns     []Turn    `json:"turns,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Turn struct {
	Question string    `json:"question"`
	Reply    string    `json:"reply"`
	Model    string    `json:"model,omitempty"`
	At       time.Time `json:"at"`
}

func NewTranscript(channelID, userID string, now time.Time) *Transcript {
	return &Transcript{
		ChannelID: channelID,
		UserID:    userID,
		UpdatedAt: now.UTC(),
	}
}

// Append records one exchange. The transcript model follows the latest turn.
func (t *Transcript) Append(question, reply, model string, now time.Time) {
	now = now.UTC()
	t.Turns = append(t.Turns, Turn{
		Question: question,
		Reply:    reply,
		Model:    model,
		At:       now,
	})
	if model != "" {
		t.Model = model
	}
	t.UpdatedAt = now
}

func (t *Transcript) Validate() error {
	if t == nil {
		return ErrNilTranscript
	}
	if strings.TrimSpace(t.ChannelID) == "" {
		return ErrInvalidChannel
	}
	return nil
}
