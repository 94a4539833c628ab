// Package json implements the JSON wire format for conversation snapshots and
// store events.
package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/reveal"
)

// envelope is the v1 wire format for a conversation snapshot.
type envelope struct {
	Version     int          `json:"version"`
	Messages    []messageDTO `json:"messages"`
	Active      bool         `json:"active"`
	StreamingID string       `json:"streaming_id,omitempty"`
}

// messageDTO is the JSON representation of a ChatMessage.
type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalSnapshot serializes a Snapshot in v1 envelope format.
func MarshalSnapshot(s reveal.Snapshot) ([]byte, error) {
	env := envelope{
		Version:     1,
		Messages:    make([]messageDTO, len(s.Messages)),
		Active:      s.Active,
		StreamingID: s.StreamingID,
	}
	for i, msg := range s.Messages {
		env.Messages[i] = marshalMessage(msg)
	}
	return json.Marshal(env)
}

// UnmarshalSnapshot deserializes a Snapshot from v1 envelope format.
func UnmarshalSnapshot(data []byte) (reveal.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return reveal.Snapshot{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return reveal.Snapshot{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]reveal.ChatMessage, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return reveal.Snapshot{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return reveal.Snapshot{
		Messages:    msgs,
		Active:      env.Active,
		StreamingID: env.StreamingID,
	}, nil
}

func marshalMessage(msg reveal.ChatMessage) messageDTO {
	return messageDTO{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}

func unmarshalMessage(dto messageDTO) (reveal.ChatMessage, error) {
	switch role := reveal.Role(dto.Role); role {
	case reveal.RoleUser, reveal.RoleAssistant:
		return reveal.ChatMessage{
			ID:        dto.ID,
			Role:      role,
			Content:   dto.Content,
			Timestamp: dto.Timestamp,
		}, nil
	default:
		return reveal.ChatMessage{}, fmt.Errorf("unknown message role: %q", dto.Role)
	}
}
