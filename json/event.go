package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/reveal"
)

// Event names used on the wire.
const (
	EventMessageAppended     = "message_appended"
	EventMessageUpdated      = "message_updated"
	EventSessionStarted      = "session_started"
	EventSessionEnded        = "session_ended"
	EventConversationCleared = "conversation_cleared"
)

type messageAppendedDTO struct {
	Message messageDTO `json:"message"`
}

type messageUpdatedDTO struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type sessionStartedDTO struct {
	MessageID string `json:"message_id"`
}

type sessionEndedDTO struct {
	MessageID string `json:"message_id"`
	State     string `json:"state"`
}

// MarshalEvent returns the wire name and JSON payload of e.
func MarshalEvent(e reveal.Event) (string, []byte, error) {
	var (
		name string
		dto  any
	)
	switch e := e.(type) {
	case reveal.EventMessageAppended:
		name, dto = EventMessageAppended, messageAppendedDTO{Message: marshalMessage(e.Message)}
	case reveal.EventMessageUpdated:
		name, dto = EventMessageUpdated, messageUpdatedDTO{ID: e.ID, Content: e.Content}
	case reveal.EventSessionStarted:
		name, dto = EventSessionStarted, sessionStartedDTO{MessageID: e.MessageID}
	case reveal.EventSessionEnded:
		name, dto = EventSessionEnded, sessionEndedDTO{MessageID: e.MessageID, State: e.State.String()}
	case reveal.EventConversationCleared:
		name, dto = EventConversationCleared, struct{}{}
	default:
		return "", nil, fmt.Errorf("unknown event type: %T", e)
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return name, data, nil
}

// UnmarshalEvent decodes an event from its wire name and JSON payload.
func UnmarshalEvent(name string, data []byte) (reveal.Event, error) {
	switch name {
	case EventMessageAppended:
		var dto messageAppendedDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		msg, err := unmarshalMessage(dto.Message)
		if err != nil {
			return nil, err
		}
		return reveal.EventMessageAppended{Message: msg}, nil
	case EventMessageUpdated:
		var dto messageUpdatedDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		return reveal.EventMessageUpdated{ID: dto.ID, Content: dto.Content}, nil
	case EventSessionStarted:
		var dto sessionStartedDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		return reveal.EventSessionStarted{MessageID: dto.MessageID}, nil
	case EventSessionEnded:
		var dto sessionEndedDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		state, err := parseState(dto.State)
		if err != nil {
			return nil, err
		}
		return reveal.EventSessionEnded{MessageID: dto.MessageID, State: state}, nil
	case EventConversationCleared:
		return reveal.EventConversationCleared{}, nil
	default:
		return nil, fmt.Errorf("unknown event name: %q", name)
	}
}

func parseState(s string) (reveal.SessionState, error) {
	for st := reveal.StateIdle; st <= reveal.StateFailed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown session state: %q", s)
}
