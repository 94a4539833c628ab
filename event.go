package reveal

// Event is a sealed interface representing a change to the observed
// conversation. Events are emitted in mutation order.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventMessageAppended signals a new message at the end of the conversation.
type EventMessageAppended struct {
	Message ChatMessage
}

func (EventMessageAppended) event() {}

// EventMessageUpdated carries the full new content of an existing message.
type EventMessageUpdated struct {
	ID      string
	Content string
}

func (EventMessageUpdated) event() {}

// EventSessionStarted signals that MessageID is now streaming.
type EventSessionStarted struct {
	MessageID string
}

func (EventSessionStarted) event() {}

// EventSessionEnded signals that the session for MessageID reached State.
type EventSessionEnded struct {
	MessageID string
	State     SessionState
}

func (EventSessionEnded) event() {}

// EventConversationCleared signals that every message was removed.
type EventConversationCleared struct{}

func (EventConversationCleared) event() {}

// Interface compliance checks.
var (
	_ Event = EventMessageAppended{}
	_ Event = EventMessageUpdated{}
	_ Event = EventSessionStarted{}
	_ Event = EventSessionEnded{}
	_ Event = EventConversationCleared{}
)
