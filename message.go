package reveal

import "time"

// ChatMessage is one turn of a conversation. Messages are created when a turn
// starts and mutated in place, by ID, as content is revealed or finalized.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Snapshot is the observable conversation at one point in time.
type Snapshot struct {
	Messages    []ChatMessage
	Active      bool
	StreamingID string
}
