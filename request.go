package reveal

import "strings"

// Request carries everything a Generator needs to produce one reply.
// The generator uses its own defaults when fields are zero.
type Request struct {
	Prompt       string
	Transaction  string        // opaque context supplied by the caller, e.g. a serialized receipt
	History      []ChatMessage // prior turns, oldest first, excluding Prompt
	Model        string        // model ID, generator-specific; empty = generator default
	SystemPrompt string
}

// System returns the system prompt with the transaction context appended.
func (r Request) System() string {
	if r.Transaction == "" {
		return r.SystemPrompt
	}
	var b strings.Builder
	if r.SystemPrompt != "" {
		b.WriteString(r.SystemPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Transaction context:\n")
	b.WriteString(r.Transaction)
	return b.String()
}

// Turns returns the conversation to send: the history without empty
// messages, followed by the prompt as a user turn. Replies stopped before
// anything was shown are empty and most services reject empty turns.
func (r Request) Turns() []ChatMessage {
	turns := make([]ChatMessage, 0, len(r.History)+1)
	for _, m := range r.History {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		turns = append(turns, m)
	}
	return append(turns, ChatMessage{Role: RoleUser, Content: r.Prompt})
}
