package gameloop

// ChatRole tags a history entry.
type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in the conversation history. Only the text
// survives between turns; screenshots are attached fresh each request.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// History is a bounded FIFO of conversation messages giving the model
// short-term memory across turns.
type History struct {
	msgs []ChatMessage
	max  int
}

// NewHistory creates a History capped at max messages.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 10
	}
	return &History{max: max}
}

// Append adds a message, evicting the oldest when over capacity.
func (h *History) Append(role ChatRole, text string) {
	h.msgs = append(h.msgs, ChatMessage{Role: role, Text: text})
	if len(h.msgs) > h.max {
		h.msgs = h.msgs[len(h.msgs)-h.max:]
	}
}

// Messages returns a copy of the history in insertion order.
func (h *History) Messages() []ChatMessage {
	out := make([]ChatMessage, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Restore replaces the history with persisted messages, re-applying
// the cap.
func (h *History) Restore(msgs []ChatMessage) {
	h.msgs = nil
	for _, m := range msgs {
		h.Append(m.Role, m.Text)
	}
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	return len(h.msgs)
}
