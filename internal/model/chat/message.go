package chat

import "time"

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
