package models

import "time"

type Sender string

type MessageType string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"

	MessageTypeInfo    MessageType = "info"
	MessageTypeAction  MessageType = "action"
	MessageTypeWarning MessageType = "warning"
)

// Message is one entry of an assistant conversation
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type,omitempty"`
}
