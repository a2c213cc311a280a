package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSyncStarted   MessageType = "sync.started"
	TypeSyncCompleted MessageType = "sync.completed"
	TypeSyncError     MessageType = "sync.error"
	TypeNotification  MessageType = "notification"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncStartedPayload is the payload for sync.started events.
type SyncStartedPayload struct {
	PropertyID  string `json:"property_id"`
	SourceCount int    `json:"source_count"`
}

// SyncCompletedPayload is the payload for sync.completed events.
type SyncCompletedPayload struct {
	PropertyID     string `json:"property_id"`
	TotalProcessed int    `json:"total_processed"`
	TotalErrors    int    `json:"total_errors"`
	ProcessingTime string `json:"processing_time"`
	SourcesOK      int    `json:"sources_ok"`
	SourcesFailed  int    `json:"sources_failed"`
}

// SyncErrorPayload is the payload for sync.error events.
type SyncErrorPayload struct {
	PropertyID string `json:"property_id"`
	Message    string `json:"message"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level   string `json:"level"` // info, warning, error, success
	Title   string `json:"title"`
	Message string `json:"message"`
}
