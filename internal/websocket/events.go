package websocket

import (
	"log"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastSyncStarted announces a sync run beginning for a property.
func (b *EventBroadcaster) BroadcastSyncStarted(propertyID string, sourceCount int) {
	b.broadcast(NewMessage(TypeSyncStarted, SyncStartedPayload{
		PropertyID:  propertyID,
		SourceCount: sourceCount,
	}))
}

// BroadcastSyncCompleted sends the summary of a finished sync run.
func (b *EventBroadcaster) BroadcastSyncCompleted(report *models.SyncReport) {
	payload := SyncCompletedPayload{
		PropertyID:     report.PropertyID,
		TotalProcessed: report.TotalProcessed,
		TotalErrors:    report.TotalErrors,
		ProcessingTime: report.ProcessingTime,
	}
	for _, src := range report.Sources {
		if src.Success {
			payload.SourcesOK++
		} else {
			payload.SourcesFailed++
		}
	}

	b.broadcast(NewMessage(TypeSyncCompleted, payload))
}

// BroadcastSyncError sends a sync failure event.
func (b *EventBroadcaster) BroadcastSyncError(propertyID string, err error) {
	b.broadcast(NewMessage(TypeSyncError, SyncErrorPayload{
		PropertyID: propertyID,
		Message:    err.Error(),
	}))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
