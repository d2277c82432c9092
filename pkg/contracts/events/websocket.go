// Package events contains the message contracts pushed to WebSocket clients.
package events

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Sent once to every client right after it registers
	MessageTypeConnect MessageType = "connection"

	// File pass outcomes
	MessageTypeFileProcessed MessageType = "file:processed"
	MessageTypeFileFailed    MessageType = "file:failed"

	// Master workbooks rewritten after a change
	MessageTypeMastersExported MessageType = "masters:exported"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ConnectPayload greets a newly registered client
type ConnectPayload struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// MastersExported lists the workbooks written after Trigger changed the masters
type MastersExported struct {
	Trigger string   `json:"trigger"`
	Files   []string `json:"files"`
}
