package realtime

import "time"

// Protocol error codes returned in error replies. All are non-fatal; the
// connection stays open.
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeMissingType        = "MISSING_TYPE"
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
	CodeInvalidRoom        = "INVALID_ROOM"
)

// Close codes for handshake rejection. Distinct codes let clients branch
// between re-authenticating and giving up.
const (
	CloseMissingCredential = 4001
	CloseInvalidCredential = 4002
)

// Domain event types fanned out to subscribed sessions.
const (
	EventTeeTimeCreated   = "TEE_TIME_CREATED"
	EventTeeTimeUpdated   = "TEE_TIME_UPDATED"
	EventTeeTimeCancelled = "TEE_TIME_CANCELLED"
	EventSlotJoined       = "SLOT_JOINED"
	EventSlotLeft         = "SLOT_LEFT"
	EventMessageSent      = "MESSAGE_SENT"
	EventNotification     = "NOTIFICATION"
)

// Event is an outbound domain event envelope.
type Event struct {
	Type          string    `json:"type"`
	Payload       any       `json:"payload,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// inboundMessage is the parsed form of a client control message.
type inboundMessage struct {
	Type      string `json:"type"`
	Room      string `json:"room,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type connectedMessage struct {
	Type      string    `json:"type"`
	ActorID   string    `json:"actorId"`
	Timestamp time.Time `json:"timestamp"`
}

type pongMessage struct {
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	ClientTimestamp *int64    `json:"clientTimestamp,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type subscriptionMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}
