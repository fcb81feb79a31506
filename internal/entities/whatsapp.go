package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// MessagingInstance is the provider channel linked by one user.
type MessagingInstance struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	InstanceKey      string            `json:"instance_key"`
	Token            string            `json:"-"`
	IsActive         bool              `json:"is_active"`
	ConnectionStatus *ConnectionStatus `json:"connection_status,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type MessageTemplate struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	StatusKey Stage     `json:"status_key"`
	Template  string    `json:"template"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// MessageLog is append-only; one row per delivery attempt.
type MessageLog struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	ClientID  uuid.UUID      `json:"client_id"`
	StatusKey Stage          `json:"status_key"`
	Template  string         `json:"template"`
	Status    DeliveryStatus `json:"status"`
	Error     *string        `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// WhatsAppNotification is an alert surfaced to an instance owner.
type WhatsAppNotification struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	InstanceID uuid.UUID       `json:"instance_id"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Metadata   json.RawMessage `json:"metadata"`
	IsRead     bool            `json:"is_read"`
	CreatedAt  time.Time       `json:"created_at"`
}
