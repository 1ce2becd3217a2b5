package entity

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusProcessed DeliveryStatus = "processed"
	DeliveryStatusSkipped   DeliveryStatus = "skipped"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// WebhookDelivery is one inbound platform event. EventID is the platform's
// delivery id and is unique, which makes redelivered webhooks idempotent.
type WebhookDelivery struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	EventID   string         `db:"event_id" json:"event_id"`
	Payload   string         `db:"payload" json:"payload"`
	Status    DeliveryStatus `db:"status" json:"status"`
	Error     *string        `db:"error" json:"error,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
