package dto

import "github.com/google/uuid"

// LINE-style webhook payload. Only text messages are processed; everything
// else is acknowledged and dropped.
type (
	WebhookRequest struct {
		Destination string         `json:"destination"`
		Events      []WebhookEvent `json:"events"`
	}

	WebhookEvent struct {
		Type           string        `json:"type"`
		WebhookEventID string        `json:"webhookEventId"`
		ReplyToken     string        `json:"replyToken"`
		Timestamp      int64         `json:"timestamp"`
		Source         EventSource   `json:"source"`
		Message        *EventMessage `json:"message,omitempty"`
	}

	EventSource struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}

	EventMessage struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	}
)

// ProcessEventPayload is the task body handed to the background worker.
type ProcessEventPayload struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	ReplyToken string    `json:"reply_token"`
	Text       string    `json:"text"`
}
