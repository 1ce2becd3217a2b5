package repository

import (
	"context"
	"database/sql"

	"chatcal-api/core/database"
	"chatcal-api/modules/webhook/entity"

	"github.com/google/uuid"
)

type WebhookDeliveryRepository interface {
	// InsertIfNew records the delivery and reports whether it was new.
	// Redelivered events (same platform event id) return false.
	InsertIfNew(ctx context.Context, delivery *entity.WebhookDelivery) (bool, error)
	MarkStatus(ctx context.Context, id uuid.UUID, status entity.DeliveryStatus, procErr string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WebhookDelivery, error)
}

type webhookDeliveryRepository struct {
	db database.IDatabase
}

func NewWebhookDeliveryRepository(db database.IDatabase) WebhookDeliveryRepository {
	return &webhookDeliveryRepository{db: db}
}

func (r *webhookDeliveryRepository) InsertIfNew(ctx context.Context, delivery *entity.WebhookDelivery) (bool, error) {
	query := `
		INSERT INTO webhook_deliveries (id, event_id, payload, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		delivery.ID, delivery.EventID, delivery.Payload, delivery.Status,
	).Scan(&delivery.CreatedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *webhookDeliveryRepository) MarkStatus(ctx context.Context, id uuid.UUID, status entity.DeliveryStatus, procErr string) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $1, error = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3
	`
	return r.db.ExecContext(ctx, query, status, procErr, id)
}

func (r *webhookDeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WebhookDelivery, error) {
	query := `
		SELECT id, event_id, payload, status, error, created_at, updated_at
		FROM webhook_deliveries
		WHERE id = $1
	`
	var delivery entity.WebhookDelivery
	if err := r.db.GetContext(ctx, &delivery, query, id); err != nil {
		return nil, err
	}
	return &delivery, nil
}
