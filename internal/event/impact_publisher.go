package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"impactx/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ImpactFinalizedQueue = "impact_finalized_events"

// ImpactFinalizedEvent is emitted once per impact when moderation settles on a
// terminal status, whether automatically or through human review.
type ImpactFinalizedEvent struct {
	ImpactID      uuid.UUID           `json:"impact_id"`
	WalletAddress string              `json:"wallet_address"`
	Status        models.ImpactStatus `json:"status"`
	AIScore       *int                `json:"ai_score"`
	Reward        *float64            `json:"reward"`
	NFTMinted     bool                `json:"nft_minted"`
	AIPhotoFlag   bool                `json:"ai_photo_flag"`
	FinalizedBy   string              `json:"finalized_by"` // "auto" or reviewer id
	FinalizedAt   int64               `json:"finalized_at"`
}

// ImpactPublisher publishes impact lifecycle events to RabbitMQ. It is safe to
// construct with a nil connection; publishing then becomes a logged no-op so
// the moderation pipeline never depends on the broker being up.
type ImpactPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
}

func NewImpactPublisher(conn *RabbitMQConnection) *ImpactPublisher {
	return &ImpactPublisher{conn: conn}
}

// PublishFinalized publishes an impact.finalized event.
func (p *ImpactPublisher) PublishFinalized(ctx context.Context, event ImpactFinalizedEvent) error {
	if p.conn == nil {
		slog.Debug("Event broker not configured, skipping publish", "impact_id", event.ImpactID)
		return nil
	}

	if err := p.conn.DeclareQueue(ImpactFinalizedQueue); err != nil {
		p.messagesFailed++
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal impact finalized event: %w", err)
	}

	// Default exchange, queue name as routing key, neither mandatory nor
	// immediate.
	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",
		ImpactFinalizedQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish impact finalized event: %w", err)
	}

	p.messagesPublished++

	slog.Info("Impact finalized event published",
		"queue", ImpactFinalizedQueue,
		"impact_id", event.ImpactID,
		"status", event.Status,
	)

	return nil
}
