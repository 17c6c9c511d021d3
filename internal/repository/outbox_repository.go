package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxEvent is a pending order event awaiting publication. Events are
// appended alongside order writes and drained by the outbox poller.
type OutboxEvent struct {
	ID        string    `bson:"_id"`
	OrderID   string    `bson:"order_id"`
	EventType string    `bson:"event_type"`
	Payload   []byte    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	// Pointer so an unprocessed event stores no field at all; the poller
	// filters on processed_at absence.
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

type OutboxRepository interface {
	AppendEvent(ctx context.Context, orderID, eventType string, payload []byte) error
	UnprocessedEvents(ctx context.Context, limit int64) ([]OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

type mongoOutboxRepository struct {
	collection *mongo.Collection
}

func NewMongoOutboxRepository(db *mongo.Database) OutboxRepository {
	return &mongoOutboxRepository{
		collection: db.Collection("order_events"),
	}
}

func (m *mongoOutboxRepository) AppendEvent(ctx context.Context, orderID, eventType string, payload []byte) error {
	event := OutboxEvent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

func (m *mongoOutboxRepository) UnprocessedEvents(ctx context.Context, limit int64) ([]OutboxEvent, error) {
	filter := bson.M{"processed_at": bson.M{"$exists": false}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}
	return events, nil
}

func (m *mongoOutboxRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	update := bson.M{"$set": bson.M{"processed_at": time.Now()}}
	result, err := m.collection.UpdateByID(ctx, eventID, update)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox event %s not found", eventID)
	}
	return nil
}
