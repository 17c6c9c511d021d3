package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) SaveItems(ctx context.Context, userID int64, items []domain.CartItem, expectedUpdatedAt time.Time) error {
	now := time.Now()

	if expectedUpdatedAt.IsZero() {
		cart := &domain.Cart{
			UserID:    userID,
			Items:     items,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := m.collection.InsertOne(ctx, cart)
		if mongo.IsDuplicateKeyError(err) {
			// Another write created the cart between our read and this
			// insert. Same recovery as a stale update: re-read and retry.
			return ErrStaleWrite
		}
		if err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}

	filter := bson.M{
		"user_id":    userID,
		"updated_at": expectedUpdatedAt,
	}
	update := bson.M{
		"$set": bson.M{
			"items":      items,
			"updated_at": now,
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart items: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (m *mongoCartRepository) DeleteCart(ctx context.Context, userID int64) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
