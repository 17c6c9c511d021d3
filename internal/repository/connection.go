package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the indexes the conditional-write paths depend on.
// The cart insert path in particular needs the unique user_id index to turn
// a racing double-insert into ErrStaleWrite.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexed := []interface{ CreateIndexes(context.Context) error }{
		NewMongoCartRepository(db).(*mongoCartRepository),
		NewMongoOrderRepository(db).(*mongoOrderRepository),
	}
	for _, r := range indexed {
		if err := r.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
