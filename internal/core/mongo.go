// AngelaMos | 2026
// mongo.go

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vidtube/go-backend/internal/config"
)

const (
	CollectionUsers         = "users"
	CollectionSubscriptions = "subscriptions"
	CollectionVideos        = "videos"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewMongo(ctx context.Context, cfg config.DatabaseConfig) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(max(cfg.MaxOpenConns, 1))).
		SetMinPoolSize(uint64(max(cfg.MaxIdleConns, 0))).
		SetMaxConnIdleTime(cfg.ConnMaxIdleTime)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background()) //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{Client: client, DB: client.Database(cfg.Name)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.Client != nil {
		return m.Client.Disconnect(ctx)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.Client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	return nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories
// rely on. Creating an existing index is a no-op.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "fullName", Value: 1}}},
		},
		CollectionSubscriptions: {
			{Keys: bson.D{{Key: "channel", Value: 1}}},
			{Keys: bson.D{{Key: "subscriber", Value: 1}}},
		},
		CollectionVideos: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := m.DB.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}

	return nil
}

// MongoError normalizes driver errors onto the core sentinels.
func MongoError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ObjectID parses a hex id, rejecting malformed input as ErrInvalidInput.
func ObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, ErrInvalidInput)
	}
	return oid, nil
}
