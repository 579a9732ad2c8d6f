package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoDatabase holds one collection per cache namespace.
const DefaultMongoDatabase = "flowspace"

// MongoCache stores entries as documents keyed by _id. Expiry is enforced
// on read and by a TTL index on expires_at.
type MongoCache struct {
	client  *mongo.Client
	coll    *mongo.Collection
	backoff Backoff
}

// MongoOptions configures a MongoCache.
type MongoOptions struct {
	URI        string
	Database   string // default DefaultMongoDatabase
	Collection string // default "cache"
	// ServerSelectionTimeout bounds how long operations wait for a server.
	ServerSelectionTimeout time.Duration
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects, pings, and ensures the TTL index.
func NewMongoCache(ctx context.Context, opts MongoOptions) (*MongoCache, error) {
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = "cache"
	}
	copts := options.Client().ApplyURI(opts.URI)
	if opts.ServerSelectionTimeout > 0 {
		copts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, copts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	c := &MongoCache{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		backoff: redisBackoff,
	}
	if err := c.do(ctx, func() error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	_, err = c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return c, nil
}

func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e mongoEntry
	err := c.do(ctx, func() error {
		return c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	// The TTL monitor runs about once a minute.
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		e.ExpiresAt = &exp
	}
	return c.do(ctx, func() error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, e, options.Replace().SetUpsert(true))
		return err
	})
}

func (c *MongoCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error {
		_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
}

// Clear removes every document in the collection.
func (c *MongoCache) Clear(ctx context.Context) error {
	return c.do(ctx, func() error {
		_, err := c.coll.DeleteMany(ctx, bson.D{})
		return err
	})
}

func (c *MongoCache) Close() error {
	return c.client.Disconnect(context.Background())
}

func (c *MongoCache) do(ctx context.Context, fn func() error) error {
	return c.backoff.Retry(ctx, func() error {
		err := fn()
		if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) && ctx.Err() == nil {
			return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		return err
	})
}

var (
	_ Cache   = (*MongoCache)(nil)
	_ Clearer = (*MongoCache)(nil)
)
