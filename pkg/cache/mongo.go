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

// MongoConfig configures a [MongoCache].
type MongoConfig struct {
	// URI is a mongodb:// or mongodb+srv:// connection string.
	URI        string
	Database   string
	Collection string
}

// MongoCache stores entries as documents in a MongoDB collection. Besides
// raw bytes it can store structured documents ([MongoCache.SetDocument]), so
// cached layouts can be queried directly in the database.
//
// Expired documents are removed by a TTL index on expires_at; Get also
// ignores documents that expired but have not been reaped yet.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data,omitempty"`
	Doc       bson.Raw   `bson:"doc,omitempty"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// NewMongoCache connects to MongoDB and ensures the TTL index exists.
func NewMongoCache(ctx context.Context, cfg MongoConfig) (*MongoCache, error) {
	if cfg.Database == "" {
		cfg.Database = "filtergraph"
	}
	if cfg.Collection == "" {
		cfg.Collection = "cache"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}
	err = RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &MongoCache{client: client, coll: coll}, nil
}

func (c *MongoCache) find(ctx context.Context, key string) (*mongoEntry, error) {
	var e mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil, nil
	}
	return &e, nil
}

func (c *MongoCache) put(ctx context.Context, e mongoEntry, ttl time.Duration) error {
	e.UpdatedAt = time.Now().UTC()
	if ttl > 0 {
		exp := e.UpdatedAt.Add(ttl)
		e.ExpiresAt = &exp
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": e.Key}, e, options.Replace().SetUpsert(true))
	return err
}

// Get retrieves a value stored with [MongoCache.Set].
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, err := c.find(ctx, key)
	if err != nil || e == nil || e.Data == nil {
		return nil, false, err
	}
	return e.Data, true, nil
}

// Set stores a value.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.put(ctx, mongoEntry{Key: key, Data: data}, ttl)
}

// GetDocument decodes a document stored with [MongoCache.SetDocument] into out.
func (c *MongoCache) GetDocument(ctx context.Context, key string, out any) (bool, error) {
	e, err := c.find(ctx, key)
	if err != nil || e == nil || e.Doc == nil {
		return false, err
	}
	if err := bson.Unmarshal(e.Doc, out); err != nil {
		return false, fmt.Errorf("decode cached document: %w", err)
	}
	return true, nil
}

// SetDocument stores doc as a native BSON document.
func (c *MongoCache) SetDocument(ctx context.Context, key string, doc any, ttl time.Duration) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return c.put(ctx, mongoEntry{Key: key, Doc: raw}, ttl)
}

// Delete removes a value.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects from MongoDB.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// DocumentCache is implemented by caches that can store structured
// documents natively.
type DocumentCache interface {
	Cache
	GetDocument(ctx context.Context, key string, out any) (bool, error)
	SetDocument(ctx context.Context, key string, doc any, ttl time.Duration) error
}

// Ensure MongoCache implements DocumentCache.
var _ DocumentCache = (*MongoCache)(nil)
