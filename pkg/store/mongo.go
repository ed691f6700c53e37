package store

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/digraph/pkg/errors"
)

// Mongo defaults.
const (
	DefaultMongoDatabase = "digraph"
	MongoCollection      = "documents"
)

// Mongo stores each document in its own MongoDB document keyed by _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongo connects to the deployment named by a mongodb:// URL. The URL
// path selects the database, defaulting to [DefaultMongoDatabase].
func NewMongo(ctx context.Context, rawURL string) (*Mongo, error) {
	db, err := mongoDatabase(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rawURL))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "configure mongo client")
	}

	err = RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo")
	}
	return &Mongo{client: client, coll: client.Database(db).Collection(MongoCollection)}, nil
}

func mongoDatabase(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse mongo URL")
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db, nil
	}
	return DefaultMongoDatabase, nil
}

// Get reads the document stored under key.
func (m *Mongo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := errors.ValidateKey(key); err != nil {
		return nil, false, err
	}
	var doc mongoDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "get", key)
	}
	return doc.Data, true, nil
}

// Set upserts the document stored under key.
func (m *Mongo) Set(ctx context.Context, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	doc := mongoDocument{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "set", key)
	}
	return nil
}

// Delete removes the document stored under key.
func (m *Mongo) Delete(ctx context.Context, key string) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return storeErr(err, "delete", key)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error { return m.client.Disconnect(context.Background()) }

var _ Store = (*Mongo)(nil)
