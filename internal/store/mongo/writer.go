// Package mongo implements store.DocumentWriter for MongoDB.
package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/usestring/storeadvisor/internal/store"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

func init() {
	store.RegisterDocument("mongo", New)
}

// Writer inserts records into one collection.
type Writer struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to cfg.URI and pings the server.
func New(ctx context.Context, cfg store.DocumentConfig) (store.DocumentWriter, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Writer{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// InsertDocuments implements store.DocumentWriter.
func (w *Writer) InsertDocuments(ctx context.Context, records []any) (int64, error) {
	docs := make([]any, 0, len(records))
	for _, rec := range records {
		if obj, ok := rec.(*analyzer.Object); ok && obj != nil {
			docs = append(docs, ToBSON(obj))
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := w.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insertMany: %w", err)
	}
	return int64(len(res.InsertedIDs)), nil
}

// Close disconnects the client.
func (w *Writer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = w.client.Disconnect(ctx)
}

// ToBSON converts an ordered object into a bson.D so field order survives.
// Integral numbers become int64 when they fit, other numbers float64.
func ToBSON(obj *analyzer.Object) bson.D {
	doc := make(bson.D, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		doc = append(doc, bson.E{Key: pair.Key, Value: bsonValue(pair.Value)})
	}
	return doc
}

func bsonValue(v any) any {
	switch t := v.(type) {
	case *analyzer.Object:
		if t == nil {
			return nil
		}
		return ToBSON(t)
	case []any:
		arr := make(bson.A, len(t))
		for i, e := range t {
			arr[i] = bsonValue(e)
		}
		return arr
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
