// Package docstore implements the document sink over MongoDB with
// full-document-equality dedup.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// MongoSink writes lookup result documents. Dedup is intentionally
// full-document equality, not business-key newest-wins: two documents
// differing in any field are both kept.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ ports.DocumentSink = (*MongoSink)(nil)

// NewMongoSink connects and verifies the deployment is reachable.
func NewMongoSink(ctx context.Context, cfg config.MongoConfig) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// UpsertExact inserts doc unless an identical document already exists.
// The filter matches every field, and $setOnInsert writes only on insert,
// so a matched document is never modified.
func (s *MongoSink) UpsertExact(ctx context.Context, doc map[string]any) (bool, error) {
	filter := bson.M(doc)
	update := bson.M{"$setOnInsert": bson.M(doc)}

	res, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert document: %w", err)
	}
	return res.UpsertedID != nil, nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
