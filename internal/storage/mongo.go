package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// MongoSink mirrors filtered listings into a MongoDB collection, for
// setups that want query access to past runs on top of the flat files.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoSink connects to MongoDB and pings it before returning.
func NewMongoSink(uri, database, collection string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

// Store implements Sink.
func (s *MongoSink) Store(page types.CategoryPage, records []types.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = map[string]any{
			"category":     rec.Category,
			"description":  rec.Description,
			"phone":        rec.Phone,
			"new":          rec.IsNew,
			"_category_id": page.ID,
			"_position":    i + 1,
			"_fetched_at":  now,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	s.count += len(records)
	s.logger.Debug("listings stored in mongodb", "cat", page.ID, "count", len(records), "total", s.count)
	return nil
}

func (s *MongoSink) Close() error {
	s.logger.Info("mongodb sink closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
