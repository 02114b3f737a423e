package rawstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

const insertBatchSize = 500

// MongoStore keeps raw extractions in MongoDB: records in raw_records,
// one metadata document per extraction in extractions.
type MongoStore struct {
	client      *mongo.Client
	records     *mongo.Collection
	extractions *mongo.Collection
	logger      *slog.Logger
}

// NewMongoStore creates a Mongo raw store from the configuration.
func NewMongoStore(cfg config.RawStoreConfig, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultMongoTimeout
	}

	opts := options.Client().ApplyURI(cfg.MongoURI).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		// Bad options; the error resurfaces from Connect().
		return &MongoStore{logger: logger}
	}

	db := client.Database(cfg.MongoDatabase)
	return &MongoStore{
		client:      client,
		records:     db.Collection("raw_records"),
		extractions: db.Collection("extractions"),
		logger:      logger,
	}
}

// Connect verifies the server is reachable.
func (s *MongoStore) Connect(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return s.client.Ping(ctx, nil)
}

// Save replaces the previous extraction for the source and inserts the
// records in batches, then records the extraction metadata.
func (s *MongoStore) Save(ctx context.Context, source core.Source, records []core.RawRecord) error {
	if s.records == nil {
		return fmt.Errorf("mongo client not initialized")
	}

	// Each source keeps only its newest extraction, matching the
	// one-file-per-source layout of the JSON fallback.
	if _, err := s.records.DeleteMany(ctx, bson.M{"source": source}); err != nil {
		return fmt.Errorf("clear previous extraction: %w", err)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		docs := make([]any, 0, end-start)
		for _, r := range records[start:end] {
			docs = append(docs, r)
		}
		if _, err := s.records.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert records at offset %d: %w", start, err)
		}
	}

	meta := Metadata{
		Source:         source,
		ExtractionDate: time.Now().UTC(),
		TotalRecords:   len(records),
	}
	if _, err := s.extractions.InsertOne(ctx, meta); err != nil {
		return fmt.Errorf("record extraction metadata: %w", err)
	}

	s.logger.Info("saved raw records", "source", source, "records", len(records))
	return nil
}

// LoadAll returns every stored record, ordered by source then ID.
func (s *MongoStore) LoadAll(ctx context.Context) ([]core.RawRecord, error) {
	if s.records == nil {
		return nil, fmt.Errorf("mongo client not initialized")
	}

	opts := options.Find().SetSort(bson.D{{Key: "source", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := s.records.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query raw records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []core.RawRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode raw records: %w", err)
	}

	s.logger.Debug("loaded raw records", "records", len(records))
	return records, nil
}

// Kind names the backend.
func (s *MongoStore) Kind() string {
	return "mongodb"
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
