// File: internal/store/mongo.go
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// MongoStore provides a persistent implementation of the Store interface
// backed by MongoDB. Semantic search requires an Atlas deployment with a
// vector index over the listings collection's embedding field.
type MongoStore struct {
	client        *mongo.Client
	listings      *mongo.Collection
	reports       *mongo.Collection
	vectorIndex   string
	numCandidates int
	log           *zap.Logger
}

// Ensures MongoStore correctly implements the Store interface at compile time.
var _ schemas.Store = (*MongoStore)(nil)

// NewMongoStore connects to the configured deployment and verifies the
// connection with a ping before returning the store.
func NewMongoStore(ctx context.Context, cfg config.DatabaseConfig, numCandidates int, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.Name)
	if numCandidates <= 0 {
		numCandidates = 150
	}

	return &MongoStore{
		client:        client,
		listings:      db.Collection(cfg.ListingsCollection),
		reports:       db.Collection(cfg.ReportsCollection),
		vectorIndex:   cfg.VectorIndex,
		numCandidates: numCandidates,
		log:           logger.Named("store.mongo"),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// SaveListing inserts or overwrites a listing document keyed by its ID.
func (s *MongoStore) SaveListing(ctx context.Context, listing *schemas.Listing) error {
	if listing.ID == "" {
		return fmt.Errorf("listing ID is required")
	}

	_, err := s.listings.ReplaceOne(ctx,
		bson.M{"_id": listing.ID},
		listing,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save listing '%s': %w", listing.ID, err)
	}

	s.log.Debug("Listing saved", zap.String("id", listing.ID))
	return nil
}

// GetListing retrieves a single listing by its ID.
func (s *MongoStore) GetListing(ctx context.Context, id string) (*schemas.Listing, error) {
	var listing schemas.Listing
	err := s.listings.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("listing '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch listing '%s': %w", id, err)
	}
	return &listing, nil
}

// SearchListings runs a keyword filter over the listings collection. The
// query matches title and description case-insensitively.
func (s *MongoStore) SearchListings(ctx context.Context, filter schemas.ListingFilter) ([]schemas.Listing, error) {
	query := bson.M{}
	if filter.Query != "" {
		pattern := bson.M{"$regex": filter.Query, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"address": pattern},
		}
	}
	if filter.MaxPrice > 0 {
		query["price"] = bson.M{"$lte": filter.MaxPrice}
	}
	if filter.MinBedrooms > 0 {
		query["bedrooms"] = bson.M{"$gte": filter.MinBedrooms}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.listings.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []schemas.Listing
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode listing results: %w", err)
	}
	return results, nil
}

// VectorSearch runs an Atlas $vectorSearch aggregation over listing
// embeddings and drops candidates below the minimum relevance score.
func (s *MongoStore) VectorSearch(ctx context.Context, embedding []float32, limit int, minScore float64) ([]schemas.ScoredListing, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.vectorIndex},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: embedding},
			{Key: "numCandidates", Value: s.numCandidates},
			{Key: "limit", Value: limit},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$gte", Value: minScore}}},
		}}},
		bson.D{{Key: "$unset", Value: "embedding"}},
	}

	cursor, err := s.listings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []schemas.ScoredListing
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode vector search results: %w", err)
	}

	s.log.Debug("Vector search complete", zap.Int("candidates", s.numCandidates), zap.Int("results", len(results)))
	return results, nil
}

// SaveReport inserts or overwrites a project report keyed by its ID.
func (s *MongoStore) SaveReport(ctx context.Context, report *schemas.ProjectReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	_, err := s.reports.ReplaceOne(ctx,
		bson.M{"_id": report.ID},
		report,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save report '%s': %w", report.ID, err)
	}

	s.log.Debug("Report saved", zap.String("id", report.ID))
	return nil
}

// GetReport retrieves a single project report by its ID.
func (s *MongoStore) GetReport(ctx context.Context, id string) (*schemas.ProjectReport, error) {
	var report schemas.ProjectReport
	err := s.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch report '%s': %w", id, err)
	}
	return &report, nil
}
