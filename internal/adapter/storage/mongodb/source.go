package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

// Source reads documents straight from MongoDB collections.
type Source struct {
	db  *mongo.Database
	log *zap.Logger
}

func NewSource(client *mongo.Client, database string, log *zap.Logger) *Source {
	return &Source{db: client.Database(database), log: log}
}

func (s *Source) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	return s.find(ctx, collection, bson.M{})
}

// FetchWhere filters on equality. Dotted fields address embedded documents.
func (s *Source) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *Source) find(ctx context.Context, collection string, filter bson.M) ([]domain.RawDocument, error) {
	start := time.Now()
	defer func() {
		telemetry.DatabaseLatency.WithLabelValues("mongo", collection).Observe(time.Since(start).Seconds())
	}()

	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		s.log.Error("Failed to query collection", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	docs := make([]domain.RawDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toRawDocument(collection, row))
	}
	return docs, nil
}

// toRawDocument lifts _id into RawDocument.ID and turns nested BSON
// containers into plain maps and slices.
func toRawDocument(collection string, row bson.M) domain.RawDocument {
	fields := normalize.PlainMap(row)
	id := documentID(fields["_id"])
	delete(fields, "_id")
	return domain.RawDocument{Collection: collection, ID: id, Fields: fields}
}

func documentID(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := normalize.String(v); ok {
		return s
	}
	if f, ok := normalize.Number(v); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprint(v)
}
