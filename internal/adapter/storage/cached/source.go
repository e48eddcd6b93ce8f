package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
	"github.com/seu-repo/sigec-insights/internal/ports"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

const initialGeneration = "0"

// Source caches whole fetch results per collection. Every key embeds the
// collection generation, so bumping the generation drops all of its entries.
type Source struct {
	next  ports.DocumentSource
	cache ports.Cache
	ttl   time.Duration
	log   *zap.Logger
}

type envelope struct {
	Docs []domain.RawDocument `bson:"docs"`
}

func New(next ports.DocumentSource, cache ports.Cache, ttl time.Duration, log *zap.Logger) *Source {
	return &Source{next: next, cache: cache, ttl: ttl, log: log}
}

func (s *Source) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	key := s.key(ctx, collection, "all")
	return s.cached(ctx, collection, key, func() ([]domain.RawDocument, error) {
		return s.next.FetchAll(ctx, collection)
	})
}

func (s *Source) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s=%T:%v", field, value, value)))
	key := s.key(ctx, collection, "where:"+hex.EncodeToString(sum[:8]))
	return s.cached(ctx, collection, key, func() ([]domain.RawDocument, error) {
		return s.next.FetchWhere(ctx, collection, field, value)
	})
}

// Invalidate starts a new generation for the collection.
func (s *Source) Invalidate(ctx context.Context, collection string) error {
	if err := s.cache.Set(ctx, generationKey(collection), uuid.New().String(), 0); err != nil {
		return fmt.Errorf("failed to bump cache generation for %s: %w", collection, err)
	}
	telemetry.CacheInvalidationsTotal.WithLabelValues(collection).Inc()
	return nil
}

func generationKey(collection string) string {
	return "docs:gen:" + collection
}

func (s *Source) key(ctx context.Context, collection, query string) string {
	gen, err := s.cache.Get(ctx, generationKey(collection))
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.log.Warn("Failed to read cache generation", zap.String("collection", collection), zap.Error(err))
		}
		gen = initialGeneration
	}
	return fmt.Sprintf("docs:%s:%s:%s", collection, gen, query)
}

func (s *Source) cached(ctx context.Context, collection, key string, load func() ([]domain.RawDocument, error)) ([]domain.RawDocument, error) {
	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		docs, decodeErr := decode(raw)
		if decodeErr == nil {
			telemetry.CacheRequestsTotal.WithLabelValues(collection, "hit").Inc()
			return docs, nil
		}
		s.log.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(decodeErr))
	case !errors.Is(err, ports.ErrCacheMiss):
		s.log.Warn("Cache read failed, falling back to source", zap.String("key", key), zap.Error(err))
	}
	telemetry.CacheRequestsTotal.WithLabelValues(collection, "miss").Inc()

	docs, err := load()
	if err != nil {
		return nil, err
	}

	data, err := encode(docs)
	if err != nil {
		s.log.Warn("Failed to encode documents for cache", zap.String("collection", collection), zap.Error(err))
		return docs, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn("Failed to write cache entry", zap.String("key", key), zap.Error(err))
	}
	return docs, nil
}

func encode(docs []domain.RawDocument) ([]byte, error) {
	safe := make([]domain.RawDocument, len(docs))
	for i, d := range docs {
		d.Fields, _ = bsonSafe(d.Fields).(map[string]interface{})
		safe[i] = d
	}
	return bson.Marshal(envelope{Docs: safe})
}

func decode(raw string) ([]domain.RawDocument, error) {
	var env envelope
	if err := bson.Unmarshal([]byte(raw), &env); err != nil {
		return nil, err
	}
	docs := make([]domain.RawDocument, 0, len(env.Docs))
	for _, d := range env.Docs {
		if d.Fields == nil {
			d.Fields = map[string]interface{}{}
		}
		d.Fields = normalize.PlainMap(d.Fields)
		docs = append(docs, d)
	}
	return docs, nil
}

// bsonSafe rewrites json.Number, which BSON would store as a string.
func bsonSafe(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = bsonSafe(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = bsonSafe(val)
		}
		return out
	}
	return v
}
