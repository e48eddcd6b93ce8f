package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/ports"
)

// Source guards a DocumentSource with retries and a circuit breaker. Once
// the breaker opens, fetches fail fast until the store recovers.
type Source struct {
	next    ports.DocumentSource
	breaker *gobreaker.CircuitBreaker
	retries int
	delay   time.Duration
	log     *zap.Logger
}

func NewSource(next ports.DocumentSource, settings Settings, log *zap.Logger) *Source {
	if settings.Name == "" {
		settings.Name = "document-source"
	}
	settings = settings.withDefaults()
	return &Source{
		next:    next,
		breaker: New(settings, log),
		retries: settings.Retries,
		delay:   settings.RetryDelay,
		log:     log,
	}
}

func (s *Source) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	return s.call(ctx, collection, func() ([]domain.RawDocument, error) {
		return s.next.FetchAll(ctx, collection)
	})
}

func (s *Source) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	return s.call(ctx, collection, func() ([]domain.RawDocument, error) {
		return s.next.FetchWhere(ctx, collection, field, value)
	})
}

// Status reports the breaker for the health endpoint.
func (s *Source) Status() BreakerStatus {
	return StatusOf(s.breaker)
}

func (s *Source) call(ctx context.Context, collection string, fetch func() ([]domain.RawDocument, error)) ([]domain.RawDocument, error) {
	var docs []domain.RawDocument
	err := RetryWithBackoff(ctx, s.retries, s.delay, func() error {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return fetch()
		})
		if err != nil {
			return err
		}
		docs = result.([]domain.RawDocument)
		return nil
	})
	if err != nil {
		if IsCircuitOpen(err) {
			s.log.Warn("Circuit breaker open, fetch blocked",
				zap.String("collection", collection),
				zap.String("breaker", s.breaker.Name()),
			)
		}
		return nil, err
	}
	return docs, nil
}
