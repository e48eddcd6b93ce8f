package memory

import (
	"context"
	"reflect"
	"sync"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

// Source is an in-memory DocumentSource used by the memory backend, the
// simulator dry-run and tests. Documents are returned in insertion order.
type Source struct {
	mu    sync.RWMutex
	docs  map[string][]domain.RawDocument
	fail  map[string]error
	calls map[string]int
}

func New() *Source {
	return &Source{
		docs:  make(map[string][]domain.RawDocument),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// Add stores one document under the collection.
func (s *Source) Add(collection, id string, fields map[string]interface{}) *Source {
	return s.Put(domain.RawDocument{Collection: collection, ID: id, Fields: fields})
}

func (s *Source) Put(docs ...domain.RawDocument) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.Fields == nil {
			d.Fields = map[string]interface{}{}
		}
		s.docs[d.Collection] = append(s.docs[d.Collection], d)
	}
	return s
}

// Replace swaps the whole content of a collection.
func (s *Source) Replace(collection string, docs []domain.RawDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection] = append([]domain.RawDocument(nil), docs...)
}

// FailOn makes every fetch of the collection return err. A nil err clears it.
func (s *Source) FailOn(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, collection)
		return
	}
	s.fail[collection] = err
}

// Calls reports how many fetches reached the collection.
func (s *Source) Calls(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[collection]
}

func (s *Source) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for c := range s.docs {
		out = append(out, c)
	}
	return out
}

func (s *Source) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	return s.fetch(ctx, collection, func(domain.RawDocument) bool { return true })
}

// FetchWhere matches on equality. Numbers compare by value regardless of
// their Go type and dotted fields address nested objects.
func (s *Source) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	return s.fetch(ctx, collection, func(d domain.RawDocument) bool {
		return equal(normalize.Lookup(d.Fields, field), value)
	})
}

func (s *Source) fetch(ctx context.Context, collection string, keep func(domain.RawDocument) bool) ([]domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls[collection]++
	err := s.fail[collection]
	stored := s.docs[collection]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make([]domain.RawDocument, 0, len(stored))
	for _, d := range stored {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func equal(a, b interface{}) bool {
	if x, ok := normalize.Number(a); ok {
		y, ok := normalize.Number(b)
		return ok && x == y
	}
	if x, ok := normalize.String(a); ok {
		y, ok := normalize.String(b)
		return ok && x == y
	}
	return a != nil && reflect.DeepEqual(a, b)
}
