package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

// MockDocumentSource is a mock implementation of DocumentSource interface
type MockDocumentSource struct {
	mu             sync.Mutex
	calls          map[string]int
	FetchAllFunc   func(ctx context.Context, collection string) ([]domain.RawDocument, error)
	FetchWhereFunc func(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error)
}

func NewMockDocumentSource() *MockDocumentSource {
	return &MockDocumentSource{calls: make(map[string]int)}
}

func (m *MockDocumentSource) FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	m.count(collection)
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx, collection)
	}
	return []domain.RawDocument{}, nil
}

func (m *MockDocumentSource) FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error) {
	m.count(collection)
	if m.FetchWhereFunc != nil {
		return m.FetchWhereFunc(ctx, collection, field, value)
	}
	return []domain.RawDocument{}, nil
}

// Calls returns how many fetches reached the collection.
func (m *MockDocumentSource) Calls(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[collection]
}

func (m *MockDocumentSource) count(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[collection]++
}
