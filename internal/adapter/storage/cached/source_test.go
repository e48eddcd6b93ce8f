package cached

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/adapter/queue"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/mocks"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

func fixture() *memory.Source {
	return memory.New().
		Add(domain.CollectionSessions, "s1", map[string]interface{}{
			"unitId":    "u1",
			"startTime": time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
			"app":       map[string]interface{}{"batteryStart": json.Number("20"), "deviceMake": "Apple"},
			"tags":      []interface{}{"a", map[string]interface{}{"k": "v"}},
		}).
		Add(domain.CollectionSessions, "s2", map[string]interface{}{"unitId": "u2"})
}

func TestFetchAll_SecondCallIsServedFromCache(t *testing.T) {
	ctx := context.Background()
	src := fixture()
	cache := mocks.NewMockCache()
	s := New(src, cache, time.Minute, zap.NewNop())

	first, err := s.FetchAll(ctx, domain.CollectionSessions)
	require.NoError(t, err)
	second, err := s.FetchAll(ctx, domain.CollectionSessions)
	require.NoError(t, err)

	assert.Equal(t, 1, src.Calls(domain.CollectionSessions))
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)

	fields := second[0].Fields
	assert.Equal(t, "Apple", normalize.Lookup(fields, "app.deviceMake"))
	battery, ok := normalize.Number(normalize.Lookup(fields, "app.batteryStart"))
	require.True(t, ok)
	assert.Equal(t, 20.0, battery)

	at, ok := normalize.Timestamp(fields["startTime"])
	require.True(t, ok)
	assert.True(t, at.Equal(time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)))

	tags, ok := fields["tags"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"k": "v"}, tags[1])
}

func TestFetchWhere_KeyedByFilter(t *testing.T) {
	ctx := context.Background()
	src := fixture()
	s := New(src, mocks.NewMockCache(), time.Minute, zap.NewNop())

	u1, err := s.FetchWhere(ctx, domain.CollectionSessions, "unitId", "u1")
	require.NoError(t, err)
	u2, err := s.FetchWhere(ctx, domain.CollectionSessions, "unitId", "u2")
	require.NoError(t, err)
	_, err = s.FetchWhere(ctx, domain.CollectionSessions, "unitId", "u1")
	require.NoError(t, err)

	require.Len(t, u1, 1)
	require.Len(t, u2, 1)
	assert.Equal(t, "s1", u1[0].ID)
	assert.Equal(t, "s2", u2[0].ID)
	assert.Equal(t, 2, src.Calls(domain.CollectionSessions))
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	src := fixture()
	src.FailOn(domain.CollectionSessions, boom)
	cache := mocks.NewMockCache()
	s := New(src, cache, time.Minute, zap.NewNop())

	_, err := s.FetchAll(ctx, domain.CollectionSessions)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Keys())

	src.FailOn(domain.CollectionSessions, nil)
	docs, err := s.FetchAll(ctx, domain.CollectionSessions)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFetch_CacheOutageFallsBackToSource(t *testing.T) {
	ctx := context.Background()
	src := fixture()
	cache := mocks.NewMockCache()
	cache.GetFunc = func(context.Context, string) (string, error) { return "", errors.New("connection refused") }
	cache.SetFunc = func(context.Context, string, interface{}, time.Duration) error { return errors.New("connection refused") }
	s := New(src, cache, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		docs, err := s.FetchAll(ctx, domain.CollectionSessions)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	}
	assert.Equal(t, 2, src.Calls(domain.CollectionSessions))
}

func TestInvalidator_DropsCollectionEntries(t *testing.T) {
	ctx := context.Background()
	src := fixture().Add(domain.CollectionUnits, "u1", nil)
	mq := mocks.NewMockMessageQueue()
	s := New(src, mocks.NewMockCache(), time.Minute, zap.NewNop())
	inv := NewInvalidator(s, mq, zap.NewNop())
	require.NoError(t, inv.Start())

	_, _ = s.FetchAll(ctx, domain.CollectionSessions)
	_, _ = s.FetchAll(ctx, domain.CollectionUnits)

	event, err := queue.DocumentsChanged{Collection: domain.CollectionSessions}.Encode()
	require.NoError(t, err)
	require.NoError(t, mq.Deliver(queue.SubjectDocumentsChanged, event))

	_, _ = s.FetchAll(ctx, domain.CollectionSessions)
	_, _ = s.FetchAll(ctx, domain.CollectionUnits)

	assert.Equal(t, 2, src.Calls(domain.CollectionSessions))
	assert.Equal(t, 1, src.Calls(domain.CollectionUnits))
}

func TestInvalidator_RejectsMalformedEvents(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	inv := NewInvalidator(New(memory.New(), mocks.NewMockCache(), time.Minute, zap.NewNop()), mq, zap.NewNop())
	require.NoError(t, inv.Start())

	assert.Error(t, mq.Deliver(queue.SubjectDocumentsChanged, []byte(`{}`)))
}
