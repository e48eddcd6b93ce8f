package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/mocks"
)

func testSettings(name string) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: 2,
		Timeout:          time.Hour,
		Retries:          0,
		RetryDelay:       time.Millisecond,
	}
}

func TestSource_PassesThrough(t *testing.T) {
	src := mocks.NewMockDocumentSource()
	src.FetchAllFunc = func(ctx context.Context, collection string) ([]domain.RawDocument, error) {
		return []domain.RawDocument{{Collection: collection, ID: "x"}}, nil
	}
	s := NewSource(src, testSettings("pass"), zap.NewNop())

	docs, err := s.FetchAll(context.Background(), domain.CollectionUnits)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "x", docs[0].ID)
	assert.Equal(t, "closed", s.Status().State)
}

func TestSource_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("server selection timeout")
	src := mocks.NewMockDocumentSource()
	src.FetchAllFunc = func(context.Context, string) ([]domain.RawDocument, error) { return nil, boom }
	s := NewSource(src, testSettings("trip"), zap.NewNop())
	ctx := context.Background()

	_, err1 := s.FetchAll(ctx, domain.CollectionSessions)
	_, err2 := s.FetchAll(ctx, domain.CollectionSessions)
	_, err3 := s.FetchAll(ctx, domain.CollectionSessions)

	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.ErrorIs(t, err3, gobreaker.ErrOpenState)
	assert.True(t, IsCircuitOpen(err3))
	assert.Equal(t, 2, src.Calls(domain.CollectionSessions))
	assert.Equal(t, "open", s.Status().State)
}

func TestSource_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	src := mocks.NewMockDocumentSource()
	src.FetchWhereFunc = func(context.Context, string, string, interface{}) ([]domain.RawDocument, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("reset")
		}
		return []domain.RawDocument{}, nil
	}
	settings := testSettings("retry")
	settings.Retries = 2
	settings.FailureThreshold = 10
	s := NewSource(src, settings, zap.NewNop())

	docs, err := s.FetchWhere(context.Background(), domain.CollectionAppChargingEvents, "sessionId", "s1")

	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Equal(t, 3, attempts)
}

func TestSource_CancellationDoesNotTrip(t *testing.T) {
	src := mocks.NewMockDocumentSource()
	src.FetchAllFunc = func(context.Context, string) ([]domain.RawDocument, error) { return nil, context.Canceled }
	s := NewSource(src, testSettings("cancel"), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := s.FetchAll(context.Background(), domain.CollectionSessions)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", s.Status().State)
}

func TestRetryWithBackoff_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := RetryWithBackoff(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
