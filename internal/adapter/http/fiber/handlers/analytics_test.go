package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/aggregate"
	"github.com/seu-repo/sigec-insights/internal/service/analytics"
)

var fixedNow = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

type m = map[string]interface{}

func newTestApp(src *memory.Source) *fiber.App {
	svc := analytics.NewService(src, analytics.Options{
		Window:   aggregate.Last7Days,
		Location: time.UTC,
		Clock:    func() time.Time { return fixedNow },
	}, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
	NewAnalyticsHandler(svc, zap.NewNop()).RegisterRoutes(app.Group("/api/v1"))
	return app
}

func smallFleet() *memory.Source {
	src := memory.New()
	src.Add(domain.CollectionLocations, "l1", m{"name": "Mall A", "active": true})
	src.Add(domain.CollectionUnits, "u1", m{"name": "Kiosk 1", "locationId": "l1", "status": "online"})
	src.Add(domain.CollectionSessions, "s1", m{"unitId": "u1", "startTime": "2024-06-10T10:00:00Z", "outcome": "success"}).
		Add(domain.CollectionSessions, "s2", m{"unitId": "u1", "startTime": "2024-05-01T10:00:00Z", "outcome": "failure"})
	src.Add(domain.CollectionAppChargingEvents, "e1", m{"sessionId": "s1", "timestamp": "2024-06-10T10:05:00Z"})
	return src
}

func get(t *testing.T, app *fiber.App, path string) (int, string, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, resp.Header.Get(HeaderRunID), body
}

func TestSessionsOverview_WindowQuery(t *testing.T) {
	app := newTestApp(smallFleet())

	status, runID, body := get(t, app, "/api/v1/sessions/overview?window=30d")

	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, runID)
	assert.Equal(t, "30d", body["window"])
	assert.Len(t, body["sessions"], 2)
	assert.NotContains(t, body, "run_id")
}

func TestSessionsOverview_DefaultWindow(t *testing.T) {
	app := newTestApp(smallFleet())

	status, _, body := get(t, app, "/api/v1/sessions/overview")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "7d", body["window"])
}

func TestSessionsOverview_InvalidWindow(t *testing.T) {
	app := newTestApp(smallFleet())

	status, _, body := get(t, app, "/api/v1/sessions/overview?window=fortnight")

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid window")
}

func TestLocationDetail_NotFound(t *testing.T) {
	app := newTestApp(smallFleet())

	status, _, body := get(t, app, "/api/v1/locations/l9")

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body["error"], `"l9"`)
}

func TestUnitDetail(t *testing.T) {
	app := newTestApp(smallFleet())

	status, runID, body := get(t, app, "/api/v1/units/u1")

	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, runID)
	unit := body["unit"].(map[string]interface{})
	assert.Equal(t, "u1", unit["id"])
	assert.Len(t, body["sessions"], 2)
}

func TestSessionEvents(t *testing.T) {
	app := newTestApp(smallFleet())

	status, _, body := get(t, app, "/api/v1/sessions/s1/events")

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "s1", body["session_id"])
	assert.Len(t, body["events"], 1)
}

func TestDashboard_FetchFailureIsBadGateway(t *testing.T) {
	src := smallFleet()
	src.FailOn(domain.CollectionInteractions, errors.New("connection reset"))
	app := newTestApp(src)

	status, runID, body := get(t, app, "/api/v1/dashboard")

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Empty(t, runID)
	assert.Contains(t, body["error"], domain.CollectionInteractions)
}

type stubService struct {
	AnalyticsService
	campaigns *analytics.CampaignList
}

func (s stubService) CampaignList(context.Context) (*analytics.CampaignList, error) {
	return s.campaigns, nil
}

func TestCampaignList_SetsRunIDHeader(t *testing.T) {
	app := fiber.New()
	NewAnalyticsHandler(stubService{campaigns: &analytics.CampaignList{
		Campaigns:    []domain.EnrichedCampaign{},
		StatusCounts: map[domain.CampaignStatus]int{domain.CampaignStatusActive: 0},
		RunID:        "run-123",
	}}, zap.NewNop()).RegisterRoutes(app)

	status, runID, body := get(t, app, "/campaigns")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "run-123", runID)
	assert.Contains(t, body, "status_counts")
}
