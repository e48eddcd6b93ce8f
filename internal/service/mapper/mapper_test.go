package mapper

import (
	"math"
	"testing"
	"time"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

func doc(collection, id string, fields map[string]interface{}) domain.RawDocument {
	return domain.RawDocument{Collection: collection, ID: id, Fields: fields}
}

func TestUnit_NameFallbackChain(t *testing.T) {
	// Arrange
	m := New(time.UTC)
	cases := []struct {
		name   string
		fields map[string]interface{}
		want   string
	}{
		{"nested metrics name wins", map[string]interface{}{"metrics": map[string]interface{}{"name": "Metrics Name"}, "name": "Top"}, "Metrics Name"},
		{"top level name", map[string]interface{}{"metrics": map[string]interface{}{}, "name": "Top"}, "Top"},
		{"blank names fall to id", map[string]interface{}{"name": "  "}, "unit-1"},
		{"non-string name falls to id", map[string]interface{}{"name": 12}, "unit-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got := m.Unit(doc(domain.CollectionUnits, "unit-1", tc.fields))

			// Assert
			if got.Name != tc.want {
				t.Errorf("expected name %q, got %q", tc.want, got.Name)
			}
		})
	}
}

func TestUnit_MalformedFieldsAreAbsent(t *testing.T) {
	m := New(time.UTC)

	got := m.Unit(doc(domain.CollectionUnits, "u1", map[string]interface{}{
		"status":  "ONLINE",
		"inUse":   "maybe",
		"metrics": map[string]interface{}{"successRate": "0.9", "faultRate": math.NaN(), "retryRate": 0.1},
		"health":  map[string]interface{}{"needsMaintenance": "yes", "lastCalculated": "not a date"},
	}))

	if got.Status != domain.UnitStatusOnline {
		t.Errorf("expected status online, got %q", got.Status)
	}
	if got.InUse != nil {
		t.Errorf("expected in-use absent, got %v", *got.InUse)
	}
	if got.Metrics.SuccessRate != nil {
		t.Errorf("numeric string must not decode, got %v", *got.Metrics.SuccessRate)
	}
	if got.Metrics.FaultRate != nil {
		t.Error("NaN must decode as absent")
	}
	if got.Metrics.RetryRate == nil || *got.Metrics.RetryRate != 0.1 {
		t.Errorf("expected retry rate 0.1, got %v", got.Metrics.RetryRate)
	}
	if got.Health.NeedsMaintenance == nil || !*got.Health.NeedsMaintenance {
		t.Error("expected truthy synonym to decode as true")
	}
	if got.Health.LastCalculated != nil {
		t.Error("expected unparseable health time to be absent")
	}
}

func TestUnit_UnknownStatusIsAbsent(t *testing.T) {
	m := New(time.UTC)

	got := m.Unit(doc(domain.CollectionUnits, "u1", map[string]interface{}{"status": "rebooting"}))

	if got.Status != "" {
		t.Errorf("expected absent status, got %q", got.Status)
	}
}

func TestUnit_StatusFallsBackToHealth(t *testing.T) {
	m := New(time.UTC)
	cases := []struct {
		name   string
		fields map[string]interface{}
		want   domain.UnitStatus
	}{
		{"health status only", map[string]interface{}{"health": map[string]interface{}{"status": "online"}}, domain.UnitStatusOnline},
		{"unknown status defers to health", map[string]interface{}{"status": "rebooting", "health": map[string]interface{}{"status": "online"}}, domain.UnitStatusOnline},
		{"top level status wins", map[string]interface{}{"status": "offline", "health": map[string]interface{}{"status": "warning"}}, domain.UnitStatusOffline},
		{"connection status is not a source", map[string]interface{}{"connectionStatus": "online"}, ""},
		{"both unknown", map[string]interface{}{"status": "rebooting", "health": map[string]interface{}{"status": "degraded"}}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Unit(doc(domain.CollectionUnits, "u1", tc.fields))

			if got.Status != tc.want {
				t.Errorf("expected status %q, got %q", tc.want, got.Status)
			}
		})
	}
}

func TestSession_DurationAndLifecycle(t *testing.T) {
	m := New(time.UTC)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	derived := m.Session(doc(domain.CollectionSessions, "s1", map[string]interface{}{
		"startTime": start,
		"endTime":   start.Add(45 * time.Minute).UnixMilli(),
	}))
	if derived.DurationMinutes == nil || *derived.DurationMinutes != 45 {
		t.Fatalf("expected derived duration 45, got %v", derived.DurationMinutes)
	}
	if derived.Lifecycle() != domain.LifecycleCompleted {
		t.Errorf("expected completed, got %s", derived.Lifecycle())
	}

	explicit := m.Session(doc(domain.CollectionSessions, "s2", map[string]interface{}{
		"startTime":       start,
		"endTime":         start.Add(45 * time.Minute),
		"durationMinutes": 30,
	}))
	if explicit.DurationMinutes == nil || *explicit.DurationMinutes != 30 {
		t.Errorf("expected explicit duration 30, got %v", explicit.DurationMinutes)
	}

	open := m.Session(doc(domain.CollectionSessions, "s3", map[string]interface{}{
		"startTime": start,
		"endTime":   "garbage",
	}))
	if open.DurationMinutes != nil {
		t.Errorf("expected no duration without end, got %v", *open.DurationMinutes)
	}
	if open.Lifecycle() != domain.LifecycleInProgress {
		t.Errorf("expected in_progress, got %s", open.Lifecycle())
	}

	backwards := m.Session(doc(domain.CollectionSessions, "s4", map[string]interface{}{
		"startTime": start,
		"endTime":   start.Add(-time.Minute),
	}))
	if backwards.DurationMinutes != nil {
		t.Error("expected end before start to leave duration absent")
	}
}

func TestSession_StartFallsBackToDateAndHour(t *testing.T) {
	m := New(time.UTC)

	got := m.Session(doc(domain.CollectionSessions, "s1", map[string]interface{}{
		"startTime": "??",
		"date":      "2024-03-05",
		"hour":      int32(14),
	}))

	want := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	if got.Start == nil || !got.Start.Equal(want) {
		t.Fatalf("expected start %s, got %v", want, got.Start)
	}
}

func TestSession_AppLinkage(t *testing.T) {
	m := New(time.UTC)

	linked := m.Session(doc(domain.CollectionSessions, "s1", map[string]interface{}{
		"app": map[string]interface{}{
			"deviceMake":   "Apple",
			"batteryStart": 20,
			"batteryEnd":   65.5,
		},
		"coreid":     "e00fce68",
		"deviceType": " iOS ",
	}))
	if !linked.HasAppData {
		t.Error("expected app data to be derived from app fields")
	}
	if linked.App.BatteryDelta == nil || *linked.App.BatteryDelta != 45.5 {
		t.Errorf("expected derived battery delta 45.5, got %v", linked.App.BatteryDelta)
	}
	if linked.DeviceKey != "e00fce68" {
		t.Errorf("expected device key from coreid, got %q", linked.DeviceKey)
	}
	if linked.DeviceType != "ios" {
		t.Errorf("expected lower-cased device type, got %q", linked.DeviceType)
	}

	flagged := m.Session(doc(domain.CollectionSessions, "s2", map[string]interface{}{"appLinked": true}))
	if !flagged.HasAppData {
		t.Error("expected explicit flag to mark app data")
	}

	bare := m.Session(doc(domain.CollectionSessions, "s3", map[string]interface{}{"appLinked": "no"}))
	if bare.HasAppData {
		t.Error("expected no app data")
	}
}

func TestSession_SuccessSignalIsStrict(t *testing.T) {
	m := New(time.UTC)

	got := m.Session(doc(domain.CollectionSessions, "s1", map[string]interface{}{
		"success": "true",
		"outcome": "Successful",
		"status":  "completed",
	}))

	if got.Signals.Success != nil {
		t.Error("expected string success to be ignored")
	}
	if got.Signals.Outcome != "Successful" || got.Signals.Status != "completed" {
		t.Errorf("unexpected signals: %+v", got.Signals)
	}
}

func TestMapping_NeverPanicsOnEmptyDocuments(t *testing.T) {
	m := New(nil)
	empty := domain.RawDocument{ID: "x"}

	_ = m.Location(empty)
	_ = m.Unit(empty)
	_ = m.Session(empty)
	_ = m.Interaction(empty)
	_ = m.AppChargingEvent(empty)
	_ = m.Promotion(empty)
	c := m.Campaign(empty)

	if c.Name != "x" {
		t.Errorf("expected campaign name to fall back to id, got %q", c.Name)
	}
}

func TestLocation_RoundTrip(t *testing.T) {
	// Arrange
	m := New(time.UTC)
	created := time.Date(2023, 11, 2, 9, 30, 0, 0, time.UTC)
	fields := map[string]interface{}{
		"name":               "Shopping Center Norte",
		"brandId":            "brand-9",
		"brandName":          "Acme",
		"storeLabel":         "Loja 12",
		"city":               "São Paulo",
		"country":            "BR",
		"category":           "mall",
		"active":             true,
		"coordinates":        map[string]interface{}{"latitude": -23.5, "longitude": -46.6},
		"qrTarget":           "https://example.com/l/1",
		"totalSessions":      int64(120),
		"unitsInUse":         2,
		"unitsTotal":         6,
		"hasActivePromotion": false,
		"promotionsEnabled":  true,
		"createdAt":          created,
	}

	// Act
	got := m.Location(doc(domain.CollectionLocations, "loc-1", fields))

	// Assert
	checks := map[string][2]interface{}{
		"name":       {fields["name"], got.Name},
		"brandId":    {fields["brandId"], got.BrandID},
		"brandName":  {fields["brandName"], got.BrandName},
		"storeLabel": {fields["storeLabel"], got.StoreLabel},
		"city":       {fields["city"], got.City},
		"country":    {fields["country"], got.Country},
		"category":   {fields["category"], got.Category},
		"qrTarget":   {fields["qrTarget"], got.QRTarget},
	}
	for field, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s: expected %v, got %v", field, pair[0], pair[1])
		}
	}
	if got.Active == nil || !*got.Active {
		t.Error("expected active")
	}
	if got.Coordinates == nil || got.Coordinates.Lat != -23.5 || got.Coordinates.Lng != -46.6 {
		t.Errorf("unexpected coordinates %+v", got.Coordinates)
	}
	if got.TotalSessions == nil || *got.TotalSessions != 120 {
		t.Errorf("expected total sessions 120, got %v", got.TotalSessions)
	}
	if got.UnitsInUse == nil || *got.UnitsInUse != 2 || got.UnitsTotal == nil || *got.UnitsTotal != 6 {
		t.Error("unexpected unit counters")
	}
	if got.HasActivePromotion == nil || *got.HasActivePromotion {
		t.Error("expected has-active-promotion false")
	}
	if got.PromotionsEnabled == nil || !*got.PromotionsEnabled {
		t.Error("expected promotions enabled")
	}
	if got.CreatedAt == nil || !got.CreatedAt.Equal(created) {
		t.Errorf("expected created at %s, got %v", created, got.CreatedAt)
	}
}

func TestLocation_CoordinatesNeedBothAxes(t *testing.T) {
	m := New(time.UTC)

	got := m.Location(doc(domain.CollectionLocations, "loc-1", map[string]interface{}{"lat": 1.5}))

	if got.Coordinates != nil {
		t.Errorf("expected no coordinates, got %+v", got.Coordinates)
	}
	if got.Name != "loc-1" {
		t.Errorf("expected name fallback to id, got %q", got.Name)
	}
}

func TestCampaign_LocationIDsMerge(t *testing.T) {
	m := New(time.UTC)

	got := m.Campaign(doc(domain.CollectionCampaigns, "c1", map[string]interface{}{
		"title":       "Black Friday",
		"locationIds": []interface{}{"loc-1", "loc-2"},
		"locationId":  "loc-3",
		"startDate":   "2024-11-20",
		"clicks":      float64(42),
	}))

	if got.Name != "Black Friday" {
		t.Errorf("expected name from title, got %q", got.Name)
	}
	if len(got.LocationIDs) != 3 || got.LocationIDs[2] != "loc-3" {
		t.Errorf("unexpected location ids %v", got.LocationIDs)
	}
	if got.Window.Start == nil || got.Window.End != nil {
		t.Errorf("unexpected window %+v", got.Window)
	}
	if got.Engagement == nil || *got.Engagement != 42 {
		t.Errorf("expected engagement 42, got %v", got.Engagement)
	}
}
