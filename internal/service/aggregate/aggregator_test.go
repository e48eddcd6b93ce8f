package aggregate

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

var now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(f float64) *float64 { return &f }

type sessionOpt func(*domain.ClassifiedSession)

func session(id string, start *time.Time, opts ...sessionOpt) domain.ClassifiedSession {
	s := domain.ClassifiedSession{}
	s.ID = id
	s.Start = start
	s.Outcome = domain.OutcomeIndeterminate
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withOutcome(o domain.Outcome) sessionOpt {
	return func(s *domain.ClassifiedSession) { s.Outcome = o }
}

func withDevice(dt string) sessionOpt {
	return func(s *domain.ClassifiedSession) { s.DeviceType = dt }
}

func withDuration(m float64) sessionOpt {
	return func(s *domain.ClassifiedSession) {
		s.DurationMinutes = &m
		s.State = domain.LifecycleCompleted
	}
}

func atLocation(id, name string) sessionOpt {
	return func(s *domain.ClassifiedSession) {
		s.UnitRef.LocationID = id
		s.UnitRef.LocationName = name
	}
}

func TestSnapshot_SuccessRate(t *testing.T) {
	at := ptrTime(now.Add(-time.Hour))
	var records []domain.ClassifiedSession
	for i := 0; i < 6; i++ {
		records = append(records, session(fmt.Sprintf("ok-%d", i), at, withOutcome(domain.OutcomeSuccess)))
	}
	for i := 0; i < 2; i++ {
		records = append(records, session(fmt.Sprintf("fail-%d", i), at, withOutcome(domain.OutcomeFailure)))
	}
	for i := 0; i < 2; i++ {
		records = append(records, session(fmt.Sprintf("unknown-%d", i), at))
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Equal(t, 6, snap.Successes)
	assert.Equal(t, 2, snap.Failures)
	assert.Equal(t, 2, snap.Indeterminate)
	require.NotNil(t, snap.SuccessRate)
	assert.Equal(t, 75.0, *snap.SuccessRate)
}

func TestSnapshot_SuccessRateAbsentWithoutDecidedRecords(t *testing.T) {
	snap := Sessions(0).Snapshot([]domain.ClassifiedSession{session("a", ptrTime(now))}, Last7Days, now)

	assert.Nil(t, snap.SuccessRate)
}

func TestSnapshot_DeviceMix(t *testing.T) {
	at := ptrTime(now.Add(-2 * time.Hour))
	var records []domain.ClassifiedSession
	add := func(dt string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, session(fmt.Sprintf("%s-%d", dt, i), at, withDevice(dt)))
		}
	}
	add("android", 6)
	add("ios", 12)
	add("", 2)

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	require.Len(t, snap.DeviceMix, 3)
	assert.Equal(t, domain.DeviceShare{DeviceType: "ios", Count: 12, Share: 60}, snap.DeviceMix[0])
	assert.Equal(t, domain.DeviceShare{DeviceType: "android", Count: 6, Share: 30}, snap.DeviceMix[1])
	assert.Equal(t, domain.DeviceShare{DeviceType: UnknownDeviceType, Count: 2, Share: 10}, snap.DeviceMix[2])
}

func TestSnapshot_InclusiveLowerBound(t *testing.T) {
	boundary := now.Add(-7 * 24 * time.Hour)
	records := []domain.ClassifiedSession{
		session("on-boundary", ptrTime(boundary)),
		session("just-before", ptrTime(boundary.Add(-time.Microsecond))),
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.InWindow)
	require.NotNil(t, snap.WindowStart)
	assert.True(t, boundary.Equal(*snap.WindowStart))
}

func TestSnapshot_MissingInstantCountsOnlyTowardsTotal(t *testing.T) {
	records := []domain.ClassifiedSession{
		session("no-start", nil, withOutcome(domain.OutcomeSuccess), withDuration(30), withDevice("ios")),
		session("recent", ptrTime(now.Add(-time.Minute)), withOutcome(domain.OutcomeFailure)),
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.InWindow)
	assert.Equal(t, 0, snap.Successes)
	assert.Equal(t, 1, snap.Failures)
	assert.Equal(t, 0, snap.MeasureCount)
	require.Len(t, snap.DeviceMix, 1)
	assert.Equal(t, UnknownDeviceType, snap.DeviceMix[0].DeviceType)
}

func TestSnapshot_AverageAbsentWithoutMeasure(t *testing.T) {
	records := []domain.ClassifiedSession{
		session("open-1", ptrTime(now.Add(-time.Hour))),
		session("open-2", ptrTime(now.Add(-2*time.Hour))),
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Nil(t, snap.AvgMeasure)
	assert.Nil(t, snap.AvgSecondary)

	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "avg_measure")
	assert.NotContains(t, string(out), "NaN")
}

func TestSnapshot_OpenSessionDurationsAreIgnored(t *testing.T) {
	records := []domain.ClassifiedSession{
		session("open-1", ptrTime(now.Add(-time.Hour)), withDuration(0)),
		session("open-2", ptrTime(now.Add(-2*time.Hour)), withDuration(0)),
	}
	for i := range records {
		records[i].State = domain.LifecycleInProgress
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Equal(t, 2, snap.InWindow)
	assert.Equal(t, 0, snap.MeasureCount)
	assert.Nil(t, snap.AvgMeasure)
	for _, g := range snap.Groups[ByDevice] {
		assert.Nil(t, g.AvgMeasure, g.Key)
	}
}

func TestSnapshot_DeviceMixKeepsTopN(t *testing.T) {
	at := ptrTime(now.Add(-time.Hour))
	var records []domain.ClassifiedSession
	// d1 gets 7 sessions, d2 gets 6, down to d7 with 1.
	for d := 1; d <= 7; d++ {
		for i := 0; i < 8-d; i++ {
			records = append(records, session(fmt.Sprintf("d%d-%d", d, i), at, withDevice(fmt.Sprintf("d%d", d))))
		}
	}

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	require.Equal(t, 28, snap.InWindow)
	require.Len(t, snap.DeviceMix, DefaultTopN)
	assert.Equal(t, "d1", snap.DeviceMix[0].DeviceType)
	assert.Equal(t, 25.0, snap.DeviceMix[0].Share)
	assert.Equal(t, "d5", snap.DeviceMix[4].DeviceType)
	assert.Equal(t, 3, snap.DeviceMix[4].Count)

	assert.Len(t, Sessions(2).Snapshot(records, Last7Days, now).DeviceMix, 2)
}

func TestSnapshot_EmptyInput(t *testing.T) {
	snap := Sessions(0).Snapshot(nil, Last7Days, now)

	assert.Equal(t, 0, snap.Total)
	assert.Nil(t, snap.AvgMeasure)
	assert.Nil(t, snap.SuccessRate)
	assert.Empty(t, snap.DeviceMix)
	assert.Equal(t, 0, snap.Distinct[DistinctLocations])
}

func TestSnapshot_MeasuresTodayAndDistinct(t *testing.T) {
	records := []domain.ClassifiedSession{
		session("a", ptrTime(now.Add(-time.Hour)), withDuration(30), atLocation("loc-1", "Norte")),
		session("b", ptrTime(now.Add(-26*time.Hour)), withDuration(60), atLocation("loc-2", "Sul")),
		session("c", ptrTime(now.Add(-3*24*time.Hour)), atLocation("loc-1", "Norte")),
	}
	records[1].HasAppData = true
	records[1].App.BatteryDelta = ptrFloat(12)
	records[2].HasAppData = true

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	assert.Equal(t, 3, snap.InWindow)
	assert.Equal(t, 1, snap.Today)
	assert.Equal(t, 90.0, snap.MeasureSum)
	assert.Equal(t, 2, snap.MeasureCount)
	require.NotNil(t, snap.AvgMeasure)
	assert.Equal(t, 45.0, *snap.AvgMeasure)
	assert.Equal(t, 2, snap.Distinct[DistinctLocations])
	assert.Equal(t, 2, snap.AppLinked)
	assert.Equal(t, 1, snap.SecondaryCount)
	require.NotNil(t, snap.AvgSecondary)
	assert.Equal(t, 12.0, *snap.AvgSecondary)

	byLocation := snap.Groups[ByLocation]
	require.Len(t, byLocation, 2)
	assert.Equal(t, "loc-1", byLocation[0].Key)
	assert.Equal(t, "Norte", byLocation[0].Label)
	assert.Equal(t, 2, byLocation[0].Count)
	assert.Equal(t, 30.0, byLocation[0].MeasureSum)
	require.NotNil(t, byLocation[0].AvgMeasure)
	assert.Equal(t, 30.0, *byLocation[0].AvgMeasure)
}

func TestSnapshot_TopNIsStableAndTruncated(t *testing.T) {
	at := ptrTime(now.Add(-time.Hour))
	var records []domain.ClassifiedSession
	// l1..l7 get one session each, l4 gets an extra one.
	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("l%d", i)
		records = append(records, session("s-"+id, at, atLocation(id, id)))
	}
	records = append(records, session("extra", at, atLocation("l4", "l4")))

	snap := Sessions(0).Snapshot(records, Last7Days, now)

	var keys []string
	for _, g := range snap.Top[ByLocation] {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"l4", "l1", "l2", "l3", "l5"}, keys)
	assert.Len(t, snap.Groups[ByLocation], 7)
}

func TestSnapshot_TodayWindowAndAllTime(t *testing.T) {
	records := []domain.ClassifiedSession{
		session("today", ptrTime(Midnight(now))),
		session("yesterday", ptrTime(Midnight(now).Add(-time.Second))),
		session("old", ptrTime(now.AddDate(-2, 0, 0))),
	}

	today := Sessions(0).Snapshot(records, Today, now)
	all := Sessions(0).Snapshot(records, AllTime, now)

	assert.Equal(t, 1, today.InWindow)
	assert.Equal(t, 3, all.InWindow)
	assert.Nil(t, all.WindowStart)
	assert.Equal(t, 1, all.Today)
}

func TestRank(t *testing.T) {
	type item struct {
		name  string
		score float64
	}
	items := []item{{"a", 1}, {"b", 3}, {"c", 3}, {"d", 2}}

	got := Rank(items, func(i item) float64 { return i.score }, 3)

	assert.Equal(t, []item{{"b", 3}, {"c", 3}, {"d", 2}}, got)
	assert.Equal(t, "a", items[0].name, "input is not reordered")
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{"": Last7Days, "30d": Last30Days, "TODAY": Today, "all": AllTime} {
		got, err := ParseWindow(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	custom, err := ParseWindow("48h")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, custom.Lookback)

	_, err = ParseWindow("-1h")
	assert.Error(t, err)
	_, err = ParseWindow("fortnight")
	assert.Error(t, err)
}
