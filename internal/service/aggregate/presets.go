package aggregate

import (
	"time"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

// Dimension names used by the presets.
const (
	ByLocation = "location"
	ByBrand    = "brand"
	ByDevice   = "device"
	ByUnit     = "unit"
	ByType     = "type"

	DistinctLocations = "locations"
	DistinctUnits     = "units"
)

func locationKey(ref domain.UnitRef) (string, string) {
	if ref.LocationID != "" {
		return ref.LocationID, ref.LocationName
	}
	return ref.LocationName, ref.LocationName
}

func unitKey(ref domain.UnitRef) (string, string) {
	if ref.ResolvedUnitID != "" {
		return ref.ResolvedUnitID, ref.UnitName
	}
	return ref.UnitName, ref.UnitName
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownDeviceType
	}
	return s
}

// completedDuration keeps in-progress sessions out of duration averages; an
// open session has no final duration yet.
func completedDuration(s domain.ClassifiedSession) *float64 {
	if s.State != domain.LifecycleCompleted {
		return nil
	}
	return s.DurationMinutes
}

// Sessions aggregates sessions by start instant with the duration of completed
// sessions as the measure and battery delta as the secondary measure.
func Sessions(topN int) Aggregator[domain.ClassifiedSession] {
	return Aggregator[domain.ClassifiedSession]{
		Instant:    func(s domain.ClassifiedSession) *time.Time { return s.Start },
		Measure:    completedDuration,
		Secondary:  func(s domain.ClassifiedSession) *float64 { return s.App.BatteryDelta },
		Outcome:    func(s domain.ClassifiedSession) domain.Outcome { return s.Outcome },
		AppLinked:  func(s domain.ClassifiedSession) bool { return s.HasAppData },
		DeviceType: func(s domain.ClassifiedSession) string { return s.DeviceType },
		Distinct: []Dimension[domain.ClassifiedSession]{
			{Name: DistinctLocations, Key: func(s domain.ClassifiedSession) (string, string) { return s.UnitRef.LocationID, "" }},
			{Name: DistinctUnits, Key: func(s domain.ClassifiedSession) (string, string) { return s.ResolvedUnitID, "" }},
		},
		Dimensions: []Dimension[domain.ClassifiedSession]{
			{Name: ByLocation, Key: func(s domain.ClassifiedSession) (string, string) { return locationKey(s.UnitRef) }},
			{Name: ByBrand, Key: func(s domain.ClassifiedSession) (string, string) { return s.BrandID, s.BrandID }},
			{Name: ByDevice, Key: func(s domain.ClassifiedSession) (string, string) {
				dt := orUnknown(s.DeviceType)
				return dt, dt
			}},
			{Name: ByUnit, Key: func(s domain.ClassifiedSession) (string, string) { return unitKey(s.UnitRef) }},
		},
		TopN: topN,
	}
}

// Interactions aggregates interactions by their timestamp, grouped by type tag.
func Interactions(topN int) Aggregator[domain.ClassifiedInteraction] {
	return Aggregator[domain.ClassifiedInteraction]{
		Instant:    func(i domain.ClassifiedInteraction) *time.Time { return i.At },
		Outcome:    func(i domain.ClassifiedInteraction) domain.Outcome { return i.Outcome },
		AppLinked:  func(i domain.ClassifiedInteraction) bool { return i.HasAppData },
		DeviceType: func(i domain.ClassifiedInteraction) string { return i.DeviceType },
		Distinct: []Dimension[domain.ClassifiedInteraction]{
			{Name: DistinctLocations, Key: func(i domain.ClassifiedInteraction) (string, string) { return i.UnitRef.LocationID, "" }},
			{Name: DistinctUnits, Key: func(i domain.ClassifiedInteraction) (string, string) { return i.ResolvedUnitID, "" }},
		},
		Dimensions: []Dimension[domain.ClassifiedInteraction]{
			{Name: ByType, Key: func(i domain.ClassifiedInteraction) (string, string) {
				t := orUnknown(i.Type)
				return t, t
			}},
			{Name: ByLocation, Key: func(i domain.ClassifiedInteraction) (string, string) { return locationKey(i.UnitRef) }},
			{Name: ByUnit, Key: func(i domain.ClassifiedInteraction) (string, string) { return unitKey(i.UnitRef) }},
		},
		TopN: topN,
	}
}
