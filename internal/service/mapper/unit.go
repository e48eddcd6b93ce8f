package mapper

import (
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

var (
	unitNameChain       = []string{"metrics.name", "name"}
	unitLocationChain   = []string{"locationId", "location_id", "location.id"}
	unitDeviceChain     = []string{"particleDeviceId", "particle_device_id", "deviceId", "metrics.particleDeviceId"}
	unitHealthTimeChain = []string{"health.lastCalculated", "health.lastCalculatedAt"}
	unitStatusChain     = []string{"status", "health.status"}
)

func unitStatus(raw string) domain.UnitStatus {
	switch s := domain.UnitStatus(lower(raw)); s {
	case domain.UnitStatusOnline, domain.UnitStatusOffline, domain.UnitStatusWarning:
		return s
	}
	return ""
}

// firstUnitStatus skips values outside the known statuses, so an unrecognised
// top-level status still lets health.status decide.
func firstUnitStatus(f map[string]interface{}) domain.UnitStatus {
	for _, path := range unitStatusChain {
		if s := unitStatus(normalize.FirstString(f, path)); s != "" {
			return s
		}
	}
	return ""
}

func (m *Mapper) Unit(doc domain.RawDocument) domain.UnitRecord {
	f := doc.Fields

	return domain.UnitRecord{
		ID:               doc.ID,
		Name:             stringOr(f, doc.ID, unitNameChain),
		Position:         normalize.FirstString(f, "position", "positionLabel", "slot"),
		LocationID:       normalize.FirstString(f, unitLocationChain...),
		Status:           firstUnitStatus(f),
		InUse:            normalize.FirstBool(f, "inUse", "isInUse", "charging"),
		ParticleDeviceID: normalize.FirstString(f, unitDeviceChain...),
		Health: domain.UnitHealth{
			Status:           normalize.FirstString(f, "health.status"),
			NeedsMaintenance: normalize.FirstBool(f, "health.needsMaintenance"),
			Score:            normalize.FirstNumber(f, "health.score"),
			LastCalculated:   m.instant(f, unitHealthTimeChain),
		},
		Metrics: domain.UnitMetrics{
			SuccessRate:        normalize.FirstNumber(f, "metrics.successRate"),
			FaultRate:          normalize.FirstNumber(f, "metrics.faultRate"),
			RetryRate:          normalize.FirstNumber(f, "metrics.retryRate"),
			PlacementIssueRate: normalize.FirstNumber(f, "metrics.placementIssueRate"),
			TotalSessions:      nonNegative(normalize.FirstNumber(f, "metrics.totalSessions")),
			TotalInteractions:  nonNegative(normalize.FirstNumber(f, "metrics.totalInteractions")),
		},
	}
}

func (m *Mapper) Units(docs []domain.RawDocument) []domain.UnitRecord {
	return mapAll(docs, m.Unit)
}
