package mapper

import (
	"github.com/seu-repo/sigec-insights/internal/domain"
	"github.com/seu-repo/sigec-insights/internal/service/normalize"
)

var (
	unitRefChain      = []string{"unitId", "unit_id", "unit.id"}
	deviceKeyChain    = []string{"particleDeviceId", "deviceId", "coreid"}
	deviceTypeChain   = []string{"deviceType", "app.deviceType", "platform", "app.platform"}
	sessionStartChain = []string{"startTime", "startedAt", "start", "createdAt", "timestamp"}
	sessionEndChain   = []string{"endTime", "endedAt", "end"}
	interactionChain  = []string{"timestamp", "createdAt", "time"}
)

func appLinkage(f map[string]interface{}) domain.AppLinkage {
	a := domain.AppLinkage{
		Linked:       normalize.FirstBool(f, "appLinked", "app.linked"),
		DeviceMake:   normalize.FirstString(f, "app.deviceMake", "deviceMake"),
		DeviceModel:  normalize.FirstString(f, "app.deviceModel", "deviceModel"),
		BatteryStart: normalize.FirstNumber(f, "app.batteryStart", "batteryStart", "batteryLevelStart"),
		BatteryEnd:   normalize.FirstNumber(f, "app.batteryEnd", "batteryEnd", "batteryLevelEnd"),
		BatteryDelta: normalize.FirstNumber(f, "app.batteryDelta", "batteryDelta"),
		LocationID:   normalize.FirstString(f, "app.locationId", "appLocationId"),
		SessionID:    normalize.FirstString(f, "app.sessionId", "appSessionId"),
	}
	if a.BatteryDelta == nil && a.BatteryStart != nil && a.BatteryEnd != nil {
		delta := *a.BatteryEnd - *a.BatteryStart
		a.BatteryDelta = &delta
	}
	return a
}

func (m *Mapper) Session(doc domain.RawDocument) domain.SessionRecord {
	f := doc.Fields

	rec := domain.SessionRecord{
		ID:              doc.ID,
		UnitID:          normalize.FirstString(f, unitRefChain...),
		DeviceKey:       normalize.FirstString(f, deviceKeyChain...),
		Start:           m.timeOrDateHour(f, sessionStartChain),
		End:             m.instant(f, sessionEndChain),
		DurationMinutes: nonNegative(normalize.FirstNumber(f, "durationMinutes", "duration")),
		DeviceType:      lower(normalize.FirstString(f, deviceTypeChain...)),
		Signals:         signals(f),
		App:             appLinkage(f),
	}

	if rec.DurationMinutes == nil && rec.Start != nil && rec.End != nil && !rec.End.Before(*rec.Start) {
		minutes := rec.End.Sub(*rec.Start).Minutes()
		rec.DurationMinutes = &minutes
	}
	rec.HasAppData = rec.App.Present()

	return rec
}

func (m *Mapper) Sessions(docs []domain.RawDocument) []domain.SessionRecord {
	return mapAll(docs, m.Session)
}

// Interaction carries only the device half of the app linkage.
func (m *Mapper) Interaction(doc domain.RawDocument) domain.InteractionRecord {
	f := doc.Fields

	full := appLinkage(f)
	app := domain.AppLinkage{
		Linked:      full.Linked,
		DeviceMake:  full.DeviceMake,
		DeviceModel: full.DeviceModel,
		LocationID:  full.LocationID,
	}

	return domain.InteractionRecord{
		ID:         doc.ID,
		At:         m.timeOrDateHour(f, interactionChain),
		Type:       normalize.FirstString(f, "type", "eventType"),
		Mode:       normalize.FirstString(f, "mode"),
		DeviceType: lower(normalize.FirstString(f, deviceTypeChain...)),
		UnitID:     normalize.FirstString(f, unitRefChain...),
		DeviceKey:  normalize.FirstString(f, deviceKeyChain...),
		Signals:    signals(f),
		App:        app,
		HasAppData: app.Present(),
	}
}

func (m *Mapper) Interactions(docs []domain.RawDocument) []domain.InteractionRecord {
	return mapAll(docs, m.Interaction)
}

func (m *Mapper) AppChargingEvent(doc domain.RawDocument) domain.AppChargingEventRecord {
	f := doc.Fields

	return domain.AppChargingEventRecord{
		ID:           doc.ID,
		SessionID:    normalize.FirstString(f, "sessionId", "session_id"),
		At:           m.instant(f, []string{"timestamp", "createdAt", "recordedAt"}),
		BatteryLevel: normalize.FirstNumber(f, "batteryLevel"),
		BatteryDelta: normalize.FirstNumber(f, "batteryDelta"),
		Wireless:     normalize.FirstBool(f, "wireless", "isWireless"),
		PlugType:     normalize.FirstString(f, "plugType"),
		DeviceMake:   normalize.FirstString(f, "deviceMake"),
		DeviceModel:  normalize.FirstString(f, "deviceModel"),
		Source:       normalize.FirstString(f, "source"),
		LocationID:   normalize.FirstString(f, "locationId"),
	}
}

func (m *Mapper) AppChargingEvents(docs []domain.RawDocument) []domain.AppChargingEventRecord {
	return mapAll(docs, m.AppChargingEvent)
}
